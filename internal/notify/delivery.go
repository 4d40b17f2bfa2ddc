package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Deliverer entrega uma notificação endereçada a um canal concreto
// (linha persistida, webhook, e-mail). Entregas entre destinatários são
// independentes e podem falhar isoladamente.
type Deliverer interface {
	Deliver(ctx context.Context, rec Recipient) error
}

// Dispatcher roteia um evento e dispara as entregas em paralelo, uma por
// destinatário por canal. Falha de entrega é logada, nunca propagada;
// a mudança de estado que originou o evento já foi aplicada.
type Dispatcher struct {
	router     *Router
	deliverers []Deliverer
}

// NewDispatcher cria o despachante com os canais configurados.
func NewDispatcher(router *Router, deliverers ...Deliverer) *Dispatcher {
	return &Dispatcher{router: router, deliverers: deliverers}
}

// Dispatch resolve destinatários e entrega. Evento sem destinatário é
// descartado em silêncio.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	recipients, err := d.router.Route(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("event", string(ev.Type)).Msg("roteamento de notificação falhou")
		return
	}
	if len(recipients) == 0 {
		log.Debug().Str("event", string(ev.Type)).Msg("evento sem destinatários, descartado")
		return
	}

	var wg sync.WaitGroup
	for _, rec := range recipients {
		for _, del := range d.deliverers {
			wg.Add(1)
			go func(rec Recipient, del Deliverer) {
				defer wg.Done()
				if err := del.Deliver(ctx, rec); err != nil {
					log.Warn().Err(err).
						Str("event", string(ev.Type)).
						Str("usuario", rec.UsuarioID.String()).
						Msg("entrega de notificação falhou")
				}
			}(rec, del)
		}
	}
	wg.Wait()
}

// WebhookDeliverer publica a notificação em um webhook compatível com
// Slack.
type WebhookDeliverer struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookDeliverer devolve nil quando a URL não está configurada.
func NewWebhookDeliverer(webhookURL string) *WebhookDeliverer {
	if webhookURL == "" {
		return nil
	}
	return &WebhookDeliverer{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (w *WebhookDeliverer) Deliver(ctx context.Context, rec Recipient) error {
	if w == nil || w.webhookURL == "" {
		return errors.New("webhook não configurado")
	}

	payload := map[string]any{
		"text": ":bell: *" + rec.Titulo + "*\n" + rec.Corpo,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("webhook respondeu com erro")
	}
	return nil
}
