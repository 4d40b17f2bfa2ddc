package notify

import (
	"context"

	"github.com/resend/resend-go/v2"

	"github.com/gestaomeridional/plataforma/internal/repo"
)

// EmailDeliverer envia a notificação por e-mail via Resend. O endereço é
// resolvido no momento da entrega, a partir do cadastro do destinatário.
type EmailDeliverer struct {
	client *resend.Client
	from   string
	repo   *repo.Queries
}

// NewEmailDeliverer devolve nil quando a API key não está configurada.
func NewEmailDeliverer(apiKey, from string, r *repo.Queries) *EmailDeliverer {
	if apiKey == "" || from == "" {
		return nil
	}
	return &EmailDeliverer{client: resend.NewClient(apiKey), from: from, repo: r}
}

func (e *EmailDeliverer) Deliver(ctx context.Context, rec Recipient) error {
	usuario, err := e.repo.GetUsuarioByID(ctx, rec.UsuarioID)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{usuario.Email},
		Subject: rec.Titulo,
		Text:    rec.Corpo,
	}

	_, err = e.client.Emails.SendWithContext(ctx, params)
	return err
}
