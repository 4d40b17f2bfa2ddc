package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/repo"
)

// StoreDeliverer persiste a notificação como linha lida pela UI.
type StoreDeliverer struct {
	repo *repo.Queries
}

// NewStoreDeliverer cria o canal de persistência.
func NewStoreDeliverer(r *repo.Queries) *StoreDeliverer {
	return &StoreDeliverer{repo: r}
}

func (s *StoreDeliverer) Deliver(ctx context.Context, rec Recipient) error {
	_, err := s.repo.InsertNotificacao(ctx, repo.Notificacao{
		ID:        uuid.New(),
		UsuarioID: rec.UsuarioID,
		Titulo:    rec.Titulo,
		Corpo:     rec.Corpo,
	})
	return err
}
