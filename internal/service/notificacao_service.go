package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

type notificacaoRepository interface {
	ListNotificacoesByUsuario(ctx context.Context, usuarioID uuid.UUID, limit int) ([]repo.Notificacao, error)
	MarkNotificacaoLida(ctx context.Context, id, usuarioID uuid.UUID) error
}

// NotificacaoService expõe a caixa de entrada do colaborador. Só o
// próprio destinatário enxerga e marca as suas notificações.
type NotificacaoService struct {
	repo notificacaoRepository
}

// NewNotificacaoService cria o serviço de notificações.
func NewNotificacaoService(r notificacaoRepository) *NotificacaoService {
	return &NotificacaoService{repo: r}
}

// ListNotificacoes devolve as notificações do próprio principal.
func (s *NotificacaoService) ListNotificacoes(ctx context.Context, p authz.Principal, limit int) ([]repo.Notificacao, error) {
	return s.repo.ListNotificacoesByUsuario(ctx, p.ID, limit)
}

// MarcarLida marca como lida; a query já restringe ao destinatário.
func (s *NotificacaoService) MarcarLida(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	return s.repo.MarkNotificacaoLida(ctx, id, p.ID)
}
