package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/meta"
	"github.com/gestaomeridional/plataforma/internal/notify"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

type metaRepository interface {
	GetMetaByID(ctx context.Context, id uuid.UUID) (repo.Meta, error)
	ListMetas(ctx context.Context, scope authz.Scope) ([]repo.Meta, error)
	CreateMeta(ctx context.Context, m repo.Meta) (repo.Meta, error)
	UpdateMetaProgresso(ctx context.Context, id uuid.UUID, progresso int) error
	UpdateMetaStatus(ctx context.Context, id uuid.UUID, from, to string) error
	UpdateMetaResponsaveis(ctx context.Context, id uuid.UUID, responsaveis []uuid.UUID) error
	DeleteMeta(ctx context.Context, id uuid.UUID) error
	InsertRelatorio(ctx context.Context, r repo.RelatorioMeta) (repo.RelatorioMeta, error)
	ListRelatoriosByMeta(ctx context.Context, metaID uuid.UUID) ([]repo.RelatorioMeta, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

// MetaService concentra o fluxo de metas: criação, progresso, relatórios
// e transições de status. Toda mutação passa pelo motor de política; o
// serviço aplica a decisão e emite o evento correspondente.
type MetaService struct {
	repo       metaRepository
	dispatcher eventDispatcher
}

// NewMetaService cria o serviço de metas.
func NewMetaService(r metaRepository, d eventDispatcher) *MetaService {
	return &MetaService{repo: r, dispatcher: d}
}

// CreateMetaInput agrupa os campos de criação.
type CreateMetaInput struct {
	Titulo                  string
	Descricao               string
	DepartamentoID          *uuid.UUID
	ResponsaveisIDs         []uuid.UUID
	ExigeRelatorioConclusao bool
}

// ListMetas enumera as metas visíveis ao principal. O escopo resolvido é
// a única fonte do filtro; não há peneira adicional na borda.
func (s *MetaService) ListMetas(ctx context.Context, p authz.Principal) ([]repo.Meta, error) {
	scope := authz.ResolveScope(p, authz.KindMeta)
	return s.repo.ListMetas(ctx, scope)
}

// GetMeta devolve a meta quando o principal pode enxergá-la.
func (s *MetaService) GetMeta(ctx context.Context, p authz.Principal, id uuid.UUID) (repo.Meta, error) {
	m, err := s.repo.GetMetaByID(ctx, id)
	if err != nil {
		return repo.Meta{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, metaResource(m)); !dec.Allow {
		return repo.Meta{}, denied(dec)
	}
	return m, nil
}

// CreateMeta cria meta no departamento informado (ou no do principal).
func (s *MetaService) CreateMeta(ctx context.Context, p authz.Principal, input CreateMetaInput) (repo.Meta, error) {
	if strings.TrimSpace(input.Titulo) == "" {
		return repo.Meta{}, fmt.Errorf("%w: título obrigatório", ErrValidation)
	}

	departamentoID := input.DepartamentoID
	if departamentoID == nil {
		departamentoID = p.DepartamentoID
	}

	nova := repo.Meta{
		ID:                      uuid.New(),
		SucursalID:              p.SucursalID,
		DepartamentoID:          departamentoID,
		CriadoPorID:             p.ID,
		ResponsaveisIDs:         input.ResponsaveisIDs,
		Titulo:                  strings.TrimSpace(input.Titulo),
		Descricao:               strings.TrimSpace(input.Descricao),
		Status:                  string(meta.StatusPending),
		Progresso:               0,
		ExigeRelatorioConclusao: input.ExigeRelatorioConclusao,
	}

	if dec := authz.Evaluate(p, authz.ActionCreate, metaResource(nova)); !dec.Allow {
		return repo.Meta{}, denied(dec)
	}

	return s.repo.CreateMeta(ctx, nova)
}

// UpdateProgresso grava progresso novo e notifica os interessados.
func (s *MetaService) UpdateProgresso(ctx context.Context, p authz.Principal, id uuid.UUID, progresso int) (repo.Meta, error) {
	if progresso < 0 || progresso > 100 {
		return repo.Meta{}, fmt.Errorf("%w: progresso deve estar entre 0 e 100", ErrValidation)
	}

	m, err := s.repo.GetMetaByID(ctx, id)
	if err != nil {
		return repo.Meta{}, err
	}

	if dec := authz.Evaluate(p, authz.ActionUpdateProgress, metaResource(m)); !dec.Allow {
		return repo.Meta{}, denied(dec)
	}

	if meta.IsTerminal(meta.Status(m.Status)) {
		return repo.Meta{}, denied(authz.Decision{Reason: authz.ReasonInvalidTransition})
	}

	if err := s.repo.UpdateMetaProgresso(ctx, id, progresso); err != nil {
		return repo.Meta{}, err
	}
	m.Progresso = progresso

	s.emit(ctx, p, notify.EventGoalUpdated, m, nil)
	return m, nil
}

// Transition aplica a mudança de status avaliada pelo motor de política,
// que delega a guarda de conclusão ao ciclo de vida. A aplicação é
// condicionada ao status lido; perder a corrida vira ErrConflito.
func (s *MetaService) Transition(ctx context.Context, p authz.Principal, id uuid.UUID, target meta.Status) (repo.Meta, error) {
	m, err := s.repo.GetMetaByID(ctx, id)
	if err != nil {
		return repo.Meta{}, err
	}

	snap := meta.Snapshot{
		Status:                    meta.Status(m.Status),
		Progresso:                 m.Progresso,
		ExigeRelatorioConclusao:   m.ExigeRelatorioConclusao,
		RelatorioConclusaoEnviado: m.RelatorioConclusaoEnviado,
	}

	if dec := authz.EvaluateMetaTransition(p, metaResource(m), snap, target); !dec.Allow {
		return repo.Meta{}, denied(dec)
	}

	if err := s.repo.UpdateMetaStatus(ctx, id, m.Status, string(target)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Meta{}, ErrConflito
		}
		return repo.Meta{}, err
	}
	m.Status = string(target)

	event := notify.EventGoalUpdated
	if target == meta.StatusCompleted {
		event = notify.EventGoalCompleted
	}
	s.emit(ctx, p, event, m, nil)

	return m, nil
}

// SubmitRelatorioInput agrupa os campos de envio de relatório.
type SubmitRelatorioInput struct {
	Conteudo         string
	Conclusao        bool
	DestinatariosIDs []uuid.UUID
}

// SubmitRelatorio grava relatório com versão monotônica. Enviar relatório
// de conclusão desbloqueia a transição para COMPLETED, mas nunca conclui
// a meta por conta própria. Envio e transição são desacoplados para que
// falha parcial não deixe estado terminal inconsistente.
func (s *MetaService) SubmitRelatorio(ctx context.Context, p authz.Principal, metaID uuid.UUID, input SubmitRelatorioInput) (repo.RelatorioMeta, error) {
	if strings.TrimSpace(input.Conteudo) == "" {
		return repo.RelatorioMeta{}, fmt.Errorf("%w: conteúdo obrigatório", ErrValidation)
	}

	m, err := s.repo.GetMetaByID(ctx, metaID)
	if err != nil {
		return repo.RelatorioMeta{}, err
	}

	if dec := authz.Evaluate(p, authz.ActionCreate, relatorioResource(m, input.DestinatariosIDs)); !dec.Allow {
		return repo.RelatorioMeta{}, denied(dec)
	}

	rel, err := s.repo.InsertRelatorio(ctx, repo.RelatorioMeta{
		ID:               uuid.New(),
		MetaID:           m.ID,
		EnviadoPorID:     p.ID,
		Conclusao:        input.Conclusao,
		DestinatariosIDs: input.DestinatariosIDs,
		Conteudo:         strings.TrimSpace(input.Conteudo),
	})
	if err != nil {
		return repo.RelatorioMeta{}, err
	}

	s.emit(ctx, p, notify.EventReportSubmitted, m, input.DestinatariosIDs)
	return rel, nil
}

// ListRelatorios devolve os relatórios da meta para quem a enxerga.
func (s *MetaService) ListRelatorios(ctx context.Context, p authz.Principal, metaID uuid.UUID) ([]repo.RelatorioMeta, error) {
	m, err := s.repo.GetMetaByID(ctx, metaID)
	if err != nil {
		return nil, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, relatorioResource(m, nil)); !dec.Allow {
		return nil, denied(dec)
	}
	return s.repo.ListRelatoriosByMeta(ctx, metaID)
}

// UpdateResponsaveis substitui a lista de responsáveis da meta.
func (s *MetaService) UpdateResponsaveis(ctx context.Context, p authz.Principal, id uuid.UUID, responsaveis []uuid.UUID) (repo.Meta, error) {
	m, err := s.repo.GetMetaByID(ctx, id)
	if err != nil {
		return repo.Meta{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionUpdate, metaResource(m)); !dec.Allow {
		return repo.Meta{}, denied(dec)
	}
	if err := s.repo.UpdateMetaResponsaveis(ctx, id, responsaveis); err != nil {
		return repo.Meta{}, err
	}
	m.ResponsaveisIDs = responsaveis

	s.emit(ctx, p, notify.EventGoalUpdated, m, nil)
	return m, nil
}

// DeleteMeta remove a meta e os relatórios associados.
func (s *MetaService) DeleteMeta(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	m, err := s.repo.GetMetaByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionDelete, metaResource(m)); !dec.Allow {
		return denied(dec)
	}
	return s.repo.DeleteMeta(ctx, id)
}

// emit monta o evento e despacha fora do caminho da requisição. A
// mudança de estado já foi aplicada; entrega não participa da transação.
func (s *MetaService) emit(ctx context.Context, p authz.Principal, tipo notify.EventType, m repo.Meta, destinatarios []uuid.UUID) {
	if s.dispatcher == nil {
		return
	}

	nomeAtor := ""
	if ator, err := s.repo.GetUsuarioByID(ctx, p.ID); err == nil {
		nomeAtor = ator.Nome
	} else {
		log.Warn().Err(err).Msg("nome do ator indisponível para notificação")
	}

	recurso := metaResource(m)
	if tipo == notify.EventReportSubmitted {
		recurso = relatorioResource(m, destinatarios)
	}

	ev := notify.Event{
		Type:             tipo,
		Actor:            p.ID,
		Recurso:          recurso,
		DestinatariosIDs: destinatarios,
		TituloRecurso:    m.Titulo,
		NomeAtor:         nomeAtor,
	}

	go s.dispatcher.Dispatch(context.WithoutCancel(ctx), ev)
}
