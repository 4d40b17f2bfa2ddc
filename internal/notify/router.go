// Package notify calcula destinatários de eventos de domínio e entrega
// as notificações resultantes. O roteamento reaproveita o escopo de
// leitura de authz: ninguém recebe notificação sobre recurso que não
// poderia enumerar.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
)

// EventType identifica o evento de domínio roteado.
type EventType string

const (
	EventReportSubmitted EventType = "REPORT_SUBMITTED"
	EventGoalUpdated     EventType = "GOAL_UPDATED"
	EventGoalCompleted   EventType = "GOAL_COMPLETED"
	EventUserRequest     EventType = "USER_REQUEST"
)

// Event é efêmero: descreve o que aconteceu e sobre qual recurso. Não é
// persistido pelo núcleo; as linhas persistidas são as notificações já
// endereçadas.
type Event struct {
	Type    EventType
	Actor   uuid.UUID
	Recurso authz.Resource

	// DestinatariosIDs carrega os supervisores escolhidos no envio de um
	// relatório (REPORT_SUBMITTED).
	DestinatariosIDs []uuid.UUID

	// Campos de exibição usados para montar título e corpo.
	TituloRecurso string
	NomeAtor      string
}

// Recipient é uma notificação endereçada, pronta para entrega.
type Recipient struct {
	UsuarioID uuid.UUID
	Titulo    string
	Corpo     string
}

// Directory enumera os principals de uma sucursal; implementado pelo repo.
type Directory interface {
	ListPrincipalsBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]authz.Principal, error)
}

// Router computa o conjunto de destinatários de um evento.
type Router struct {
	dir Directory
}

// NewRouter cria o roteador com o diretório de principals.
func NewRouter(dir Directory) *Router {
	return &Router{dir: dir}
}

// Route devolve os destinatários do evento. Conjunto vazio não é erro: o
// evento é simplesmente descartado (ex.: departamento sem supervisor e
// sem ADMIN). O ator nunca se notifica a si mesmo.
func (r *Router) Route(ctx context.Context, ev Event) ([]Recipient, error) {
	candidatos, err := r.dir.ListPrincipalsBySucursal(ctx, ev.Recurso.SucursalID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]authz.Principal, len(candidatos))
	for _, c := range candidatos {
		byID[c.ID] = c
	}

	var ids []uuid.UUID
	switch ev.Type {
	case EventReportSubmitted:
		ids = r.reportSubmitted(ev, candidatos)
	case EventGoalUpdated, EventGoalCompleted:
		ids = r.goalAudience(ev)
	case EventUserRequest:
		ids = r.userRequest(ev, candidatos)
	default:
		return nil, nil
	}

	// o recurso roteado trata quem deve agir sobre ele como responsável:
	// destinatários explícitos de um relatório e a cadeia de aprovação de
	// uma solicitação enxergam o recurso pelo próprio escopo
	rec := ev.Recurso
	switch ev.Type {
	case EventReportSubmitted:
		rec.AssigneeIDs = append(append([]uuid.UUID{}, rec.AssigneeIDs...), ev.DestinatariosIDs...)
	case EventUserRequest:
		rec.AssigneeIDs = append(append([]uuid.UUID{}, rec.AssigneeIDs...), ids...)
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	var out []Recipient
	for _, id := range ids {
		if id == ev.Actor || seen[id] {
			continue
		}
		seen[id] = true

		// invariante de consistência: visibilidade de notificação nunca
		// excede o escopo de leitura do destinatário
		p, ok := byID[id]
		if !ok || !authz.ResolveScope(p, rec.Kind).Contains(rec) {
			continue
		}

		titulo, corpo := renderMessage(ev)
		out = append(out, Recipient{UsuarioID: id, Titulo: titulo, Corpo: corpo})
	}

	return out, nil
}

// reportSubmitted: ADMIN+ da sucursal do remetente, mais os destinatários
// explícitos escolhidos no envio.
func (r *Router) reportSubmitted(ev Event, candidatos []authz.Principal) []uuid.UUID {
	var ids []uuid.UUID
	ids = append(ids, ev.DestinatariosIDs...)
	for _, c := range candidatos {
		if authz.Satisfies(c.Role, authz.RoleAdmin) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// goalAudience: responsáveis e criador da meta.
func (r *Router) goalAudience(ev Event) []uuid.UUID {
	ids := append([]uuid.UUID{}, ev.Recurso.AssigneeIDs...)
	return append(ids, ev.Recurso.OwnerID)
}

// userRequest: SUPERVISOR+ da sucursal; se o solicitante já tem
// departamento, estreita para o supervisor desse departamento mais todos
// os ADMIN+.
func (r *Router) userRequest(ev Event, candidatos []authz.Principal) []uuid.UUID {
	var ids []uuid.UUID
	for _, c := range candidatos {
		if !authz.Satisfies(c.Role, authz.RoleSupervisor) {
			continue
		}
		if ev.Recurso.DepartamentoID != nil && !authz.Satisfies(c.Role, authz.RoleAdmin) {
			if c.DepartamentoID == nil || *c.DepartamentoID != *ev.Recurso.DepartamentoID {
				continue
			}
		}
		ids = append(ids, c.ID)
	}
	return ids
}

func renderMessage(ev Event) (titulo, corpo string) {
	switch ev.Type {
	case EventReportSubmitted:
		return "Novo relatório enviado",
			fmt.Sprintf("%s enviou um relatório da meta %q.", ev.NomeAtor, ev.TituloRecurso)
	case EventGoalUpdated:
		return "Meta atualizada",
			fmt.Sprintf("%s atualizou a meta %q.", ev.NomeAtor, ev.TituloRecurso)
	case EventGoalCompleted:
		return "Meta concluída",
			fmt.Sprintf("A meta %q foi concluída por %s.", ev.TituloRecurso, ev.NomeAtor)
	case EventUserRequest:
		return "Nova solicitação de acesso",
			fmt.Sprintf("%s solicitou acesso à plataforma.", ev.NomeAtor)
	default:
		return string(ev.Type), ""
	}
}
