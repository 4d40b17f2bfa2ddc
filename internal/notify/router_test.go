package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
)

type stubDirectory struct {
	principals []authz.Principal
}

func (s *stubDirectory) ListPrincipalsBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]authz.Principal, error) {
	var out []authz.Principal
	for _, p := range s.principals {
		if p.SucursalID == sucursalID {
			out = append(out, p)
		}
	}
	return out, nil
}

func contains(recipients []Recipient, id uuid.UUID) bool {
	for _, r := range recipients {
		if r.UsuarioID == id {
			return true
		}
	}
	return false
}

func TestRouteReportSubmitted(t *testing.T) {
	sucursal := uuid.New()
	deptA := uuid.New()
	deptB := uuid.New()

	ator := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal, DepartamentoID: &deptA}
	supOutroDept := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &deptB}
	admin1 := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	admin2 := authz.Principal{ID: uuid.New(), Role: authz.RoleSuperAdmin, SucursalID: sucursal}
	colega := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal, DepartamentoID: &deptA}

	router := NewRouter(&stubDirectory{principals: []authz.Principal{ator, supOutroDept, admin1, admin2, colega}})

	ev := Event{
		Type:  EventReportSubmitted,
		Actor: ator.ID,
		Recurso: authz.Resource{
			Kind:           authz.KindRelatorio,
			SucursalID:     sucursal,
			OwnerID:        ator.ID,
			DepartamentoID: &deptA,
		},
		// supervisor de outro departamento escolhido como destinatário:
		// entra na audiência e o escopo passa a enxergar o relatório
		DestinatariosIDs: []uuid.UUID{supOutroDept.ID},
		TituloRecurso:    "Expansão regional",
		NomeAtor:         "Marina",
	}

	recipients, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if len(recipients) != 3 {
		t.Fatalf("esperava 3 destinatários, veio %d", len(recipients))
	}
	for _, want := range []uuid.UUID{supOutroDept.ID, admin1.ID, admin2.ID} {
		if !contains(recipients, want) {
			t.Fatalf("destinatário %s ausente", want)
		}
	}
	if contains(recipients, ator.ID) {
		t.Fatal("ator não deveria se notificar")
	}
	if contains(recipients, colega.ID) {
		t.Fatal("colega sem papel nem escolha não deveria receber")
	}
}

func TestRouteGoalCompletedAudience(t *testing.T) {
	sucursal := uuid.New()
	dept := uuid.New()

	dono := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &dept}
	resp1 := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal, DepartamentoID: &dept}
	resp2 := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal, DepartamentoID: &dept}

	router := NewRouter(&stubDirectory{principals: []authz.Principal{dono, resp1, resp2}})

	ev := Event{
		Type:  EventGoalCompleted,
		Actor: resp1.ID,
		Recurso: authz.Resource{
			Kind:           authz.KindMeta,
			SucursalID:     sucursal,
			OwnerID:        dono.ID,
			DepartamentoID: &dept,
			AssigneeIDs:    []uuid.UUID{resp1.ID, resp2.ID},
		},
		TituloRecurso: "Inventário anual",
		NomeAtor:      "Paulo",
	}

	recipients, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if len(recipients) != 2 {
		t.Fatalf("esperava dono e o outro responsável, veio %d", len(recipients))
	}
	if !contains(recipients, dono.ID) || !contains(recipients, resp2.ID) {
		t.Fatal("audiência incompleta")
	}
	if contains(recipients, resp1.ID) {
		t.Fatal("o ator não deveria receber")
	}
}

func TestRouteUserRequestNarrowsToDepartment(t *testing.T) {
	sucursal := uuid.New()
	deptA := uuid.New()
	deptB := uuid.New()

	supA := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &deptA}
	supB := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &deptB}
	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}

	router := NewRouter(&stubDirectory{principals: []authz.Principal{supA, supB, admin}})

	solicitacao := uuid.New()
	ev := Event{
		Type:  EventUserRequest,
		Actor: solicitacao,
		Recurso: authz.Resource{
			Kind:           authz.KindUsuario,
			ID:             solicitacao,
			SucursalID:     sucursal,
			OwnerID:        solicitacao,
			DepartamentoID: &deptA,
		},
		NomeAtor: "Carla",
	}

	recipients, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if !contains(recipients, supA.ID) {
		t.Fatal("supervisor do departamento deveria receber")
	}
	if contains(recipients, supB.ID) {
		t.Fatal("supervisor de outro departamento não deveria receber")
	}
	if !contains(recipients, admin.ID) {
		t.Fatal("ADMIN deveria receber")
	}
}

func TestRouteEmptyAudienceIsDropped(t *testing.T) {
	sucursal := uuid.New()
	dept := uuid.New()
	ator := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal, DepartamentoID: &dept}

	router := NewRouter(&stubDirectory{principals: []authz.Principal{ator}})

	ev := Event{
		Type:  EventGoalUpdated,
		Actor: ator.ID,
		Recurso: authz.Resource{
			Kind:           authz.KindMeta,
			SucursalID:     sucursal,
			OwnerID:        ator.ID,
			DepartamentoID: &dept,
			AssigneeIDs:    []uuid.UUID{ator.ID},
		},
	}

	recipients, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(recipients) != 0 {
		t.Fatalf("audiência só com o ator deveria esvaziar, veio %d", len(recipients))
	}
}

func TestRouteScopeConsistency(t *testing.T) {
	sucursal := uuid.New()
	outra := uuid.New()
	dept := uuid.New()

	// responsável cadastrado noutra sucursal nunca recebe, mesmo listado
	foraDaSucursal := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: outra}
	dono := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &dept}

	router := NewRouter(&stubDirectory{principals: []authz.Principal{foraDaSucursal, dono}})

	ev := Event{
		Type:  EventGoalUpdated,
		Actor: uuid.New(),
		Recurso: authz.Resource{
			Kind:           authz.KindMeta,
			SucursalID:     sucursal,
			OwnerID:        dono.ID,
			DepartamentoID: &dept,
			AssigneeIDs:    []uuid.UUID{foraDaSucursal.ID},
		},
	}

	recipients, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if contains(recipients, foraDaSucursal.ID) {
		t.Fatal("destinatário de outra sucursal deveria ser filtrado")
	}
	if !contains(recipients, dono.ID) {
		t.Fatal("dono deveria receber")
	}
}
