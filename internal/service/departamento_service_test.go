package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

type stubDeptRepo struct {
	departamentos map[uuid.UUID]repo.Departamento
	usuarios      map[uuid.UUID]repo.Usuario
}

func newStubDeptRepo() *stubDeptRepo {
	return &stubDeptRepo{
		departamentos: make(map[uuid.UUID]repo.Departamento),
		usuarios:      make(map[uuid.UUID]repo.Usuario),
	}
}

func (s *stubDeptRepo) GetDepartamentoByID(ctx context.Context, id uuid.UUID) (repo.Departamento, error) {
	d, ok := s.departamentos[id]
	if !ok {
		return repo.Departamento{}, repo.ErrNotFound
	}
	return d, nil
}

func (s *stubDeptRepo) ListDepartamentosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]repo.Departamento, error) {
	var out []repo.Departamento
	for _, d := range s.departamentos {
		if d.SucursalID == sucursalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubDeptRepo) CreateDepartamento(ctx context.Context, d repo.Departamento) (repo.Departamento, error) {
	s.departamentos[d.ID] = d
	return d, nil
}

func (s *stubDeptRepo) UpdateDepartamento(ctx context.Context, id uuid.UUID, nome string) error {
	d, ok := s.departamentos[id]
	if !ok {
		return repo.ErrNotFound
	}
	d.Nome = nome
	s.departamentos[id] = d
	return nil
}

func (s *stubDeptRepo) SetDepartamentoSupervisor(ctx context.Context, id uuid.UUID, supervisorID *uuid.UUID) error {
	d, ok := s.departamentos[id]
	if !ok {
		return repo.ErrNotFound
	}
	d.SupervisorID = supervisorID
	s.departamentos[id] = d
	return nil
}

func (s *stubDeptRepo) DeleteDepartamento(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.departamentos[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.departamentos, id)
	return nil
}

func (s *stubDeptRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubDeptRepo) SetUsuarioDepartamento(ctx context.Context, id uuid.UUID, departamentoID *uuid.UUID) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.DepartamentoID = departamentoID
	s.usuarios[id] = u
	return nil
}

type stubInvalidator struct {
	ids []uuid.UUID
}

func (s *stubInvalidator) InvalidatePrincipal(ctx context.Context, usuarioID uuid.UUID) {
	s.ids = append(s.ids, usuarioID)
}

func (s *stubInvalidator) invalidated(id uuid.UUID) bool {
	for _, got := range s.ids {
		if got == id {
			return true
		}
	}
	return false
}

func TestListDepartamentosVisibleToUser(t *testing.T) {
	sucursal := uuid.New()
	outra := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "Operações"}
	repoStub.departamentos[dept.ID] = dept
	alheio := repo.Departamento{ID: uuid.New(), SucursalID: outra, Nome: "Operações Norte"}
	repoStub.departamentos[alheio.ID] = alheio

	// USER sem departamento enxerga o diretório da própria sucursal
	user := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal}
	deps, err := svc.ListDepartamentos(context.Background(), user)
	if err != nil {
		t.Fatalf("ListDepartamentos: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != dept.ID {
		t.Fatalf("USER deveria enxergar o departamento da sucursal, veio %d", len(deps))
	}

	if _, err := svc.GetDepartamento(context.Background(), user, dept.ID); err != nil {
		t.Fatalf("GetDepartamento: %v", err)
	}
}

func TestAssignSupervisorTransfers(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubDeptRepo()
	inv := &stubInvalidator{}
	svc := NewDepartamentoService(repoStub, inv)

	outroDept := uuid.New()
	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "Operações"}
	repoStub.departamentos[dept.ID] = dept

	candidato := repo.Usuario{
		ID:             uuid.New(),
		Nome:           "Paulo",
		Papel:          string(authz.RoleSupervisor),
		SucursalID:     sucursal,
		DepartamentoID: &outroDept,
		Ativo:          true,
	}
	repoStub.usuarios[candidato.ID] = candidato

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	if err := svc.AssignSupervisor(context.Background(), admin, dept.ID, &candidato.ID); err != nil {
		t.Fatalf("AssignSupervisor: %v", err)
	}

	depois := repoStub.usuarios[candidato.ID]
	if depois.DepartamentoID == nil || *depois.DepartamentoID != dept.ID {
		t.Fatal("candidato deveria ser transferido para o departamento")
	}
	got := repoStub.departamentos[dept.ID]
	if got.SupervisorID == nil || *got.SupervisorID != candidato.ID {
		t.Fatal("departamento deveria registrar o novo supervisor")
	}
	if !inv.invalidated(candidato.ID) {
		t.Fatal("principal do candidato deveria ser invalidado")
	}
}

func TestAssignSupervisorRejectsBelowSupervisor(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "Expedição"}
	repoStub.departamentos[dept.ID] = dept

	candidato := repo.Usuario{ID: uuid.New(), Papel: string(authz.RoleUser), SucursalID: sucursal, Ativo: true}
	repoStub.usuarios[candidato.ID] = candidato

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	err := svc.AssignSupervisor(context.Background(), admin, dept.ID, &candidato.ID)

	// designar não promove: o candidato precisa já ser SUPERVISOR
	var policyErr *PolicyDeniedError
	if !errors.As(err, &policyErr) || policyErr.Reason != authz.ReasonInsufficientRole {
		t.Fatalf("esperava INSUFFICIENT_ROLE, veio %v", err)
	}
	depois := repoStub.usuarios[candidato.ID]
	if depois.Papel != string(authz.RoleUser) {
		t.Fatalf("papel=%s, candidato não deveria ser promovido", depois.Papel)
	}
	if depois.DepartamentoID != nil {
		t.Fatal("candidato recusado não deveria ser transferido")
	}
	if repoStub.departamentos[dept.ID].SupervisorID != nil {
		t.Fatal("departamento não deveria registrar candidato recusado")
	}
}

func TestAssignSupervisorKeepsHigherRole(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "Comercial"}
	repoStub.departamentos[dept.ID] = dept

	candidato := repo.Usuario{
		ID:         uuid.New(),
		Papel:      string(authz.RoleAdmin),
		SucursalID: sucursal,
		Ativo:      true,
	}
	repoStub.usuarios[candidato.ID] = candidato

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	if err := svc.AssignSupervisor(context.Background(), admin, dept.ID, &candidato.ID); err != nil {
		t.Fatalf("AssignSupervisor: %v", err)
	}

	if repoStub.usuarios[candidato.ID].Papel != string(authz.RoleAdmin) {
		t.Fatal("papel acima de SUPERVISOR não deveria ser rebaixado")
	}
}

func TestAssignSupervisorRejectsCrossBranch(t *testing.T) {
	sucursal := uuid.New()
	outra := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "Financeiro"}
	repoStub.departamentos[dept.ID] = dept

	candidato := repo.Usuario{ID: uuid.New(), Papel: string(authz.RoleUser), SucursalID: outra, Ativo: true}
	repoStub.usuarios[candidato.ID] = candidato

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	err := svc.AssignSupervisor(context.Background(), admin, dept.ID, &candidato.ID)

	var policyErr *PolicyDeniedError
	if !errors.As(err, &policyErr) || policyErr.Reason != authz.ReasonCrossBranch {
		t.Fatalf("esperava CROSS_BRANCH, veio %v", err)
	}
	if repoStub.departamentos[dept.ID].SupervisorID != nil {
		t.Fatal("departamento não deveria ganhar supervisor de outra sucursal")
	}
}

func TestAssignSupervisorRejectsInactive(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "RH"}
	repoStub.departamentos[dept.ID] = dept

	candidato := repo.Usuario{ID: uuid.New(), Papel: string(authz.RoleUser), SucursalID: sucursal, Ativo: false}
	repoStub.usuarios[candidato.ID] = candidato

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	if err := svc.AssignSupervisor(context.Background(), admin, dept.ID, &candidato.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("candidato inativo deveria falhar validação, veio %v", err)
	}
}

func TestAssignSupervisorClearsWhenNil(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	atual := uuid.New()
	dept := repo.Departamento{ID: uuid.New(), SucursalID: sucursal, Nome: "TI", SupervisorID: &atual}
	repoStub.departamentos[dept.ID] = dept

	admin := authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, SucursalID: sucursal}
	if err := svc.AssignSupervisor(context.Background(), admin, dept.ID, nil); err != nil {
		t.Fatalf("AssignSupervisor: %v", err)
	}
	if repoStub.departamentos[dept.ID].SupervisorID != nil {
		t.Fatal("designação nula deveria limpar o cargo")
	}
}

func TestAssignSupervisorRequiresAdmin(t *testing.T) {
	sucursal := uuid.New()
	deptID := uuid.New()
	repoStub := newStubDeptRepo()
	svc := NewDepartamentoService(repoStub, &stubInvalidator{})

	dept := repo.Departamento{ID: deptID, SucursalID: sucursal, Nome: "Logística"}
	repoStub.departamentos[dept.ID] = dept

	sup := authz.Principal{ID: uuid.New(), Role: authz.RoleSupervisor, SucursalID: sucursal, DepartamentoID: &deptID}
	err := svc.AssignSupervisor(context.Background(), sup, dept.ID, nil)

	var policyErr *PolicyDeniedError
	if !errors.As(err, &policyErr) || policyErr.Reason != authz.ReasonInsufficientRole {
		t.Fatalf("esperava INSUFFICIENT_ROLE, veio %v", err)
	}
}
