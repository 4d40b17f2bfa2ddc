package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

type departamentoRepository interface {
	GetDepartamentoByID(ctx context.Context, id uuid.UUID) (repo.Departamento, error)
	ListDepartamentosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]repo.Departamento, error)
	CreateDepartamento(ctx context.Context, d repo.Departamento) (repo.Departamento, error)
	UpdateDepartamento(ctx context.Context, id uuid.UUID, nome string) error
	SetDepartamentoSupervisor(ctx context.Context, id uuid.UUID, supervisorID *uuid.UUID) error
	DeleteDepartamento(ctx context.Context, id uuid.UUID) error
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	SetUsuarioDepartamento(ctx context.Context, id uuid.UUID, departamentoID *uuid.UUID) error
}

// DepartamentoService administra departamentos e a designação de
// supervisores.
type DepartamentoService struct {
	repo        departamentoRepository
	invalidator principalInvalidator
}

// NewDepartamentoService cria o serviço de departamentos.
func NewDepartamentoService(r departamentoRepository, inv principalInvalidator) *DepartamentoService {
	return &DepartamentoService{repo: r, invalidator: inv}
}

// ListDepartamentos enumera departamentos da sucursal do principal.
func (s *DepartamentoService) ListDepartamentos(ctx context.Context, p authz.Principal) ([]repo.Departamento, error) {
	deps, err := s.repo.ListDepartamentosBySucursal(ctx, p.SucursalID)
	if err != nil {
		return nil, err
	}

	scope := authz.ResolveScope(p, authz.KindDepartamento)
	var visiveis []repo.Departamento
	for _, d := range deps {
		if scope.Contains(departamentoResource(d)) {
			visiveis = append(visiveis, d)
		}
	}
	return visiveis, nil
}

// GetDepartamento devolve o departamento quando visível ao principal.
func (s *DepartamentoService) GetDepartamento(ctx context.Context, p authz.Principal, id uuid.UUID) (repo.Departamento, error) {
	d, err := s.repo.GetDepartamentoByID(ctx, id)
	if err != nil {
		return repo.Departamento{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, departamentoResource(d)); !dec.Allow {
		return repo.Departamento{}, denied(dec)
	}
	return d, nil
}

// CreateDepartamento cria departamento na sucursal do principal.
func (s *DepartamentoService) CreateDepartamento(ctx context.Context, p authz.Principal, nome string) (repo.Departamento, error) {
	if strings.TrimSpace(nome) == "" {
		return repo.Departamento{}, fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}

	novo := repo.Departamento{
		ID:         uuid.New(),
		SucursalID: p.SucursalID,
		Nome:       strings.TrimSpace(nome),
	}

	if dec := authz.Evaluate(p, authz.ActionCreate, departamentoResource(novo)); !dec.Allow {
		return repo.Departamento{}, denied(dec)
	}

	return s.repo.CreateDepartamento(ctx, novo)
}

// RenameDepartamento altera o nome.
func (s *DepartamentoService) RenameDepartamento(ctx context.Context, p authz.Principal, id uuid.UUID, nome string) error {
	if strings.TrimSpace(nome) == "" {
		return fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}

	d, err := s.repo.GetDepartamentoByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionUpdate, departamentoResource(d)); !dec.Allow {
		return denied(dec)
	}
	return s.repo.UpdateDepartamento(ctx, id, nome)
}

// AssignSupervisor designa o supervisor do departamento. O candidato
// precisa ser da mesma sucursal e já ter posto SUPERVISOR ou acima;
// promover é uma operação à parte. Se estiver noutro departamento ele
// é transferido. Designação nula apenas limpa o cargo.
func (s *DepartamentoService) AssignSupervisor(ctx context.Context, p authz.Principal, departamentoID uuid.UUID, supervisorID *uuid.UUID) error {
	d, err := s.repo.GetDepartamentoByID(ctx, departamentoID)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionAssignSupervisor, departamentoResource(d)); !dec.Allow {
		return denied(dec)
	}

	if supervisorID == nil {
		return s.repo.SetDepartamentoSupervisor(ctx, departamentoID, nil)
	}

	candidato, err := s.repo.GetUsuarioByID(ctx, *supervisorID)
	if err != nil {
		return err
	}
	if candidato.SucursalID != d.SucursalID {
		return denied(authz.Decision{Reason: authz.ReasonCrossBranch})
	}
	if !candidato.Ativo {
		return fmt.Errorf("%w: candidato desativado", ErrValidation)
	}
	papel, _ := authz.ParseRole(candidato.Papel)
	if !authz.Satisfies(papel, authz.RoleSupervisor) {
		return denied(authz.Decision{Reason: authz.ReasonInsufficientRole})
	}

	if candidato.DepartamentoID == nil || *candidato.DepartamentoID != d.ID {
		if err := s.repo.SetUsuarioDepartamento(ctx, candidato.ID, &d.ID); err != nil {
			return err
		}
	}

	if err := s.repo.SetDepartamentoSupervisor(ctx, departamentoID, supervisorID); err != nil {
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidatePrincipal(ctx, candidato.ID)
	}
	return nil
}

// DeleteDepartamento remove o departamento; membros ficam sem vínculo.
func (s *DepartamentoService) DeleteDepartamento(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	d, err := s.repo.GetDepartamentoByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionDelete, departamentoResource(d)); !dec.Allow {
		return denied(dec)
	}
	return s.repo.DeleteDepartamento(ctx, id)
}
