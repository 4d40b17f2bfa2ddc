package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

type sucursalRepository interface {
	GetSucursalByID(ctx context.Context, id uuid.UUID) (repo.Sucursal, error)
	ListSucursais(ctx context.Context) ([]repo.Sucursal, error)
	CreateSucursal(ctx context.Context, s repo.Sucursal) (repo.Sucursal, error)
	UpdateSucursal(ctx context.Context, id uuid.UUID, nome string, endereco *string, ativa bool) error
}

// SucursalService administra o cadastro de filiais. Só SUPER_ADMIN gere
// sucursais; DEVELOPER fica de fora de propósito, apesar do posto alto.
type SucursalService struct {
	repo sucursalRepository
}

// NewSucursalService cria o serviço de sucursais.
func NewSucursalService(r sucursalRepository) *SucursalService {
	return &SucursalService{repo: r}
}

// GetSucursal devolve a própria sucursal do principal.
func (s *SucursalService) GetSucursal(ctx context.Context, p authz.Principal, id uuid.UUID) (repo.Sucursal, error) {
	suc, err := s.repo.GetSucursalByID(ctx, id)
	if err != nil {
		return repo.Sucursal{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, sucursalResource(suc)); !dec.Allow {
		return repo.Sucursal{}, denied(dec)
	}
	return suc, nil
}

// ListSucursais enumera as filiais do deployment para quem as administra.
func (s *SucursalService) ListSucursais(ctx context.Context, p authz.Principal) ([]repo.Sucursal, error) {
	if p.Role != authz.RoleSuperAdmin {
		return nil, denied(authz.Decision{Reason: authz.ReasonInsufficientRole})
	}
	return s.repo.ListSucursais(ctx)
}

// CreateSucursalInput agrupa os campos de provisionamento de filial.
type CreateSucursalInput struct {
	Nome     string
	Slug     string
	Endereco *string
}

// CreateSucursal provisiona filial nova. Gestão de sucursais opera no
// nível do deployment, fora da checagem de sucursal do motor, por isso o
// requisito de papel literal é aplicado aqui.
func (s *SucursalService) CreateSucursal(ctx context.Context, p authz.Principal, input CreateSucursalInput) (repo.Sucursal, error) {
	if p.Role != authz.RoleSuperAdmin {
		return repo.Sucursal{}, denied(authz.Decision{Reason: authz.ReasonInsufficientRole})
	}
	if strings.TrimSpace(input.Nome) == "" || strings.TrimSpace(input.Slug) == "" {
		return repo.Sucursal{}, fmt.Errorf("%w: nome e slug obrigatórios", ErrValidation)
	}

	nova := repo.Sucursal{
		ID:       uuid.New(),
		Nome:     input.Nome,
		Slug:     input.Slug,
		Endereco: input.Endereco,
		Ativa:    true,
	}

	return s.repo.CreateSucursal(ctx, nova)
}

// UpdateSucursal altera cadastro e situação da filial.
func (s *SucursalService) UpdateSucursal(ctx context.Context, p authz.Principal, id uuid.UUID, nome string, endereco *string, ativa bool) error {
	if p.Role != authz.RoleSuperAdmin {
		return denied(authz.Decision{Reason: authz.ReasonInsufficientRole})
	}
	if strings.TrimSpace(nome) == "" {
		return fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}

	if _, err := s.repo.GetSucursalByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateSucursal(ctx, id, nome, endereco, ativa)
}
