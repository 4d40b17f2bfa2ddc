package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/notify"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/util"
)

type usuarioRepository interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListUsuariosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]repo.Usuario, error)
	CreateUsuario(ctx context.Context, u repo.Usuario) (repo.Usuario, error)
	UpdateUsuarioPapel(ctx context.Context, id uuid.UUID, papel string) error
	SetUsuarioDepartamento(ctx context.Context, id uuid.UUID, departamentoID *uuid.UUID) error
	DeactivateUsuario(ctx context.Context, id uuid.UUID) error
	DeleteUsuario(ctx context.Context, id uuid.UUID) error
	InsertSolicitacao(ctx context.Context, s repo.SolicitacaoAcesso) (repo.SolicitacaoAcesso, error)
	GetSolicitacaoByID(ctx context.Context, id uuid.UUID) (repo.SolicitacaoAcesso, error)
	ListSolicitacoesPendentes(ctx context.Context, sucursalID uuid.UUID) ([]repo.SolicitacaoAcesso, error)
	UpdateSolicitacaoStatus(ctx context.Context, id uuid.UUID, status string) error
}

// principalInvalidator descarta o principal em cache quando papel ou
// departamento mudam, para a mudança valer na requisição seguinte.
type principalInvalidator interface {
	InvalidatePrincipal(ctx context.Context, usuarioID uuid.UUID)
}

// UsuarioService cobre gestão de colaboradores e solicitações de acesso.
type UsuarioService struct {
	repo        usuarioRepository
	dispatcher  eventDispatcher
	invalidator principalInvalidator
}

// NewUsuarioService cria o serviço de usuários.
func NewUsuarioService(r usuarioRepository, d eventDispatcher, inv principalInvalidator) *UsuarioService {
	return &UsuarioService{repo: r, dispatcher: d, invalidator: inv}
}

// ListUsuarios enumera usuários visíveis ao principal dentro do escopo.
func (s *UsuarioService) ListUsuarios(ctx context.Context, p authz.Principal) ([]repo.Usuario, error) {
	scope := authz.ResolveScope(p, authz.KindUsuario)

	usuarios, err := s.repo.ListUsuariosBySucursal(ctx, p.SucursalID)
	if err != nil {
		return nil, err
	}

	var visiveis []repo.Usuario
	for _, u := range usuarios {
		if scope.Contains(usuarioResource(u)) {
			visiveis = append(visiveis, u)
		}
	}
	return visiveis, nil
}

// GetUsuario devolve o registro quando o principal pode enxergá-lo.
func (s *UsuarioService) GetUsuario(ctx context.Context, p authz.Principal, id uuid.UUID) (repo.Usuario, error) {
	u, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return repo.Usuario{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, usuarioResource(u)); !dec.Allow {
		return repo.Usuario{}, denied(dec)
	}
	return u, nil
}

// ChangePapel altera o papel de um colaborador.
func (s *UsuarioService) ChangePapel(ctx context.Context, p authz.Principal, id uuid.UUID, papel string) error {
	novo, ok := authz.ParseRole(papel)
	if !ok {
		return fmt.Errorf("%w: papel desconhecido", ErrValidation)
	}

	alvo, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionUpdate, usuarioResource(alvo)); !dec.Allow {
		return denied(dec)
	}

	if err := s.repo.UpdateUsuarioPapel(ctx, id, string(novo)); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ChangeDepartamento muda (ou remove) o vínculo de departamento.
func (s *UsuarioService) ChangeDepartamento(ctx context.Context, p authz.Principal, id uuid.UUID, departamentoID *uuid.UUID) error {
	alvo, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionUpdate, usuarioResource(alvo)); !dec.Allow {
		return denied(dec)
	}

	if err := s.repo.SetUsuarioDepartamento(ctx, id, departamentoID); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Deactivate desliga o colaborador (soft). Registros nunca somem do
// histórico por desligamento.
func (s *UsuarioService) Deactivate(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	alvo, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionUpdate, usuarioResource(alvo)); !dec.Allow {
		return denied(dec)
	}

	if err := s.repo.DeactivateUsuario(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Delete remove definitivamente um colaborador; a tabela de regras exige
// SUPER_ADMIN independentemente do escopo.
func (s *UsuarioService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	alvo, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionDelete, usuarioResource(alvo)); !dec.Allow {
		return denied(dec)
	}

	if err := s.repo.DeleteUsuario(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SolicitarAcessoInput agrupa os campos do pedido público de acesso.
type SolicitarAcessoInput struct {
	Nome           string
	Email          string
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
}

// SolicitarAcesso registra pedido de conta e notifica a cadeia de
// aprovação da sucursal (supervisores do departamento e ADMIN+).
func (s *UsuarioService) SolicitarAcesso(ctx context.Context, input SolicitarAcessoInput) (repo.SolicitacaoAcesso, error) {
	if err := util.ValidateEmail(input.Email); err != nil {
		return repo.SolicitacaoAcesso{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if strings.TrimSpace(input.Nome) == "" {
		return repo.SolicitacaoAcesso{}, fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}

	sol, err := s.repo.InsertSolicitacao(ctx, repo.SolicitacaoAcesso{
		ID:             uuid.New(),
		Nome:           input.Nome,
		Email:          input.Email,
		SucursalID:     input.SucursalID,
		DepartamentoID: input.DepartamentoID,
	})
	if err != nil {
		return repo.SolicitacaoAcesso{}, err
	}

	if s.dispatcher != nil {
		ev := notify.Event{
			Type:  notify.EventUserRequest,
			Actor: sol.ID, // solicitante ainda não é principal
			Recurso: authz.Resource{
				Kind:           authz.KindUsuario,
				ID:             sol.ID,
				SucursalID:     sol.SucursalID,
				OwnerID:        sol.ID,
				DepartamentoID: sol.DepartamentoID,
			},
			NomeAtor: sol.Nome,
		}
		go s.dispatcher.Dispatch(context.WithoutCancel(ctx), ev)
	}

	return sol, nil
}

// ListSolicitacoes devolve pedidos pendentes para quem pode aprová-los.
func (s *UsuarioService) ListSolicitacoes(ctx context.Context, p authz.Principal) ([]repo.SolicitacaoAcesso, error) {
	if !authz.Satisfies(p.Role, authz.RoleSupervisor) {
		return nil, denied(authz.Decision{Reason: authz.ReasonInsufficientRole})
	}
	return s.repo.ListSolicitacoesPendentes(ctx, p.SucursalID)
}

// AprovarSolicitacaoInput define o desfecho de aprovação.
type AprovarSolicitacaoInput struct {
	SolicitacaoID uuid.UUID
	SenhaHash     string
	Papel         string
}

// AprovarSolicitacao aprova o pedido e cria o colaborador na sucursal do
// próprio pedido. É o momento em que o principal passa a existir.
func (s *UsuarioService) AprovarSolicitacao(ctx context.Context, p authz.Principal, input AprovarSolicitacaoInput) (repo.Usuario, error) {
	sol, err := s.repo.GetSolicitacaoByID(ctx, input.SolicitacaoID)
	if err != nil {
		return repo.Usuario{}, err
	}

	recurso := authz.Resource{
		Kind:           authz.KindUsuario,
		ID:             sol.ID,
		SucursalID:     sol.SucursalID,
		OwnerID:        sol.ID,
		DepartamentoID: sol.DepartamentoID,
		AssigneeIDs:    []uuid.UUID{p.ID},
	}
	if dec := authz.Evaluate(p, authz.ActionApprove, recurso); !dec.Allow {
		return repo.Usuario{}, denied(dec)
	}

	papel, ok := authz.ParseRole(input.Papel)
	if !ok {
		papel = authz.RoleUser
	}

	novo, err := s.repo.CreateUsuario(ctx, repo.Usuario{
		ID:             uuid.New(),
		Nome:           sol.Nome,
		Email:          sol.Email,
		SenhaHash:      input.SenhaHash,
		Papel:          string(papel),
		SucursalID:     sol.SucursalID,
		DepartamentoID: sol.DepartamentoID,
		Ativo:          true,
	})
	if err != nil {
		return repo.Usuario{}, err
	}

	if err := s.repo.UpdateSolicitacaoStatus(ctx, sol.ID, "APROVADA"); err != nil {
		return repo.Usuario{}, err
	}

	return novo, nil
}

func (s *UsuarioService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidatePrincipal(ctx, id)
	}
}
