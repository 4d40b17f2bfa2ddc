package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaomeridional/plataforma/internal/auth"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

const audiencePlataforma = "plataforma"

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra autenticação e sessões da plataforma.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Papel         string
	Profile       *Profile
	RefreshHash   string
	RefreshExpiry time.Time
}

// Profile descreve o colaborador autenticado.
type Profile struct {
	ID             string  `json:"id"`
	Nome           string  `json:"nome"`
	Email          string  `json:"email"`
	Papel          string  `json:"papel"`
	SucursalID     string  `json:"sucursal_id"`
	DepartamentoID *string `json:"departamento_id,omitempty"`
}

func buildProfile(u repo.Usuario) *Profile {
	p := &Profile{
		ID:         u.ID.String(),
		Nome:       u.Nome,
		Email:      u.Email,
		Papel:      u.Papel,
		SucursalID: u.SucursalID.String(),
	}
	if u.DepartamentoID != nil {
		dep := u.DepartamentoID.String()
		p.DepartamentoID = &dep
	}
	return p
}

// Login autentica colaborador por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), audiencePlataforma, user.Papel, user.SucursalID.String())
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       user.ID,
		Papel:         user.Papel,
		Profile:       buildProfile(user),
		RefreshHash:   refreshHash,
		RefreshExpiry: expires,
	}, nil
}

// Refresh troca refresh token válido por sessão nova. O token anterior é
// revogado no banco e no Redis; rotação é sempre completa.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != audiencePlataforma {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(audiencePlataforma, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	redisKey := auth.RefreshRedisKey(audiencePlataforma, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe devolve o perfil vigente do sujeito autenticado.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetUsuarioByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}
	return buildProfile(user), nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		Audience:  audiencePlataforma,
		TokenHash: hash,
		Expiracao: expires,
		CriadoEm:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, audiencePlataforma, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(audiencePlataforma, hash), "active", time.Until(expires)).Err()
}
