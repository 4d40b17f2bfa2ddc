package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

// ErrPrincipalInativo indica conta desativada entre a emissão do token e
// a requisição.
var ErrPrincipalInativo = errors.New("principal desativado")

const principalCacheTTL = 5 * time.Minute

type principalCacheEntry struct {
	Papel          string     `json:"papel"`
	SucursalID     uuid.UUID  `json:"sucursal_id"`
	DepartamentoID *uuid.UUID `json:"departamento_id,omitempty"`
	Ativo          bool       `json:"ativo"`
}

type usuarioGetter interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
}

// PrincipalLoader monta o principal a partir do registro vigente do
// usuário, com cache curto em Redis. A invalidação explícita cobre as
// mudanças administrativas; o TTL cobre o resto.
type PrincipalLoader struct {
	repo  usuarioGetter
	redis *redis.Client
}

// NewPrincipalLoader cria o loader; redis é opcional.
func NewPrincipalLoader(r usuarioGetter, redisClient *redis.Client) *PrincipalLoader {
	return &PrincipalLoader{repo: r, redis: redisClient}
}

func principalCacheKey(id uuid.UUID) string {
	return "principal:" + id.String()
}

// Load devolve o principal vigente do sujeito.
func (l *PrincipalLoader) Load(ctx context.Context, usuarioID uuid.UUID) (authz.Principal, error) {
	if entry, ok := l.fromCache(ctx, usuarioID); ok {
		if !entry.Ativo {
			return authz.Principal{}, ErrPrincipalInativo
		}
		return l.build(usuarioID, entry)
	}

	u, err := l.repo.GetUsuarioByID(ctx, usuarioID)
	if err != nil {
		return authz.Principal{}, err
	}

	entry := principalCacheEntry{
		Papel:          u.Papel,
		SucursalID:     u.SucursalID,
		DepartamentoID: u.DepartamentoID,
		Ativo:          u.Ativo,
	}
	l.toCache(ctx, usuarioID, entry)

	if !u.Ativo {
		return authz.Principal{}, ErrPrincipalInativo
	}
	return l.build(usuarioID, entry)
}

// InvalidatePrincipal descarta o cache do sujeito.
func (l *PrincipalLoader) InvalidatePrincipal(ctx context.Context, usuarioID uuid.UUID) {
	if l.redis == nil {
		return
	}
	if err := l.redis.Del(ctx, principalCacheKey(usuarioID)).Err(); err != nil && err != redis.Nil {
		log.Warn().Err(err).Msg("falha ao invalidar cache de principal")
	}
}

func (l *PrincipalLoader) build(id uuid.UUID, entry principalCacheEntry) (authz.Principal, error) {
	papel, ok := authz.ParseRole(entry.Papel)
	if !ok {
		return authz.Principal{}, errors.New("papel desconhecido no cadastro")
	}
	return authz.Principal{
		ID:             id,
		Role:           papel,
		SucursalID:     entry.SucursalID,
		DepartamentoID: entry.DepartamentoID,
	}, nil
}

func (l *PrincipalLoader) fromCache(ctx context.Context, id uuid.UUID) (principalCacheEntry, bool) {
	if l.redis == nil {
		return principalCacheEntry{}, false
	}
	raw, err := l.redis.Get(ctx, principalCacheKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("falha ao ler cache de principal")
		}
		return principalCacheEntry{}, false
	}
	var entry principalCacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return principalCacheEntry{}, false
	}
	return entry, true
}

func (l *PrincipalLoader) toCache(ctx context.Context, id uuid.UUID, entry principalCacheEntry) {
	if l.redis == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := l.redis.Set(ctx, principalCacheKey(id), raw, principalCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("falha ao gravar cache de principal")
	}
}
