package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/auth"
	"github.com/gestaomeridional/plataforma/internal/authz"
)

type contextKey string

const (
	ContextKeySubject   contextKey = "subject"
	ContextKeyPrincipal contextKey = "principal"
)

// Auth valida o JWT de acesso e injeta o principal vigente no contexto.
// As claims só identificam o sujeito; papel e vínculos vêm sempre do
// loader, para que mudanças administrativas valham de imediato.
func Auth(jwtManager *auth.JWTManager, loader *PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			principal, err := loader.Load(r.Context(), subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão inválida")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, subject)
			ctx = context.WithValue(ctx, ContextKeyPrincipal, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) uuid.UUID {
	val, _ := ctx.Value(ContextKeySubject).(uuid.UUID)
	return val
}

// GetPrincipal recupera o principal autenticado do contexto.
func GetPrincipal(ctx context.Context) (authz.Principal, bool) {
	val, ok := ctx.Value(ContextKeyPrincipal).(authz.Principal)
	return val, ok
}

// RequireRole exige posto mínimo para o grupo de rotas.
func RequireRole(minRole authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão inválida")
				return
			}
			if !authz.Satisfies(principal.Role, minRole) {
				writeError(w, http.StatusForbidden, "INSUFFICIENT_ROLE", "papel insuficiente para esta operação")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
