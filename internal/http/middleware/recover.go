package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Recover converte panic em 500 sanitizado; o detalhe vai para o log,
// nunca para o cliente.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recuperado")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
