package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimiter distribui um token bucket por chave: IP para tráfego
// anônimo, subject para tráfego autenticado. Entradas ociosas são
// varridas periodicamente para o mapa não crescer sem limite.
type RateLimiter struct {
	limite rate.Limit
	burst  int

	mu      sync.Mutex
	buckets map[string]*bucketEntrada
	ttl     time.Duration
	varrido time.Time
}

type bucketEntrada struct {
	limiter *rate.Limiter
	visto   time.Time
}

// NewRateLimiter cria o limitador com taxa sustentada e pico dados.
func NewRateLimiter(porSegundo float64, burst int) *RateLimiter {
	return &RateLimiter{
		limite:  rate.Limit(porSegundo),
		burst:   burst,
		buckets: make(map[string]*bucketEntrada),
		ttl:     10 * time.Minute,
		varrido: time.Now(),
	}
}

// Allow consome um token do bucket da chave.
func (rl *RateLimiter) Allow(chave string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	agora := time.Now()
	if agora.Sub(rl.varrido) > rl.ttl {
		for k, e := range rl.buckets {
			if agora.Sub(e.visto) > rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.varrido = agora
	}

	e, ok := rl.buckets[chave]
	if !ok {
		e = &bucketEntrada{limiter: rate.NewLimiter(rl.limite, rl.burst)}
		rl.buckets[chave] = e
	}
	e.visto = agora
	return e.limiter.Allow()
}

// limitar aplica o limitador com a chave extraída da requisição;
// requisição sem chave passa direto.
func limitar(rl *RateLimiter, chave func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := chave(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.Allow(k) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimit limita o tráfego anônimo por endereço de origem.
func IPRateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return limitar(rl, clientIP)
}

// UserRateLimit limita o tráfego autenticado por subject.
func UserRateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return limitar(rl, func(r *http.Request) string {
		subject := GetSubject(r.Context())
		if subject == uuid.Nil {
			return ""
		}
		return subject.String()
	})
}

// clientIP resolve o endereço do cliente atrás do proxy reverso.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if encadeado := r.Header.Get("X-Forwarded-For"); encadeado != "" {
		primeiro, _, _ := strings.Cut(encadeado, ",")
		return strings.TrimSpace(primeiro)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
