package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithSubject(subject uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/metas", nil)
	ctx := context.WithValue(req.Context(), ContextKeySubject, subject)
	return req.WithContext(ctx)
}

func TestUserRateLimitKeysBySubject(t *testing.T) {
	// taxa zero com pico 1: cada chave tem exatamente uma requisição
	handler := UserRateLimit(NewRateLimiter(0, 1))(okHandler())

	alice := uuid.New()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithSubject(alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("primeira requisição: status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithSubject(alice))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("segunda requisição do mesmo subject: status=%d, esperava 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("resposta 429 deveria indicar Retry-After")
	}

	// outro subject tem bucket próprio
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithSubject(uuid.New()))
	if rec.Code != http.StatusOK {
		t.Fatalf("subject distinto: status=%d", rec.Code)
	}
}

func TestUserRateLimitSkipsAnonymous(t *testing.T) {
	handler := UserRateLimit(NewRateLimiter(0, 1))(okHandler())

	// sem subject no contexto não há chave; o limitador não se aplica
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metas", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("requisição %d sem subject: status=%d", i, rec.Code)
		}
	}
}

func TestIPRateLimitUsesForwardedAddress(t *testing.T) {
	handler := IPRateLimit(NewRateLimiter(0, 1))(okHandler())

	pedir := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := pedir("203.0.113.7"); got != http.StatusOK {
		t.Fatalf("primeira requisição: status=%d", got)
	}
	if got := pedir("203.0.113.7"); got != http.StatusTooManyRequests {
		t.Fatalf("mesmo IP: status=%d, esperava 429", got)
	}
	if got := pedir("203.0.113.8"); got != http.StatusOK {
		t.Fatalf("IP distinto: status=%d", got)
	}
}
