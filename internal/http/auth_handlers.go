package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gestaomeridional/plataforma/internal/authz"
	httpmiddleware "github.com/gestaomeridional/plataforma/internal/http/middleware"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
)

const refreshCookieName = "refresh_token"

// Login realiza autenticação de colaboradores.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh troca o refresh token do cookie por sessão nova.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := refreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), raw)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga a sessão atual e limpa o cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, err := refreshFromRequest(r); err == nil {
		if err := h.authService.Logout(r.Context(), raw); err != nil {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao encerrar sessão", nil)
			return
		}
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me devolve o perfil vigente e os requisitos de papel por operação,
// para a UI esconder ações sem duplicar regra.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject := httpmiddleware.GetSubject(r.Context())

	profile, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":       profile,
		"permissoes": requiredRoles(),
	})
}

func requiredRoles() map[string]string {
	out := make(map[string]string)
	pairs := []struct {
		kind   authz.ResourceKind
		action authz.Action
	}{
		{authz.KindMeta, authz.ActionCreate},
		{authz.KindMeta, authz.ActionUpdate},
		{authz.KindMeta, authz.ActionDelete},
		{authz.KindUsuario, authz.ActionUpdate},
		{authz.KindUsuario, authz.ActionDelete},
		{authz.KindDepartamento, authz.ActionCreate},
		{authz.KindDepartamento, authz.ActionAssignSupervisor},
		{authz.KindSucursal, authz.ActionManage},
	}
	for _, p := range pairs {
		if role, ok := authz.RequiredRole(p.kind, p.action); ok {
			out[string(p.kind)+"."+string(p.action)] = string(role)
		}
	}
	return out
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "credenciais inválidas", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "conta desativada", nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão expirada", nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusUnauthorized, "AUTH", "credenciais inválidas", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user":         result.Profile,
	})
}

func refreshFromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		return "", errors.New("refresh ausente")
	}
	return c.Value, nil
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
