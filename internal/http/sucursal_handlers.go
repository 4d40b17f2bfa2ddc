package http

import (
	"encoding/json"
	"net/http"

	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
)

type sucursalView struct {
	ID       string  `json:"id"`
	Nome     string  `json:"nome"`
	Slug     string  `json:"slug"`
	Endereco *string `json:"endereco,omitempty"`
	Ativa    bool    `json:"ativa"`
}

func toSucursalView(s repo.Sucursal) sucursalView {
	return sucursalView{
		ID:       s.ID.String(),
		Nome:     s.Nome,
		Slug:     s.Slug,
		Endereco: s.Endereco,
		Ativa:    s.Ativa,
	}
}

// GetSucursal devolve a sucursal do principal.
func (h *Handler) GetSucursal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s, err := h.sucursais.GetSucursal(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSucursalView(s))
}

// ListSucursais devolve todas as filiais do deployment.
func (h *Handler) ListSucursais(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	sucursais, err := h.sucursais.ListSucursais(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]sucursalView, 0, len(sucursais))
	for _, s := range sucursais {
		views = append(views, toSucursalView(s))
	}
	WriteJSON(w, http.StatusOK, views)
}

// CreateSucursal provisiona filial nova.
func (h *Handler) CreateSucursal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var payload struct {
		Nome     string  `json:"nome"`
		Slug     string  `json:"slug"`
		Endereco *string `json:"endereco"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	s, err := h.sucursais.CreateSucursal(r.Context(), p, service.CreateSucursalInput{
		Nome:     payload.Nome,
		Slug:     payload.Slug,
		Endereco: payload.Endereco,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toSucursalView(s))
}

// UpdateSucursal altera cadastro e situação da filial.
func (h *Handler) UpdateSucursal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Nome     string  `json:"nome"`
		Endereco *string `json:"endereco"`
		Ativa    bool    `json:"ativa"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.sucursais.UpdateSucursal(r.Context(), p, id, payload.Nome, payload.Endereco, payload.Ativa); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
