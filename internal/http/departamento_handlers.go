package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/repo"
)

type departamentoView struct {
	ID           string  `json:"id"`
	SucursalID   string  `json:"sucursal_id"`
	Nome         string  `json:"nome"`
	SupervisorID *string `json:"supervisor_id,omitempty"`
}

func toDepartamentoView(d repo.Departamento) departamentoView {
	v := departamentoView{
		ID:         d.ID.String(),
		SucursalID: d.SucursalID.String(),
		Nome:       d.Nome,
	}
	if d.SupervisorID != nil {
		sup := d.SupervisorID.String()
		v.SupervisorID = &sup
	}
	return v
}

// ListDepartamentos devolve os departamentos visíveis ao principal.
func (h *Handler) ListDepartamentos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	deps, err := h.departamentos.ListDepartamentos(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]departamentoView, 0, len(deps))
	for _, d := range deps {
		views = append(views, toDepartamentoView(d))
	}
	WriteJSON(w, http.StatusOK, views)
}

// CreateDepartamento cria departamento novo.
func (h *Handler) CreateDepartamento(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var payload struct {
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	d, err := h.departamentos.CreateDepartamento(r.Context(), p, payload.Nome)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toDepartamentoView(d))
}

// GetDepartamento devolve um departamento.
func (h *Handler) GetDepartamento(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	d, err := h.departamentos.GetDepartamento(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDepartamentoView(d))
}

// RenameDepartamento altera o nome.
func (h *Handler) RenameDepartamento(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.departamentos.RenameDepartamento(r.Context(), p, id, payload.Nome); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AssignSupervisor designa (ou remove) o supervisor do departamento.
func (h *Handler) AssignSupervisor(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		SupervisorID *string `json:"supervisor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var supervisorID *uuid.UUID
	if payload.SupervisorID != nil && strings.TrimSpace(*payload.SupervisorID) != "" {
		sup, err := uuid.Parse(*payload.SupervisorID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "supervisor_id inválido", nil)
			return
		}
		supervisorID = &sup
	}

	if err := h.departamentos.AssignSupervisor(r.Context(), p, id, supervisorID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteDepartamento remove o departamento.
func (h *Handler) DeleteDepartamento(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.departamentos.DeleteDepartamento(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
