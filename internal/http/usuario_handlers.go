package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/auth"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
	"github.com/gestaomeridional/plataforma/internal/util"
)

type usuarioView struct {
	ID             string  `json:"id"`
	Nome           string  `json:"nome"`
	Email          string  `json:"email"`
	Papel          string  `json:"papel"`
	SucursalID     string  `json:"sucursal_id"`
	DepartamentoID *string `json:"departamento_id,omitempty"`
	Ativo          bool    `json:"ativo"`
}

func toUsuarioView(u repo.Usuario) usuarioView {
	v := usuarioView{
		ID:         u.ID.String(),
		Nome:       u.Nome,
		Email:      u.Email,
		Papel:      u.Papel,
		SucursalID: u.SucursalID.String(),
		Ativo:      u.Ativo,
	}
	if u.DepartamentoID != nil {
		dep := u.DepartamentoID.String()
		v.DepartamentoID = &dep
	}
	return v
}

// ListUsuarios devolve usuários visíveis ao principal.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	usuarios, err := h.usuarios.ListUsuarios(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]usuarioView, 0, len(usuarios))
	for _, u := range usuarios {
		views = append(views, toUsuarioView(u))
	}
	WriteJSON(w, http.StatusOK, views)
}

// GetUsuario devolve um usuário.
func (h *Handler) GetUsuario(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := h.usuarios.GetUsuario(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUsuarioView(u))
}

// ChangeUsuarioPapel altera o papel de um colaborador.
func (h *Handler) ChangeUsuarioPapel(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Papel string `json:"papel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.usuarios.ChangePapel(r.Context(), p, id, payload.Papel); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ChangeUsuarioDepartamento muda o vínculo de departamento.
func (h *Handler) ChangeUsuarioDepartamento(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		DepartamentoID *string `json:"departamento_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var departamentoID *uuid.UUID
	if payload.DepartamentoID != nil && strings.TrimSpace(*payload.DepartamentoID) != "" {
		dep, err := uuid.Parse(*payload.DepartamentoID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "departamento_id inválido", nil)
			return
		}
		departamentoID = &dep
	}

	if err := h.usuarios.ChangeDepartamento(r.Context(), p, id, departamentoID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeactivateUsuario desliga o colaborador.
func (h *Handler) DeactivateUsuario(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.usuarios.Deactivate(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteUsuario remove definitivamente o colaborador.
func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.usuarios.Delete(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SolicitarAcesso registra pedido público de conta.
func (h *Handler) SolicitarAcesso(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome           string  `json:"nome"`
		Email          string  `json:"email"`
		SucursalID     string  `json:"sucursal_id"`
		DepartamentoID *string `json:"departamento_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	sucursalID, err := uuid.Parse(payload.SucursalID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "sucursal_id inválido", nil)
		return
	}

	input := service.SolicitarAcessoInput{
		Nome:       payload.Nome,
		Email:      payload.Email,
		SucursalID: sucursalID,
	}
	if payload.DepartamentoID != nil && strings.TrimSpace(*payload.DepartamentoID) != "" {
		dep, err := uuid.Parse(*payload.DepartamentoID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "departamento_id inválido", nil)
			return
		}
		input.DepartamentoID = &dep
	}

	sol, err := h.usuarios.SolicitarAcesso(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"id": sol.ID.String()})
}

// ListSolicitacoes devolve pedidos pendentes da sucursal.
func (h *Handler) ListSolicitacoes(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	solicitacoes, err := h.usuarios.ListSolicitacoes(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	type solView struct {
		ID             string  `json:"id"`
		Nome           string  `json:"nome"`
		Email          string  `json:"email"`
		DepartamentoID *string `json:"departamento_id,omitempty"`
	}
	views := make([]solView, 0, len(solicitacoes))
	for _, s := range solicitacoes {
		v := solView{ID: s.ID.String(), Nome: s.Nome, Email: s.Email}
		if s.DepartamentoID != nil {
			dep := s.DepartamentoID.String()
			v.DepartamentoID = &dep
		}
		views = append(views, v)
	}
	WriteJSON(w, http.StatusOK, views)
}

// AprovarSolicitacao aprova o pedido e cria o colaborador.
func (h *Handler) AprovarSolicitacao(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Senha string `json:"senha"`
		Papel string `json:"papel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := util.ValidatePassword(payload.Senha); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	senhaHash, err := auth.Hash(payload.Senha)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao processar senha", nil)
		return
	}

	novo, err := h.usuarios.AprovarSolicitacao(r.Context(), p, service.AprovarSolicitacaoInput{
		SolicitacaoID: id,
		SenhaHash:     senhaHash,
		Papel:         payload.Papel,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toUsuarioView(novo))
}
