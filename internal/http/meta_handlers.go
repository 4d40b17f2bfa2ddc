package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	httpmiddleware "github.com/gestaomeridional/plataforma/internal/http/middleware"
	"github.com/gestaomeridional/plataforma/internal/meta"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
)

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão inválida", nil)
	}
	return p, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}

type metaView struct {
	ID                        string   `json:"id"`
	SucursalID                string   `json:"sucursal_id"`
	DepartamentoID            *string  `json:"departamento_id,omitempty"`
	CriadoPorID               string   `json:"criado_por_id"`
	ResponsaveisIDs           []string `json:"responsaveis_ids"`
	Titulo                    string   `json:"titulo"`
	Descricao                 string   `json:"descricao"`
	Status                    string   `json:"status"`
	Progresso                 int      `json:"progresso"`
	ExigeRelatorioConclusao   bool     `json:"exige_relatorio_conclusao"`
	RelatorioConclusaoEnviado bool     `json:"relatorio_conclusao_enviado"`
}

func toMetaView(m repo.Meta) metaView {
	v := metaView{
		ID:                        m.ID.String(),
		SucursalID:                m.SucursalID.String(),
		CriadoPorID:               m.CriadoPorID.String(),
		ResponsaveisIDs:           uuidStrings(m.ResponsaveisIDs),
		Titulo:                    m.Titulo,
		Descricao:                 m.Descricao,
		Status:                    m.Status,
		Progresso:                 m.Progresso,
		ExigeRelatorioConclusao:   m.ExigeRelatorioConclusao,
		RelatorioConclusaoEnviado: m.RelatorioConclusaoEnviado,
	}
	if m.DepartamentoID != nil {
		dep := m.DepartamentoID.String()
		v.DepartamentoID = &dep
	}
	return v
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// ListMetas devolve as metas visíveis ao principal.
func (h *Handler) ListMetas(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	metas, err := h.metas.ListMetas(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]metaView, 0, len(metas))
	for _, m := range metas {
		views = append(views, toMetaView(m))
	}
	WriteJSON(w, http.StatusOK, views)
}

// CreateMeta cria meta nova.
func (h *Handler) CreateMeta(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var payload struct {
		Titulo                  string   `json:"titulo"`
		Descricao               string   `json:"descricao"`
		DepartamentoID          *string  `json:"departamento_id"`
		ResponsaveisIDs         []string `json:"responsaveis_ids"`
		ExigeRelatorioConclusao bool     `json:"exige_relatorio_conclusao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	input := service.CreateMetaInput{
		Titulo:                  payload.Titulo,
		Descricao:               payload.Descricao,
		ExigeRelatorioConclusao: payload.ExigeRelatorioConclusao,
	}
	if payload.DepartamentoID != nil {
		dep, err := uuid.Parse(*payload.DepartamentoID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "departamento_id inválido", nil)
			return
		}
		input.DepartamentoID = &dep
	}
	responsaveis, err := parseUUIDs(payload.ResponsaveisIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "responsaveis_ids inválidos", nil)
		return
	}
	input.ResponsaveisIDs = responsaveis

	m, err := h.metas.CreateMeta(r.Context(), p, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toMetaView(m))
}

// GetMeta devolve uma meta.
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.metas.GetMeta(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toMetaView(m))
}

// DeleteMeta remove a meta.
func (h *Handler) DeleteMeta(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.metas.DeleteMeta(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UpdateMetaProgresso grava progresso novo.
func (h *Handler) UpdateMetaProgresso(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Progresso int `json:"progresso"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	m, err := h.metas.UpdateProgresso(r.Context(), p, id, payload.Progresso)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toMetaView(m))
}

// TransitionMeta aplica mudança de status.
func (h *Handler) TransitionMeta(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	target := meta.Status(payload.Status)
	if !meta.ValidStatus(target) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "status desconhecido", nil)
		return
	}

	m, err := h.metas.Transition(r.Context(), p, id, target)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toMetaView(m))
}

// UpdateMetaResponsaveis substitui a lista de responsáveis.
func (h *Handler) UpdateMetaResponsaveis(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		ResponsaveisIDs []string `json:"responsaveis_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	responsaveis, err := parseUUIDs(payload.ResponsaveisIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "responsaveis_ids inválidos", nil)
		return
	}

	m, err := h.metas.UpdateResponsaveis(r.Context(), p, id, responsaveis)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toMetaView(m))
}

type relatorioView struct {
	ID               string   `json:"id"`
	MetaID           string   `json:"meta_id"`
	EnviadoPorID     string   `json:"enviado_por_id"`
	Versao           int      `json:"versao"`
	Conclusao        bool     `json:"conclusao"`
	DestinatariosIDs []string `json:"destinatarios_ids"`
	Conteudo         string   `json:"conteudo"`
}

func toRelatorioView(rel repo.RelatorioMeta) relatorioView {
	return relatorioView{
		ID:               rel.ID.String(),
		MetaID:           rel.MetaID.String(),
		EnviadoPorID:     rel.EnviadoPorID.String(),
		Versao:           rel.Versao,
		Conclusao:        rel.Conclusao,
		DestinatariosIDs: uuidStrings(rel.DestinatariosIDs),
		Conteudo:         rel.Conteudo,
	}
}

// ListRelatorios devolve os relatórios da meta.
func (h *Handler) ListRelatorios(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	relatorios, err := h.metas.ListRelatorios(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]relatorioView, 0, len(relatorios))
	for _, rel := range relatorios {
		views = append(views, toRelatorioView(rel))
	}
	WriteJSON(w, http.StatusOK, views)
}

// SubmitRelatorio registra relatório novo para a meta.
func (h *Handler) SubmitRelatorio(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Conteudo         string   `json:"conteudo"`
		Conclusao        bool     `json:"conclusao"`
		DestinatariosIDs []string `json:"destinatarios_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	destinatarios, err := parseUUIDs(payload.DestinatariosIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "destinatarios_ids inválidos", nil)
		return
	}

	rel, err := h.metas.SubmitRelatorio(r.Context(), p, id, service.SubmitRelatorioInput{
		Conteudo:         payload.Conteudo,
		Conclusao:        payload.Conclusao,
		DestinatariosIDs: destinatarios,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toRelatorioView(rel))
}
