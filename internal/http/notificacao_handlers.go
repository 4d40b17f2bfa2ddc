package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gestaomeridional/plataforma/internal/repo"
)

type notificacaoView struct {
	ID       string    `json:"id"`
	Titulo   string    `json:"titulo"`
	Corpo    string    `json:"corpo"`
	Lida     bool      `json:"lida"`
	CriadoEm time.Time `json:"criado_em"`
}

func toNotificacaoView(n repo.Notificacao) notificacaoView {
	return notificacaoView{
		ID:       n.ID.String(),
		Titulo:   n.Titulo,
		Corpo:    n.Corpo,
		Lida:     n.Lida,
		CriadoEm: n.CriadoEm,
	}
}

// ListNotificacoes devolve a caixa de entrada do principal.
func (h *Handler) ListNotificacoes(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notificacoes, err := h.notificacoes.ListNotificacoes(r.Context(), p, limit)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]notificacaoView, 0, len(notificacoes))
	for _, n := range notificacoes {
		views = append(views, toNotificacaoView(n))
	}
	WriteJSON(w, http.StatusOK, views)
}

// MarcarNotificacaoLida marca a notificação como lida.
func (h *Handler) MarcarNotificacaoLida(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.notificacoes.MarcarLida(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
