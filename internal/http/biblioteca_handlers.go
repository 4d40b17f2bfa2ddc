package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
)

type arquivoView struct {
	ID             string  `json:"id"`
	Nome           string  `json:"nome"`
	ContentType    string  `json:"content_type"`
	Tamanho        int64   `json:"tamanho"`
	URL            *string `json:"url,omitempty"`
	DonoID         string  `json:"dono_id"`
	DepartamentoID *string `json:"departamento_id,omitempty"`
}

func toArquivoView(a repo.Arquivo) arquivoView {
	v := arquivoView{
		ID:          a.ID.String(),
		Nome:        a.Nome,
		ContentType: a.ContentType,
		Tamanho:     a.Tamanho,
		URL:         a.URL,
		DonoID:      a.DonoID.String(),
	}
	if a.DepartamentoID != nil {
		dep := a.DepartamentoID.String()
		v.DepartamentoID = &dep
	}
	return v
}

// ListArquivos devolve a biblioteca visível ao principal.
func (h *Handler) ListArquivos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	arquivos, err := h.biblioteca.ListArquivos(r.Context(), p)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	views := make([]arquivoView, 0, len(arquivos))
	for _, a := range arquivos {
		views = append(views, toArquivoView(a))
	}
	WriteJSON(w, http.StatusOK, views)
}

// UploadArquivo recebe multipart e envia o blob para o bucket.
func (h *Handler) UploadArquivo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(26 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo arquivo obrigatório", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao ler arquivo", nil)
		return
	}

	input := service.UploadArquivoInput{
		Nome:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	}
	if dep := strings.TrimSpace(r.FormValue("departamento_id")); dep != "" {
		depID, err := uuid.Parse(dep)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "departamento_id inválido", nil)
			return
		}
		input.DepartamentoID = &depID
	}

	a, err := h.biblioteca.UploadArquivo(r.Context(), p, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toArquivoView(a))
}

// GetArquivo devolve um item da biblioteca.
func (h *Handler) GetArquivo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.biblioteca.GetArquivo(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toArquivoView(a))
}

// DeleteArquivo remove o registro da biblioteca.
func (h *Handler) DeleteArquivo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.biblioteca.DeleteArquivo(r.Context(), p, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
