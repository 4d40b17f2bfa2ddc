package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// mensagens por código de negação; o código em si é estável para a UI.
var denialMessages = map[authz.Reason]string{
	authz.ReasonCrossBranch:              "recurso pertence a outra sucursal",
	authz.ReasonOutOfScope:               "recurso fora do seu escopo de acesso",
	authz.ReasonInsufficientRole:         "papel insuficiente para esta operação",
	authz.ReasonCompletionReportRequired: "envie o relatório de conclusão antes de concluir a meta",
	authz.ReasonInvalidTransition:        "transição de status inválida",
}

// WriteServiceError traduz erros da camada de serviço para o envelope
// HTTP. Negações de política viram 403 com o código de razão; conflito
// de concorrência vira 409 e o cliente reavalia com estado fresco.
func WriteServiceError(w http.ResponseWriter, err error) {
	var policyErr *service.PolicyDeniedError
	switch {
	case errors.As(err, &policyErr):
		msg, ok := denialMessages[policyErr.Reason]
		if !ok {
			msg = "acesso negado"
		}
		WriteError(w, http.StatusForbidden, string(policyErr.Reason), msg, nil)
	case errors.Is(err, service.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrConflito):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
