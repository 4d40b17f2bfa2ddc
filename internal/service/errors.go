package service

import (
	"errors"

	"github.com/gestaomeridional/plataforma/internal/authz"
)

var (
	// ErrValidation indica entrada inválida do cliente.
	ErrValidation = errors.New("dados inválidos")
	// ErrConflito indica corrida perdida em check-then-act (snapshot mudou
	// entre a avaliação e a aplicação).
	ErrConflito = errors.New("registro alterado por outra operação, tente novamente")
)

// PolicyDeniedError transporta uma negação de política até a borda HTTP
// sem perder o código de razão. Negações são resultado esperado, nunca
// pânico.
type PolicyDeniedError struct {
	Reason authz.Reason
}

func (e *PolicyDeniedError) Error() string {
	return "acesso negado: " + string(e.Reason)
}

func denied(d authz.Decision) error {
	return &PolicyDeniedError{Reason: d.Reason}
}
