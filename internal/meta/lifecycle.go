// Package meta define o ciclo de vida de metas: estados, transições e a
// pré-condição de conclusão ("relatório obrigatório"). O pacote é puro:
// quem chama é responsável por ler um snapshot consistente da meta e por
// aplicar a mudança de estado de forma atômica no armazenamento.
package meta

// Status é o estado de progresso de uma meta.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusAwaiting   Status = "AWAITING"
	StatusDone       Status = "DONE"
	StatusCompleted  Status = "COMPLETED"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusOnHold:     true,
	StatusAwaiting:   true,
	StatusDone:       true,
	StatusCompleted:  true,
}

// ValidStatus informa se o status pertence ao ciclo de vida.
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// IsTerminal informa se o status não admite transições de saída.
// Reabrir uma meta concluída é modelado como meta nova.
func IsTerminal(s Status) bool {
	return s == StatusCompleted
}

// Snapshot carrega os campos da meta que o ciclo de vida consulta.
type Snapshot struct {
	Status                    Status
	Progresso                 int
	ExigeRelatorioConclusao   bool
	RelatorioConclusaoEnviado bool
}

// CanTransition decide se a transição from→to é definida pelo grafo.
// Entre estados não terminais o grafo é permissivo de propósito; a única
// transição guardada é *→COMPLETED (ver CanComplete). Centralizar a
// decisão aqui permite apertar o grafo depois sem tocar nos chamadores.
func CanTransition(from, to Status) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	return true
}

// CanComplete é a guarda de conclusão: progresso 100 e, quando exigido,
// relatório de conclusão já enviado. Enviar o relatório nunca conclui a
// meta automaticamente; envio e transição são ações desacopladas.
func CanComplete(s Snapshot) bool {
	if s.Progresso != 100 {
		return false
	}
	if s.ExigeRelatorioConclusao && !s.RelatorioConclusaoEnviado {
		return false
	}
	return true
}
