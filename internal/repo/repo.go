// Package repo concentra o acesso a dados via pgx. Cada método usa SQL
// explícito; nada de query builder.
package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries agrupa as consultas da plataforma sobre um pool pgx.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o agregado de consultas.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Pool expõe o pool subjacente para fluxos transacionais.
func (q *Queries) Pool() *pgxpool.Pool {
	return q.pool
}
