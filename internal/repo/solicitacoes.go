package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const solicitacaoColumns = `id, nome, email, sucursal_id, departamento_id, status, criado_em`

func scanSolicitacao(row pgx.Row) (SolicitacaoAcesso, error) {
	var s SolicitacaoAcesso
	err := row.Scan(&s.ID, &s.Nome, &s.Email, &s.SucursalID, &s.DepartamentoID, &s.Status, &s.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SolicitacaoAcesso{}, ErrNotFound
		}
		return SolicitacaoAcesso{}, err
	}
	return s, nil
}

// InsertSolicitacao registra pedido de acesso pendente.
func (q *Queries) InsertSolicitacao(ctx context.Context, s SolicitacaoAcesso) (SolicitacaoAcesso, error) {
	const query = `
        INSERT INTO solicitacoes_acesso (id, nome, email, sucursal_id, departamento_id, status)
        VALUES ($1, $2, $3, $4, $5, 'PENDENTE')
        RETURNING ` + solicitacaoColumns

	row := q.pool.QueryRow(ctx, query,
		s.ID,
		strings.TrimSpace(s.Nome),
		strings.ToLower(strings.TrimSpace(s.Email)),
		s.SucursalID,
		s.DepartamentoID,
	)
	return scanSolicitacao(row)
}

// GetSolicitacaoByID recupera solicitação pelo ID.
func (q *Queries) GetSolicitacaoByID(ctx context.Context, id uuid.UUID) (SolicitacaoAcesso, error) {
	const query = `SELECT ` + solicitacaoColumns + ` FROM solicitacoes_acesso WHERE id = $1`
	return scanSolicitacao(q.pool.QueryRow(ctx, query, id))
}

// ListSolicitacoesPendentes devolve pedidos pendentes da sucursal.
func (q *Queries) ListSolicitacoesPendentes(ctx context.Context, sucursalID uuid.UUID) ([]SolicitacaoAcesso, error) {
	const query = `
        SELECT ` + solicitacaoColumns + `
        FROM solicitacoes_acesso
        WHERE sucursal_id = $1 AND status = 'PENDENTE'
        ORDER BY criado_em ASC
    `

	rows, err := q.pool.Query(ctx, query, sucursalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var solicitacoes []SolicitacaoAcesso
	for rows.Next() {
		s, err := scanSolicitacao(rows)
		if err != nil {
			return nil, err
		}
		solicitacoes = append(solicitacoes, s)
	}
	return solicitacoes, rows.Err()
}

// UpdateSolicitacaoStatus grava o desfecho (APROVADA/RECUSADA).
func (q *Queries) UpdateSolicitacaoStatus(ctx context.Context, id uuid.UUID, status string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE solicitacoes_acesso SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
