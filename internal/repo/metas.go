package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaomeridional/plataforma/internal/authz"
)

const metaColumns = `id, sucursal_id, departamento_id, criado_por_id, responsaveis_ids, titulo, descricao,
        status, progresso, exige_relatorio_conclusao, relatorio_conclusao_enviado, criado_em, atualizado_em`

func scanMeta(row pgx.Row) (Meta, error) {
	var m Meta
	err := row.Scan(&m.ID, &m.SucursalID, &m.DepartamentoID, &m.CriadoPorID, &m.ResponsaveisIDs,
		&m.Titulo, &m.Descricao, &m.Status, &m.Progresso,
		&m.ExigeRelatorioConclusao, &m.RelatorioConclusaoEnviado, &m.CriadoEm, &m.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Meta{}, ErrNotFound
		}
		return Meta{}, err
	}
	return m, nil
}

// scopeClause traduz um escopo de enumeração para SQL. O escopo e a
// checagem por instância compartilham a mesma definição em authz; aqui
// só muda a forma (predicado → WHERE).
func scopeClause(scope authz.Scope, next int) (string, []any, bool) {
	switch scope.Kind {
	case authz.ScopeBranch:
		return fmt.Sprintf("sucursal_id = $%d", next), []any{scope.SucursalID}, true
	case authz.ScopeDepartment:
		clause := fmt.Sprintf(
			"sucursal_id = $%d AND (departamento_id = $%d OR criado_por_id = $%d OR $%d = ANY(responsaveis_ids))",
			next, next+1, next+2, next+2)
		return clause, []any{scope.SucursalID, scope.DepartamentoID, scope.PrincipalID}, true
	case authz.ScopeOwnedOrAssigned:
		clause := fmt.Sprintf(
			"sucursal_id = $%d AND (criado_por_id = $%d OR $%d = ANY(responsaveis_ids))",
			next, next+1, next+1)
		return clause, []any{scope.SucursalID, scope.PrincipalID}, true
	default:
		return "", nil, false
	}
}

// GetMetaByID recupera meta pelo ID.
func (q *Queries) GetMetaByID(ctx context.Context, id uuid.UUID) (Meta, error) {
	const query = `SELECT ` + metaColumns + ` FROM metas WHERE id = $1`
	return scanMeta(q.pool.QueryRow(ctx, query, id))
}

// ListMetas enumera metas dentro do escopo resolvido do principal.
// Escopo vazio devolve lista vazia sem consultar o banco.
func (q *Queries) ListMetas(ctx context.Context, scope authz.Scope) ([]Meta, error) {
	clause, args, ok := scopeClause(scope, 1)
	if !ok {
		return nil, nil
	}

	query := `SELECT ` + metaColumns + ` FROM metas WHERE ` + clause + ` ORDER BY criado_em DESC`

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// CreateMeta insere meta nova em estado inicial.
func (q *Queries) CreateMeta(ctx context.Context, m Meta) (Meta, error) {
	const query = `
        INSERT INTO metas (id, sucursal_id, departamento_id, criado_por_id, responsaveis_ids, titulo, descricao,
            status, progresso, exige_relatorio_conclusao)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + metaColumns

	row := q.pool.QueryRow(ctx, query,
		m.ID, m.SucursalID, m.DepartamentoID, m.CriadoPorID, m.ResponsaveisIDs,
		m.Titulo, m.Descricao, m.Status, m.Progresso, m.ExigeRelatorioConclusao,
	)
	return scanMeta(row)
}

// UpdateMetaProgresso grava o progresso informado.
func (q *Queries) UpdateMetaProgresso(ctx context.Context, id uuid.UUID, progresso int) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE metas SET progresso = $2, atualizado_em = now() WHERE id = $1`, id, progresso)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetaStatus aplica a transição de status de forma condicionada ao
// status lido: o UPDATE só acontece se o snapshot avaliado ainda for o
// vigente (check-then-act sem corrida na camada de armazenamento).
func (q *Queries) UpdateMetaStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE metas SET status = $3, atualizado_em = now() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetaResponsaveis substitui a lista de responsáveis.
func (q *Queries) UpdateMetaResponsaveis(ctx context.Context, id uuid.UUID, responsaveis []uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE metas SET responsaveis_ids = $2, atualizado_em = now() WHERE id = $1`, id, responsaveis)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMeta remove a meta e seus relatórios.
func (q *Queries) DeleteMeta(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM metas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
