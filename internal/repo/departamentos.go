package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaomeridional/plataforma/internal/db"
)

const departamentoColumns = `id, sucursal_id, nome, supervisor_id, criado_em`

func scanDepartamento(row pgx.Row) (Departamento, error) {
	var d Departamento
	err := row.Scan(&d.ID, &d.SucursalID, &d.Nome, &d.SupervisorID, &d.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Departamento{}, ErrNotFound
		}
		return Departamento{}, err
	}
	return d, nil
}

// GetDepartamentoByID recupera departamento pelo ID.
func (q *Queries) GetDepartamentoByID(ctx context.Context, id uuid.UUID) (Departamento, error) {
	const query = `SELECT ` + departamentoColumns + ` FROM departamentos WHERE id = $1`
	return scanDepartamento(q.pool.QueryRow(ctx, query, id))
}

// ListDepartamentosBySucursal devolve os departamentos da sucursal.
func (q *Queries) ListDepartamentosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]Departamento, error) {
	const query = `
        SELECT ` + departamentoColumns + `
        FROM departamentos
        WHERE sucursal_id = $1
        ORDER BY nome ASC
    `

	rows, err := q.pool.Query(ctx, query, sucursalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departamentos []Departamento
	for rows.Next() {
		d, err := scanDepartamento(rows)
		if err != nil {
			return nil, err
		}
		departamentos = append(departamentos, d)
	}
	return departamentos, rows.Err()
}

// CreateDepartamento insere departamento novo.
func (q *Queries) CreateDepartamento(ctx context.Context, d Departamento) (Departamento, error) {
	const query = `
        INSERT INTO departamentos (id, sucursal_id, nome, supervisor_id)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + departamentoColumns

	row := q.pool.QueryRow(ctx, query, d.ID, d.SucursalID, strings.TrimSpace(d.Nome), d.SupervisorID)
	return scanDepartamento(row)
}

// UpdateDepartamento altera o nome.
func (q *Queries) UpdateDepartamento(ctx context.Context, id uuid.UUID, nome string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE departamentos SET nome = $2 WHERE id = $1`, id, strings.TrimSpace(nome))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDepartamentoSupervisor grava (ou limpa) o supervisor.
func (q *Queries) SetDepartamentoSupervisor(ctx context.Context, id uuid.UUID, supervisorID *uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE departamentos SET supervisor_id = $2 WHERE id = $1`, id, supervisorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDepartamento apaga o departamento desvinculando os membros na
// mesma transação: eles viram "sem departamento", nunca são apagados.
func (q *Queries) DeleteDepartamento(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE usuarios SET departamento_id = NULL WHERE departamento_id = $1`, id); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM departamentos WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
