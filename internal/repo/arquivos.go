package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const arquivoColumns = `id, sucursal_id, departamento_id, dono_id, nome, chave, content_type, tamanho, url, criado_em`

func scanArquivo(row pgx.Row) (Arquivo, error) {
	var a Arquivo
	err := row.Scan(&a.ID, &a.SucursalID, &a.DepartamentoID, &a.DonoID, &a.Nome,
		&a.Chave, &a.ContentType, &a.Tamanho, &a.URL, &a.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Arquivo{}, ErrNotFound
		}
		return Arquivo{}, err
	}
	return a, nil
}

// GetArquivoByID recupera item da biblioteca pelo ID.
func (q *Queries) GetArquivoByID(ctx context.Context, id uuid.UUID) (Arquivo, error) {
	const query = `SELECT ` + arquivoColumns + ` FROM arquivos WHERE id = $1`
	return scanArquivo(q.pool.QueryRow(ctx, query, id))
}

// ListArquivosBySucursal devolve a biblioteca da sucursal.
func (q *Queries) ListArquivosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]Arquivo, error) {
	const query = `
        SELECT ` + arquivoColumns + `
        FROM arquivos
        WHERE sucursal_id = $1
        ORDER BY criado_em DESC
    `

	rows, err := q.pool.Query(ctx, query, sucursalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var arquivos []Arquivo
	for rows.Next() {
		a, err := scanArquivo(rows)
		if err != nil {
			return nil, err
		}
		arquivos = append(arquivos, a)
	}
	return arquivos, rows.Err()
}

// InsertArquivo registra o item após o upload do blob.
func (q *Queries) InsertArquivo(ctx context.Context, a Arquivo) (Arquivo, error) {
	const query = `
        INSERT INTO arquivos (id, sucursal_id, departamento_id, dono_id, nome, chave, content_type, tamanho, url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + arquivoColumns

	row := q.pool.QueryRow(ctx, query,
		a.ID, a.SucursalID, a.DepartamentoID, a.DonoID, a.Nome, a.Chave, a.ContentType, a.Tamanho, a.URL)
	return scanArquivo(row)
}

// DeleteArquivo remove o registro (o blob remoto é mantido para auditoria).
func (q *Queries) DeleteArquivo(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM arquivos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
