package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sucursalColumns = `id, nome, slug, endereco, ativa, criado_em`

func scanSucursal(row pgx.Row) (Sucursal, error) {
	var s Sucursal
	err := row.Scan(&s.ID, &s.Nome, &s.Slug, &s.Endereco, &s.Ativa, &s.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sucursal{}, ErrNotFound
		}
		return Sucursal{}, err
	}
	return s, nil
}

// GetSucursalByID recupera sucursal pelo ID.
func (q *Queries) GetSucursalByID(ctx context.Context, id uuid.UUID) (Sucursal, error) {
	const query = `SELECT ` + sucursalColumns + ` FROM sucursais WHERE id = $1`
	return scanSucursal(q.pool.QueryRow(ctx, query, id))
}

// ListSucursais devolve todas as sucursais cadastradas neste deployment.
func (q *Queries) ListSucursais(ctx context.Context) ([]Sucursal, error) {
	const query = `SELECT ` + sucursalColumns + ` FROM sucursais ORDER BY nome ASC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sucursais []Sucursal
	for rows.Next() {
		s, err := scanSucursal(rows)
		if err != nil {
			return nil, err
		}
		sucursais = append(sucursais, s)
	}
	return sucursais, rows.Err()
}

// CreateSucursal provisiona sucursal nova.
func (q *Queries) CreateSucursal(ctx context.Context, s Sucursal) (Sucursal, error) {
	const query = `
        INSERT INTO sucursais (id, nome, slug, endereco, ativa)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + sucursalColumns

	row := q.pool.QueryRow(ctx, query,
		s.ID,
		strings.TrimSpace(s.Nome),
		strings.ToLower(strings.TrimSpace(s.Slug)),
		s.Endereco,
		s.Ativa,
	)
	return scanSucursal(row)
}

// UpdateSucursal altera dados cadastrais e situação.
func (q *Queries) UpdateSucursal(ctx context.Context, id uuid.UUID, nome string, endereco *string, ativa bool) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE sucursais SET nome = $2, endereco = $3, ativa = $4 WHERE id = $1`,
		id, strings.TrimSpace(nome), endereco, ativa)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
