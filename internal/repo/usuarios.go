package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaomeridional/plataforma/internal/authz"
)

const usuarioColumns = `id, nome, email, senha_hash, papel, sucursal_id, departamento_id, ativo, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Papel, &u.SucursalID, &u.DepartamentoID, &u.Ativo, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByID recupera usuário pelo ID.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	const query = `SELECT ` + usuarioColumns + ` FROM usuarios WHERE id = $1`
	return scanUsuario(q.pool.QueryRow(ctx, query, id))
}

// GetUsuarioByEmail recupera usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	const query = `SELECT ` + usuarioColumns + ` FROM usuarios WHERE email = $1`
	normalized := strings.ToLower(strings.TrimSpace(email))
	return scanUsuario(q.pool.QueryRow(ctx, query, normalized))
}

// ListUsuariosBySucursal devolve usuários ativos da sucursal.
func (q *Queries) ListUsuariosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]Usuario, error) {
	const query = `
        SELECT ` + usuarioColumns + `
        FROM usuarios
        WHERE sucursal_id = $1 AND ativo
        ORDER BY nome ASC
    `

	rows, err := q.pool.Query(ctx, query, sucursalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

// ListPrincipalsBySucursal projeta os usuários ativos da sucursal como
// principals de autorização; é o Directory do roteador de notificações.
func (q *Queries) ListPrincipalsBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]authz.Principal, error) {
	usuarios, err := q.ListUsuariosBySucursal(ctx, sucursalID)
	if err != nil {
		return nil, err
	}

	principals := make([]authz.Principal, 0, len(usuarios))
	for _, u := range usuarios {
		papel, ok := authz.ParseRole(u.Papel)
		if !ok {
			continue
		}
		principals = append(principals, authz.Principal{
			ID:             u.ID,
			Role:           papel,
			SucursalID:     u.SucursalID,
			DepartamentoID: u.DepartamentoID,
		})
	}
	return principals, nil
}

// CreateUsuario insere colaborador já aprovado.
func (q *Queries) CreateUsuario(ctx context.Context, u Usuario) (Usuario, error) {
	const query = `
        INSERT INTO usuarios (id, nome, email, senha_hash, papel, sucursal_id, departamento_id, ativo)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + usuarioColumns

	row := q.pool.QueryRow(ctx, query,
		u.ID,
		strings.TrimSpace(u.Nome),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.SenhaHash,
		u.Papel,
		u.SucursalID,
		u.DepartamentoID,
		u.Ativo,
	)
	return scanUsuario(row)
}

// UpdateUsuarioPapel altera o papel do colaborador.
func (q *Queries) UpdateUsuarioPapel(ctx context.Context, id uuid.UUID, papel string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE usuarios SET papel = $2 WHERE id = $1`, id, papel)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUsuarioDepartamento muda (ou remove) o vínculo de departamento.
func (q *Queries) SetUsuarioDepartamento(ctx context.Context, id uuid.UUID, departamentoID *uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE usuarios SET departamento_id = $2 WHERE id = $1`, id, departamentoID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateUsuario desliga o colaborador sem apagar o registro.
func (q *Queries) DeactivateUsuario(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE usuarios SET ativo = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUsuario remove definitivamente; reservado ao fluxo SUPER_ADMIN.
func (q *Queries) DeleteUsuario(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
