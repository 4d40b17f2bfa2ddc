package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificacaoColumns = `id, usuario_id, titulo, corpo, lida, criado_em`

func scanNotificacao(row pgx.Row) (Notificacao, error) {
	var n Notificacao
	err := row.Scan(&n.ID, &n.UsuarioID, &n.Titulo, &n.Corpo, &n.Lida, &n.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notificacao{}, ErrNotFound
		}
		return Notificacao{}, err
	}
	return n, nil
}

// InsertNotificacao persiste uma notificação endereçada.
func (q *Queries) InsertNotificacao(ctx context.Context, n Notificacao) (Notificacao, error) {
	const query = `
        INSERT INTO notificacoes (id, usuario_id, titulo, corpo)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + notificacaoColumns

	row := q.pool.QueryRow(ctx, query, n.ID, n.UsuarioID, n.Titulo, n.Corpo)
	return scanNotificacao(row)
}

// ListNotificacoesByUsuario devolve as notificações do usuário, mais
// novas primeiro.
func (q *Queries) ListNotificacoesByUsuario(ctx context.Context, usuarioID uuid.UUID, limit int) ([]Notificacao, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const query = `
        SELECT ` + notificacaoColumns + `
        FROM notificacoes
        WHERE usuario_id = $1
        ORDER BY criado_em DESC
        LIMIT $2
    `

	rows, err := q.pool.Query(ctx, query, usuarioID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notificacoes []Notificacao
	for rows.Next() {
		n, err := scanNotificacao(rows)
		if err != nil {
			return nil, err
		}
		notificacoes = append(notificacoes, n)
	}
	return notificacoes, rows.Err()
}

// MarkNotificacaoLida marca como lida; restrita ao próprio destinatário.
func (q *Queries) MarkNotificacaoLida(ctx context.Context, id, usuarioID uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE notificacoes SET lida = TRUE WHERE id = $1 AND usuario_id = $2`, id, usuarioID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
