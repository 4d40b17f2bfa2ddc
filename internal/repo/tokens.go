package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tokenColumns = `id, subject, audience, token_hash, expiracao, criado_em, revogado`

func scanToken(row pgx.Row) (TokenRefresh, error) {
	var t TokenRefresh
	err := row.Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}

// GetRefreshTokenByHash busca refresh token pelo hash persistido.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	const query = `SELECT ` + tokenColumns + ` FROM tokens_refresh WHERE token_hash = $1`
	return scanToken(q.pool.QueryRow(ctx, query, tokenHash))
}

// InsertRefreshToken persiste refresh token novo.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	const query = `
        INSERT INTO tokens_refresh (id, subject, audience, token_hash, expiracao, criado_em)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + tokenColumns

	row := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao, arg.CriadoEm)
	return scanToken(row)
}

// RevokeRefreshToken revoga um refresh token pelo hash.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := q.pool.Exec(ctx, `UPDATE tokens_refresh SET revogado = TRUE WHERE token_hash = $1`, tokenHash)
	return err
}

// InvalidateOtherRefreshTokens revoga os demais tokens do sujeito,
// preservando o hash recém-emitido.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE tokens_refresh SET revogado = TRUE WHERE subject = $1 AND audience = $2 AND token_hash <> $3`,
		subject, audience, keepHash)
	return err
}
