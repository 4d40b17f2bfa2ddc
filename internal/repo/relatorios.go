package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaomeridional/plataforma/internal/db"
)

const relatorioColumns = `id, meta_id, enviado_por_id, versao, conclusao, destinatarios_ids, conteudo, criado_em`

func scanRelatorio(row pgx.Row) (RelatorioMeta, error) {
	var r RelatorioMeta
	err := row.Scan(&r.ID, &r.MetaID, &r.EnviadoPorID, &r.Versao, &r.Conclusao,
		&r.DestinatariosIDs, &r.Conteudo, &r.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RelatorioMeta{}, ErrNotFound
		}
		return RelatorioMeta{}, err
	}
	return r, nil
}

// InsertRelatorio grava o relatório com a próxima versão da meta e, se
// for relatório de conclusão, marca a meta como desbloqueada, tudo na
// mesma transação. A versão é atribuída no envio e nunca reaproveitada.
// Enviar relatório de conclusão NÃO muda o status da meta.
func (q *Queries) InsertRelatorio(ctx context.Context, r RelatorioMeta) (RelatorioMeta, error) {
	var saved RelatorioMeta

	err := db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		// trava a meta para serializar envios concorrentes: sem o lock,
		// duas transações leriam o mesmo MAX(versao)
		var metaID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM metas WHERE id = $1 FOR UPDATE`, r.MetaID).Scan(&metaID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const insert = `
            INSERT INTO relatorios_meta (id, meta_id, enviado_por_id, versao, conclusao, destinatarios_ids, conteudo)
            SELECT $1, $2, $3, COALESCE(MAX(versao), 0) + 1, $4, $5, $6
            FROM relatorios_meta WHERE meta_id = $2
            RETURNING ` + relatorioColumns

		row := tx.QueryRow(ctx, insert, r.ID, r.MetaID, r.EnviadoPorID, r.Conclusao, r.DestinatariosIDs, r.Conteudo)
		rec, err := scanRelatorio(row)
		if err != nil {
			return err
		}

		if rec.Conclusao {
			cmd, err := tx.Exec(ctx,
				`UPDATE metas SET relatorio_conclusao_enviado = TRUE, atualizado_em = now() WHERE id = $1`,
				r.MetaID)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return ErrNotFound
			}
		}

		saved = rec
		return nil
	})
	if err != nil {
		return RelatorioMeta{}, err
	}
	return saved, nil
}

// ListRelatoriosByMeta devolve os relatórios da meta, mais novo primeiro.
// Todos são retidos para auditoria; "o mais recente vence" só na exibição.
func (q *Queries) ListRelatoriosByMeta(ctx context.Context, metaID uuid.UUID) ([]RelatorioMeta, error) {
	const query = `
        SELECT ` + relatorioColumns + `
        FROM relatorios_meta
        WHERE meta_id = $1
        ORDER BY versao DESC
    `

	rows, err := q.pool.Query(ctx, query, metaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relatorios []RelatorioMeta
	for rows.Next() {
		r, err := scanRelatorio(rows)
		if err != nil {
			return nil, err
		}
		relatorios = append(relatorios, r)
	}
	return relatorios, rows.Err()
}
