package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const auditCols = `id, ts, user_email, infant_record_id, field, old_value, new_value`

func (r *repoPG) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		batch.Queue(`
			INSERT INTO audit_log (id, ts, user_email, infant_record_id, field, old_value, new_value)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			e.ID, e.Timestamp, e.UserEmail, e.InfantRecordID, e.Field, e.OldValue, e.NewValue)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditCols+` FROM audit_log ORDER BY ts DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	return entries, total, err
}

func (r *repoPG) ListByInfant(ctx context.Context, recordID string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditCols+` FROM audit_log WHERE infant_record_id = $1 ORDER BY ts DESC, id`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserEmail, &e.InfantRecordID,
			&e.Field, &e.OldValue, &e.NewValue); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
