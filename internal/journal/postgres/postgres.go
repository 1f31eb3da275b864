package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/dumpkey/internal/journal"
)

// DB implements journal.Journal on PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trigger_log(
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			result TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_log_action ON trigger_log(action);`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_log_occurred ON trigger_log(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Append(ctx context.Context, rec journal.Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO trigger_log(id, action, target, result, occurred_at)
		VALUES($1, $2, $3, $4, $5);`,
		rec.ID, rec.Action, rec.Target, rec.Result, rec.OccurredAt.UTC())
	return err
}

func (p *DB) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, action, target, result, occurred_at
		FROM trigger_log
		ORDER BY occurred_at DESC
		LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]journal.Record, 0)
	for rows.Next() {
		var r journal.Record
		if err := rows.Scan(&r.ID, &r.Action, &r.Target, &r.Result, &r.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
