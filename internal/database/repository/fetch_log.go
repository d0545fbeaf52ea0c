package repository

import (
	"context"
	"database/sql"
)

// FetchLogRepo handles the fetch journal.
type FetchLogRepo struct {
	db *sql.DB
}

func NewFetchLogRepo(db *sql.DB) *FetchLogRepo { return &FetchLogRepo{db: db} }

func (r *FetchLogRepo) Insert(ctx context.Context, l FetchLog) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO fetch_log(id, date_key, outcome, status_code, row_count, error, started_at, finished_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?);
	`,
		l.ID, l.DateKey, l.Outcome, l.StatusCode, l.RowCount, l.Error, l.StartedAt.UTC(), l.FinishedAt.UTC())
	return err
}

// List returns the most recent entries first. limit <= 0 means no limit.
func (r *FetchLogRepo) List(ctx context.Context, limit int) ([]FetchLog, error) {
	query := "SELECT id, date_key, outcome, status_code, row_count, error, started_at, finished_at FROM fetch_log ORDER BY started_at DESC, rowid DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FetchLog
	for rows.Next() {
		l, err := scanFetchLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *FetchLogRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fetch_log").Scan(&n)
	return n, err
}

// DeleteAll runs inside the caller's transaction.
func (r *FetchLogRepo) DeleteAll(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM fetch_log")
	return err
}

func scanFetchLog(rows *sql.Rows) (FetchLog, error) {
	var l FetchLog
	var errText sql.NullString
	if err := rows.Scan(&l.ID, &l.DateKey, &l.Outcome, &l.StatusCode, &l.RowCount, &errText, &l.StartedAt, &l.FinishedAt); err != nil {
		return FetchLog{}, err
	}
	if errText.Valid {
		s := errText.String
		l.Error = &s
	}
	return l, nil
}
