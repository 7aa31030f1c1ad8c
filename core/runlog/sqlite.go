package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS plan_runs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		ts         INTEGER NOT NULL,
		status     TEXT NOT NULL,
		objective  INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		record     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS plan_runs_ts ON plan_runs (ts)`,
	`CREATE TABLE IF NOT EXISTS plan_assignments (
		run_pk     INTEGER NOT NULL REFERENCES plan_runs (id),
		session_id TEXT NOT NULL,
		doctor_id  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS plan_assignments_doctor ON plan_assignments (doctor_id)`,
}

// SQLiteStore keeps run records in SQLite. Assignments are also stored
// row by row so per-doctor lookups stay in SQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers on the file.
	db.SetMaxOpenConns(1)
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, errors.Join(fmt.Errorf("apply schema: %w", err), db.Close())
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append stores rec and its assignments in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec LogRecord) (err error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO plan_runs (run_id, ts, status, objective, elapsed_ms, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp.UnixNano(), rec.Status, rec.Objective, rec.ElapsedMS, string(data))
	if err != nil {
		return err
	}
	pk, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if len(rec.Assignments) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_assignments (run_pk, session_id, doctor_id) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for sid, did := range rec.Assignments {
			if _, err := stmt.ExecContext(ctx, pk, sid, did); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Query returns the records matching q, oldest first. Limit keeps the
// newest records.
func (s *SQLiteStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, `r.ts >= ?`)
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		where = append(where, `r.ts <= ?`)
		args = append(args, q.End.UnixNano())
	}
	if q.Status != "" {
		where = append(where, `r.status = ?`)
		args = append(args, q.Status)
	}
	if q.RunID != "" {
		where = append(where, `r.run_id = ?`)
		args = append(args, q.RunID)
	}
	if q.DoctorID != "" {
		where = append(where, `EXISTS (SELECT 1 FROM plan_assignments a WHERE a.run_pk = r.id AND a.doctor_id = ?)`)
		args = append(args, q.DoctorID)
	}

	query := `SELECT r.record FROM plan_runs r`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY r.ts DESC, r.id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []LogRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r LogRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
