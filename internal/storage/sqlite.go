//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"nanoalloy/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind is the backend NewStore selects for an empty kind in
// builds that carry the sqlite driver.
const DefaultStoreKind = "sqlite"

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// UpsertMinResult writes the result only when no row exists for the same key
// or the existing row's cohesive energy is strictly higher. The check and the
// write share one transaction so concurrent writers cannot overwrite a
// better row.
func (s *SQLiteStore) UpsertMinResult(ctx context.Context, result model.Result) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	payload, err := EncodeResult(result)
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var existingCE float64
	err = tx.QueryRowContext(ctx, `
		SELECT ce FROM results
		WHERE metal1 = ? AND metal2 = ? AND shape = ? AND num_atoms = ? AND n_metal1 = ?
	`, result.Metal1, result.Metal2, result.Shape, result.NumAtoms, result.NMetal1).Scan(&existingCE)
	switch {
	case err == nil:
		if existingCE <= result.CE {
			return false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO results (metal1, metal2, shape, num_atoms, n_metal1, ce, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(metal1, metal2, shape, num_atoms, n_metal1) DO UPDATE SET
			ce = excluded.ce,
			payload = excluded.payload
	`, result.Metal1, result.Metal2, result.Shape, result.NumAtoms, result.NMetal1, result.CE, payload)
	if err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) GetResult(ctx context.Context, key ResultKey) (model.Result, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Result{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT payload FROM results
		WHERE metal1 = ? AND metal2 = ? AND shape = ? AND num_atoms = ? AND n_metal1 = ?
	`, key.Metal1, key.Metal2, key.Shape, key.NumAtoms, key.NMetal1).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Result{}, false, nil
		}
		return model.Result{}, false, err
	}

	result, err := DecodeResult(payload)
	if err != nil {
		return model.Result{}, false, fmt.Errorf("decode result %s%s/%s/%d: %w", key.Metal1, key.Metal2, key.Shape, key.NumAtoms, err)
	}
	return result, true, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.Result, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM results WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.Metal1 != "" {
		query += ` AND metal1 = ?`
		args = append(args, filter.Metal1)
	}
	if filter.Metal2 != "" {
		query += ` AND metal2 = ?`
		args = append(args, filter.Metal2)
	}
	if filter.Shape != "" {
		query += ` AND shape = ?`
		args = append(args, filter.Shape)
	}
	if filter.NumAtoms != 0 {
		query += ` AND num_atoms = ?`
		args = append(args, filter.NumAtoms)
	}
	query += ` ORDER BY metal1, metal2, shape, num_atoms, n_metal1`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		result, err := DecodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) SaveNanoparticle(ctx context.Context, np model.Nanoparticle) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeNanoparticle(np)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO nanoparticles (shape, num_atoms, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(shape, num_atoms) DO UPDATE SET
			payload = excluded.payload
	`, np.Shape, np.NumAtoms, payload)
	return err
}

func (s *SQLiteStore) GetNanoparticle(ctx context.Context, shape string, numAtoms int) (model.Nanoparticle, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Nanoparticle{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT payload FROM nanoparticles WHERE shape = ? AND num_atoms = ?
	`, shape, numAtoms).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Nanoparticle{}, false, nil
		}
		return model.Nanoparticle{}, false, err
	}

	np, err := DecodeNanoparticle(payload)
	if err != nil {
		return model.Nanoparticle{}, false, fmt.Errorf("decode nanoparticle %s/%d: %w", shape, numAtoms, err)
	}
	return np, true, nil
}

func (s *SQLiteStore) SaveRunLog(ctx context.Context, log model.RunLog) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRunLog(log)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO run_logs (run_id, started_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			started_at = excluded.started_at,
			payload = excluded.payload
	`, log.RunID, log.StartedAtUTC, payload)
	return err
}

func (s *SQLiteStore) ListRunLogs(ctx context.Context, limit int) ([]model.RunLog, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM run_logs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.RunLog
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		log, err := DecodeRunLog(payload)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			metal1 TEXT NOT NULL,
			metal2 TEXT NOT NULL,
			shape TEXT NOT NULL,
			num_atoms INTEGER NOT NULL,
			n_metal1 INTEGER NOT NULL,
			ce REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (metal1, metal2, shape, num_atoms, n_metal1)
		);
		CREATE TABLE IF NOT EXISTS nanoparticles (
			shape TEXT NOT NULL,
			num_atoms INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (shape, num_atoms)
		);
		CREATE TABLE IF NOT EXISTS run_logs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
