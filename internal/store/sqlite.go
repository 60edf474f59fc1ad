package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. WAL mode lets concurrent
// Executor goroutines read the result cache without blocking each other.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logging.Component(logger, "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// GetResult looks up a cached Result by fingerprint. It returns (nil, nil)
// both when the key is absent and when the cached entry has aged past ttl
// — either way the caller's answer is "go spawn it yourself".
func (s *SQLiteStore) GetResult(ctx context.Context, fingerprint string, ttl time.Duration) (*model.Result, error) {
	s.logger.Debug("sql", "op", "select", "table", "results", "fingerprint", fingerprint)

	var proverJSON, problemJSON, cachedAtStr string
	res := model.Result{Fingerprint: fingerprint}

	err := s.db.QueryRowContext(ctx,
		`SELECT prover, problem, classification, errcode, stdout, stderr, real_time, user_time, sys_time, cached_at
		 FROM results WHERE fingerprint = ?`, fingerprint,
	).Scan(&proverJSON, &problemJSON, &res.Classification, &res.ErrCode, &res.Stdout, &res.Stderr,
		&res.RealTime, &res.UserTime, &res.SysTime, &cachedAtStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select result %s: %w", fingerprint, err)
	}

	cachedAt, err := time.Parse(time.RFC3339Nano, cachedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parse cached_at: %w", err)
	}
	res.CachedAt = cachedAt
	if time.Since(cachedAt) > ttl {
		return nil, nil
	}

	if err := json.Unmarshal([]byte(proverJSON), &res.Prover); err != nil {
		return nil, fmt.Errorf("unmarshal prover: %w", err)
	}
	if err := json.Unmarshal([]byte(problemJSON), &res.Problem); err != nil {
		return nil, fmt.Errorf("unmarshal problem: %w", err)
	}
	return &res, nil
}

// PutResult writes a Result to the cache, replacing any prior entry for the
// same fingerprint. SQLite's own transaction durability gives the atomic
// write needed here: a reader never observes a half-written row.
func (s *SQLiteStore) PutResult(ctx context.Context, result model.Result) error {
	s.logger.Debug("sql", "op", "upsert", "table", "results", "fingerprint", result.Fingerprint)

	proverJSON, err := json.Marshal(result.Prover)
	if err != nil {
		return fmt.Errorf("marshal prover: %w", err)
	}
	problemJSON, err := json.Marshal(result.Problem)
	if err != nil {
		return fmt.Errorf("marshal problem: %w", err)
	}

	cachedAt := result.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (fingerprint, prover, problem, classification, errcode, stdout, stderr, real_time, user_time, sys_time, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		   prover=excluded.prover, problem=excluded.problem, classification=excluded.classification,
		   errcode=excluded.errcode, stdout=excluded.stdout, stderr=excluded.stderr,
		   real_time=excluded.real_time, user_time=excluded.user_time, sys_time=excluded.sys_time,
		   cached_at=excluded.cached_at`,
		result.Fingerprint, string(proverJSON), string(problemJSON), result.Classification, result.ErrCode,
		result.Stdout, result.Stderr, result.RealTime, result.UserTime, result.SysTime,
		cachedAt.Format(time.RFC3339Nano),
	)
	return err
}

// CreateSnapshot persists an immutable Snapshot, keyed by its UUID.
func (s *SQLiteStore) CreateSnapshot(ctx context.Context, snap model.Snapshot) error {
	s.logger.Debug("sql", "op", "insert", "table", "snapshots", "uuid", snap.UUID)

	eventsJSON, err := json.Marshal(snap.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (uuid, timestamp, meta, events, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.UUID, snap.Timestamp, snap.Meta, string(eventsJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetSnapshot retrieves a Snapshot by UUID, or (nil, nil) if absent.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, uuid string) (*model.Snapshot, error) {
	s.logger.Debug("sql", "op", "select", "table", "snapshots", "uuid", uuid)

	var snap model.Snapshot
	var eventsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, timestamp, meta, events FROM snapshots WHERE uuid = ?`, uuid,
	).Scan(&snap.UUID, &snap.Timestamp, &snap.Meta, &eventsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %s: %w", uuid, err)
	}
	if err := json.Unmarshal([]byte(eventsJSON), &snap.Events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, timestamp, meta, events FROM snapshots ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var eventsJSON string
		if err := rows.Scan(&snap.UUID, &snap.Timestamp, &snap.Meta, &eventsJSON); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(eventsJSON), &snap.Events); err != nil {
			return nil, fmt.Errorf("unmarshal events: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
