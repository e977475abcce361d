package cache

import (
	"context"
	"database/sql"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// SQLiteStore persists fitness results so a warm start can reuse evaluations
// from earlier processes. Failed evaluations (score of negative infinity) are
// stored with a flag: SQLite's text representation has no infinity literal.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	key            TEXT PRIMARY KEY,
	operator_count INTEGER NOT NULL,
	score          REAL NOT NULL,
	failed         INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL
);
`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "opening evaluation cache database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Unknown, "creating evaluation cache schema")
	}
	// Serialized writes avoid SQLITE_BUSY under parallel evaluation.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var entry Entry
	var failed int
	err := s.db.QueryRowContext(ctx,
		"SELECT operator_count, score, failed FROM evaluations WHERE key = ?", key).
		Scan(&entry.OperatorCount, &entry.Score, &failed)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(err, errors.Unknown, "reading evaluation cache")
	}
	if failed != 0 {
		entry.Score = math.Inf(-1)
	}
	return entry, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, entry Entry) error {
	score := entry.Score
	failed := 0
	if math.IsInf(score, -1) {
		score = 0
		failed = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO evaluations (key, operator_count, score, failed, created_at) VALUES (?, ?, ?, ?, ?)",
		key, entry.OperatorCount, score, failed, time.Now().Unix())
	return errors.Wrap(err, errors.Unknown, "writing evaluation cache")
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.Unknown, "counting evaluation cache")
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
