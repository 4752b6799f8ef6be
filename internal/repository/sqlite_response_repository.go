package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"valentine-server/internal/domain"

	"github.com/georgysavva/scany/v2/sqlscan"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const insertResponseSQLiteQuery = `INSERT INTO responses (answer) VALUES (?) RETURNING id, answer, timestamp`

// sqliteTimeLayout matches strftime('%Y-%m-%dT%H:%M:%fZ') in the schema.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteDSN builds the DSN used both by the repository and by the migrator.
func SQLiteDSN(path string) string {
	return filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// OpenSQLite opens the database file; the schema is applied separately by the migrator.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

type sqliteResponseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ResponseRepository = (*sqliteResponseRepository)(nil)

func NewSQLiteResponseRepository(db *sql.DB, logger *zap.Logger) ResponseRepository {
	return &sqliteResponseRepository{
		db:     db,
		logger: logger.Named("SQLiteResponseRepo"),
	}
}

type sqliteResponseRow struct {
	ID        int64  `db:"id"`
	Answer    bool   `db:"answer"`
	Timestamp string `db:"timestamp"`
}

func (r *sqliteResponseRepository) Create(ctx context.Context, answer bool) (*domain.Response, error) {
	var row sqliteResponseRow
	if err := sqlscan.Get(ctx, r.db, &row, insertResponseSQLiteQuery, answer); err != nil {
		r.logger.Error("Failed to insert response", zap.Bool("answer", answer), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to insert response: %v", domain.ErrStorage, err)
	}
	ts, err := time.Parse(sqliteTimeLayout, row.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected timestamp %q: %v", domain.ErrStorage, row.Timestamp, err)
	}
	r.logger.Debug("Response inserted", zap.Int64("id", row.ID), zap.Bool("answer", row.Answer))
	return &domain.Response{ID: row.ID, Answer: row.Answer, Timestamp: ts}, nil
}

func (r *sqliteResponseRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: sqlite ping failed: %v", domain.ErrStorage, err)
	}
	return nil
}
