package repository

import (
	"context"
	"fmt"

	"valentine-server/internal/domain"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

const insertResponseQuery = `INSERT INTO responses (answer) VALUES ($1) RETURNING id, answer, timestamp`

type pgResponseRepository struct {
	db     DBTX
	logger *zap.Logger
}

var _ ResponseRepository = (*pgResponseRepository)(nil)

func NewPgResponseRepository(db DBTX, logger *zap.Logger) ResponseRepository {
	return &pgResponseRepository{
		db:     db,
		logger: logger.Named("PgResponseRepo"),
	}
}

func (r *pgResponseRepository) Create(ctx context.Context, answer bool) (*domain.Response, error) {
	var resp domain.Response
	if err := pgxscan.Get(ctx, r.db, &resp, insertResponseQuery, answer); err != nil {
		r.logger.Error("Failed to insert response", zap.Bool("answer", answer), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to insert response: %v", domain.ErrStorage, err)
	}
	r.logger.Debug("Response inserted", zap.Int64("id", resp.ID), zap.Bool("answer", resp.Answer))
	return &resp, nil
}

func (r *pgResponseRepository) Ping(ctx context.Context) error {
	p, ok := r.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping failed: %v", domain.ErrStorage, err)
	}
	return nil
}
