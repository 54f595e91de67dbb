package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ TxRunner = (*pgxTxRunner)(nil)

type pgxTxRunner struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxRunner создает помощник транзакций поверх pgx пула.
func NewTxRunner(pool *pgxpool.Pool, logger *zap.Logger) TxRunner {
	return &pgxTxRunner{
		pool:   pool,
		logger: logger.Named("TxRunner"),
	}
}

// WithinTx выполняет функцию в транзакции с автоматическим rollback при ошибке.
func (r *pgxTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				r.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			r.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
