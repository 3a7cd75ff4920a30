package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm.
//
// The first WithTx in a call chain owns the transaction: it begins, commits
// or rolls back. Nested calls find the handle in ctx and only run fn.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if fn == nil {
		return errors.New("transaction callback is required")
	}

	if existing := ports.TxFromContext(ctx); existing != nil {
		if tx, ok := existing.(*gorm.DB); !ok || tx == nil {
			return fmt.Errorf("invalid tx in context: %T", existing)
		}
		return fn(ctx)
	}

	return u.own(ctx, fn)
}

func (u *UnitOfWork) own(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errs.Storage("begin transaction", tx.Error)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		// fn panicked: release the connection before unwinding further.
		rollback(ctx, tx)
		if recovered := recover(); recovered != nil {
			panic(recovered)
		}
	}()

	if err := fn(ports.WithTxContext(ctx, tx)); err != nil {
		finished = true
		rollback(ctx, tx)
		return err
	}

	if err := ctx.Err(); err != nil {
		finished = true
		rollback(ctx, tx)
		return errs.Wrap(err, "transaction aborted")
	}

	finished = true
	if err := tx.Commit().Error; err != nil {
		rollback(ctx, tx)
		return errs.Storage("commit transaction", err)
	}
	return nil
}

func rollback(ctx context.Context, tx *gorm.DB) {
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn(
			logging.WithAttrs(ctx, slog.String("component", "persistence.uow")),
			"rollback failed",
			slog.Any("err", errs.Loggable(err)),
		)
	}
}
