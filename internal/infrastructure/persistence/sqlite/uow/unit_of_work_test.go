package uow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

type counter struct {
	ID    uint `gorm:"primaryKey"`
	Label string
}

func setupUnitOfWork(t *testing.T) (*UnitOfWork, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "uow.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&counter{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewUnitOfWork(db), db
}

func insert(ctx context.Context, t *testing.T, label string) error {
	t.Helper()
	tx, ok := ports.TxFromContext(ctx).(*gorm.DB)
	if !ok {
		t.Fatalf("no gorm tx in context")
	}
	return tx.Create(&counter{Label: label}).Error
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&counter{}).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestWithTxCommitsOwner(t *testing.T) {
	uow, db := setupUnitOfWork(t)

	err := uow.WithTx(context.Background(), func(ctx context.Context) error {
		if err := insert(ctx, t, "outer"); err != nil {
			return err
		}
		return uow.WithTx(ctx, func(inner context.Context) error {
			return insert(inner, t, "inner")
		})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if got := countRows(t, db); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestWithTxNestedFailureRollsBackOuterWrites(t *testing.T) {
	uow, db := setupUnitOfWork(t)
	boom := errs.Validationf("inner rule violated")

	err := uow.WithTx(context.Background(), func(ctx context.Context) error {
		if err := insert(ctx, t, "outer"); err != nil {
			return err
		}
		return uow.WithTx(ctx, func(inner context.Context) error {
			if err := insert(inner, t, "inner"); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want original error", err)
	}
	if errs.IsStorage(err) {
		t.Fatalf("WithTx() wrapped business error as storage: %v", err)
	}
	if got := countRows(t, db); got != 0 {
		t.Fatalf("rows = %d, want 0 after rollback", got)
	}
}

func TestWithTxNestedSharesHandle(t *testing.T) {
	uow, _ := setupUnitOfWork(t)

	err := uow.WithTx(context.Background(), func(ctx context.Context) error {
		outer := ports.TxFromContext(ctx)
		return uow.WithTx(ctx, func(inner context.Context) error {
			if ports.TxFromContext(inner) != outer {
				t.Fatalf("nested WithTx opened a new transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func TestWithTxPanicRollsBack(t *testing.T) {
	uow, db := setupUnitOfWork(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("WithTx() did not re-panic")
			}
		}()
		_ = uow.WithTx(context.Background(), func(ctx context.Context) error {
			if err := insert(ctx, t, "doomed"); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countRows(t, db); got != 0 {
		t.Fatalf("rows = %d, want 0 after panic", got)
	}
}

func TestWithTxCancelledContextAborts(t *testing.T) {
	uow, db := setupUnitOfWork(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := insert(txCtx, t, "cancelled"); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WithTx() error = %v, want context.Canceled", err)
	}
	if got := countRows(t, db); got != 0 {
		t.Fatalf("rows = %d, want 0 after cancellation", got)
	}
}
