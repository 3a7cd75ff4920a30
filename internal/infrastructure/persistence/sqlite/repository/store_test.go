package repository

import (
	"context"
	"errors"
	"testing"

	"applytrack/internal/errs"
	"applytrack/internal/infrastructure/persistence/sqlite/uow"
)

func TestStoreFetchOneMissing(t *testing.T) {
	store := NewStore(setupDB(t))

	row, found, err := store.FetchOne(context.Background(), `SELECT id FROM resumes WHERE id = ?`, "missing")
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if found || row != nil {
		t.Fatalf("FetchOne() = %v, %v, want nil, false", row, found)
	}
}

func TestStoreWrapsStorageErrors(t *testing.T) {
	store := NewStore(setupDB(t))
	ctx := context.Background()

	if _, err := store.FetchAll(ctx, `SELECT * FROM no_such_table`); !errs.IsStorage(err) {
		t.Fatalf("FetchAll() error = %v, want StorageError", err)
	}
	if _, err := store.Execute(ctx, `INSERT INTO no_such_table VALUES (?)`, 1); !errs.IsStorage(err) {
		t.Fatalf("Execute() error = %v, want StorageError", err)
	}

	var se *errs.StorageError
	_, err := store.Execute(ctx, `UPDATE nowhere SET x = 1`)
	if !errors.As(err, &se) || se.Op != "execute" {
		t.Fatalf("Execute() error = %#v, want op execute", err)
	}
}

func TestStoreExecuteManyOneOffRollsBackBatch(t *testing.T) {
	store := NewStore(setupDB(t))
	ctx := context.Background()

	err := store.ExecuteMany(ctx, `INSERT INTO resumes (id, template_id, sections) VALUES (?, ?, ?)`, [][]any{
		{"r1", "classic", "[]"},
		{"r2", "classic", "[]"},
		{"r1", "classic", "[]"},
	})
	if !errs.IsStorage(err) {
		t.Fatalf("ExecuteMany() error = %v, want StorageError", err)
	}

	rows, err := store.FetchAll(ctx, `SELECT id FROM resumes`)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0 after failed batch", len(rows))
	}
}

func TestStoreExecuteManyJoinsTransaction(t *testing.T) {
	db := setupDB(t)
	store := NewStore(db)
	unit := uow.NewUnitOfWork(db)
	ctx := context.Background()
	boom := errors.New("abort after batch")

	err := unit.WithTx(ctx, func(txCtx context.Context) error {
		if err := store.ExecuteMany(txCtx, `INSERT INTO resumes (id, template_id, sections) VALUES (?, ?, ?)`, [][]any{
			{"r1", "classic", "[]"},
			{"r2", "modern", "[]"},
		}); err != nil {
			return err
		}
		rows, err := store.FetchAll(txCtx, `SELECT id FROM resumes`)
		if err != nil {
			return err
		}
		if len(rows) != 2 {
			t.Fatalf("rows inside tx = %d, want 2", len(rows))
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	rows, err := store.FetchAll(ctx, `SELECT id FROM resumes`)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0 after rollback", len(rows))
	}
}

func TestNestedTransactionFailureLeavesOriginalState(t *testing.T) {
	db := setupDB(t)
	store := NewStore(db)
	unit := uow.NewUnitOfWork(db)
	ctx := context.Background()

	if _, err := store.Execute(ctx, `INSERT INTO resumes (id, template_id, sections) VALUES (?, ?, ?)`, "keep", "classic", "[]"); err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	inner := errs.Duplicatef("second saved event")
	err := unit.WithTx(ctx, func(outer context.Context) error {
		if _, err := store.Execute(outer, `UPDATE resumes SET template_id = ? WHERE id = ?`, "modern", "keep"); err != nil {
			return err
		}
		return unit.WithTx(outer, func(nested context.Context) error {
			if _, err := store.Execute(nested, `INSERT INTO resumes (id, template_id, sections) VALUES (?, ?, ?)`, "new", "classic", "[]"); err != nil {
				return err
			}
			return inner
		})
	})
	if !errors.Is(err, inner) {
		t.Fatalf("WithTx() error = %v, want inner error", err)
	}

	rows, err := store.FetchAll(ctx, `SELECT id, template_id FROM resumes ORDER BY id`)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 1 || rows[0].String("template_id") != "classic" {
		t.Fatalf("rows = %v, want only the untouched seed row", rows)
	}
}
