package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// Store implements ports.RowStore on gorm's raw SQL API.
type Store struct {
	db *gorm.DB
}

var _ ports.RowStore = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// dbFromContext returns the transaction carried by ctx, or root when there is
// none. The second result reports whether a transaction was found.
func dbFromContext(ctx context.Context, root *gorm.DB) (*gorm.DB, bool, error) {
	if ctx == nil {
		return nil, false, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return root.WithContext(ctx), false, nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, false, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), true, nil
}

func (s *Store) FetchOne(ctx context.Context, query string, params ...any) (ports.Row, bool, error) {
	rows, err := s.fetch(ctx, "fetch one", query, params)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (s *Store) FetchAll(ctx context.Context, query string, params ...any) ([]ports.Row, error) {
	return s.fetch(ctx, "fetch all", query, params)
}

func (s *Store) fetch(ctx context.Context, op string, query string, params []any) ([]ports.Row, error) {
	db, _, err := dbFromContext(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := db.Raw(query, params...).Scan(&raw).Error; err != nil {
		return nil, errs.Storage(op, err)
	}

	rows := make([]ports.Row, len(raw))
	for i, row := range raw {
		rows[i] = ports.Row(row)
	}
	return rows, nil
}

// Execute runs one statement. Outside a transaction the statement commits on
// its own and leaves nothing behind when it fails.
func (s *Store) Execute(ctx context.Context, query string, params ...any) (ports.ExecResult, error) {
	db, _, err := dbFromContext(ctx, s.db)
	if err != nil {
		return ports.ExecResult{}, err
	}

	result := db.Exec(query, params...)
	if result.Error != nil {
		return ports.ExecResult{}, errs.Storage("execute", result.Error)
	}
	return ports.ExecResult{RowsAffected: result.RowsAffected}, nil
}

// ExecuteMany runs query once per parameter set. Outside a transaction the
// batch gets its own, so a failure rolls back every earlier set.
func (s *Store) ExecuteMany(ctx context.Context, query string, paramSets [][]any) error {
	db, inTx, err := dbFromContext(ctx, s.db)
	if err != nil {
		return err
	}

	run := func(tx *gorm.DB) error {
		for i, params := range paramSets {
			if err := tx.Exec(query, params...).Error; err != nil {
				return errs.Storage("execute many", fmt.Errorf("parameter set %d: %w", i, err))
			}
		}
		return nil
	}

	if inTx {
		return run(db)
	}
	if err := db.Transaction(run); err != nil {
		return errs.Storage("execute many", err)
	}
	return nil
}
