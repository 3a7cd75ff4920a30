package ports

import (
	"context"
	"fmt"
	"strconv"
)

// Row is a result row addressable by column name.
type Row map[string]any

// String returns the column as text; NULL and missing columns yield "".
func (r Row) String(column string) string {
	value := r.NullString(column)
	if value == nil {
		return ""
	}
	return *value
}

func (r Row) NullString(column string) *string {
	switch v := r[column].(type) {
	case nil:
		return nil
	case string:
		return &v
	case []byte:
		s := string(v)
		return &s
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func (r Row) Int64(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

func (r Row) Float64(column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// Bytes returns the column as raw bytes, nil for NULL.
func (r Row) Bytes(column string) []byte {
	switch v := r[column].(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return []byte(fmt.Sprint(v))
	}
}

type ExecResult struct {
	RowsAffected int64
}

// RowStore runs positional-parameter SQL on the transaction carried by ctx,
// or on a one-off connection when there is none. Every storage failure comes
// back as *errs.StorageError.
type RowStore interface {
	FetchOne(ctx context.Context, query string, params ...any) (Row, bool, error)
	FetchAll(ctx context.Context, query string, params ...any) ([]Row, error)
	Execute(ctx context.Context, query string, params ...any) (ExecResult, error)
	ExecuteMany(ctx context.Context, query string, paramSets [][]any) error
}
