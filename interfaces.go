package sqlkit

import (
	"context"
	"database/sql"
)

// StatementRunner captures the statement operations a unit of work can issue
// against its session. Repositories that should run inside any scope kind
// can accept this instead of the concrete Session.
type StatementRunner interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Update(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (*RowSeq, error)
	ForEach(ctx context.Context, query string, fn func(*RowView) error, args ...any) error
	ExecBatch(ctx context.Context, st *StatementTemplate) (int64, error)
}

// Ensure the concrete session satisfies the interface at compile time.
var _ StatementRunner = (*Session)(nil)
