package sqlkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ScopeKind selects how a session brackets its statements.
type ScopeKind int

const (
	// AutoCommit sessions commit each statement independently.
	AutoCommit ScopeKind = iota
	// LocalTx sessions run inside one explicit transaction: commit on
	// normal return, rollback on any error or panic.
	LocalTx
)

func (k ScopeKind) String() string {
	switch k {
	case AutoCommit:
		return "autocommit"
	case LocalTx:
		return "local-transaction"
	}
	return fmt.Sprintf("scope(%d)", int(k))
}

// Session is bound to exactly one pooled connection for its lifetime. It is
// created at scope entry, handed to the unit of work, and must not outlive
// the WithSession call that produced it.
type Session struct {
	conn *sql.Conn
	tx   *sql.Tx
	pool *Pool
	kind ScopeKind
}

// Kind returns the session's scope kind.
func (s *Session) Kind() ScopeKind { return s.kind }

// WithSession opens a session against the named pool and runs fn within it.
// See Pool.WithSession for the commit/rollback contract.
func WithSession(ctx context.Context, poolName string, kind ScopeKind, fn func(*Session) error) error {
	pool, ok := LookupPool(poolName)
	if !ok {
		return fmt.Errorf("sqlkit: no pool registered under %q", poolName)
	}
	return pool.WithSession(ctx, kind, fn)
}

// WithSession checks a distinct connection out of the pool, constructs a
// session of the requested scope kind and runs fn with it.
//
// For AutoCommit each statement commits as issued. For LocalTx a transaction
// begins before fn runs; it commits when fn returns nil and rolls back when
// fn returns an error or panics. The original failure is what the caller
// receives, never a wrapper: a rollback failure is logged, not returned, and
// a commit failure is returned as-is. In every outcome the connection is
// back in the pool before the error reaches the caller. Nested WithSession
// calls each own their own connection checkout, even against the same pool.
func (p *Pool) WithSession(ctx context.Context, kind ScopeKind, fn func(*Session) error) error {
	if p == nil || p.db == nil {
		return errors.New("nil pool")
	}
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		p.logConnection(ctx, "release", 0, nil)
		conn.Close()
	}()

	session := &Session{conn: conn, pool: p, kind: kind}
	if kind == AutoCommit {
		return fn(session)
	}
	return p.runLocalTx(ctx, conn, session, fn)
}

func (p *Pool) runLocalTx(ctx context.Context, conn *sql.Conn, session *Session, fn func(*Session) error) error {
	start := time.Now()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		p.logTransaction(ctx, "begin", time.Since(start), err)
		return err
	}
	session.tx = tx

	defer func() {
		if r := recover(); r != nil {
			aborted := &TxAbortedError{Cause: fmt.Errorf("panic: %v", r)}
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logTransaction(ctx, "rollback", time.Since(start), rbErr)
			} else {
				p.logTransaction(ctx, "rollback", time.Since(start), aborted)
			}
			p.recordTransaction(ctx, time.Since(start), aborted)
			panic(r)
		}
	}()

	if err := fn(session); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logTransaction(ctx, "rollback", time.Since(start), rbErr)
		} else {
			p.logTransaction(ctx, "rollback", time.Since(start), &TxAbortedError{Cause: err})
		}
		p.recordTransaction(ctx, time.Since(start), err)
		return err
	}

	if err := tx.Commit(); err != nil {
		p.logTransaction(ctx, "commit", time.Since(start), err)
		p.recordTransaction(ctx, time.Since(start), err)
		return err
	}
	p.logTransaction(ctx, "commit", time.Since(start), nil)
	p.recordTransaction(ctx, time.Since(start), nil)
	return nil
}

// Exec binds args, runs the statement through the executor chain and returns
// the driver result. In a LocalTx session the statement joins the session's
// transaction.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	st, err := newStatement(query, args, s.pool.getLogger())
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := runTyped(ctx, s.pool.executor, "exec", st, func() (sql.Result, error) {
		if s.tx != nil {
			return s.tx.ExecContext(ctx, st.SQL, st.params...)
		}
		return s.conn.ExecContext(ctx, st.SQL, st.params...)
	})
	s.pool.logQuery(ctx, "exec", st.SQL, len(st.params), time.Since(start), err)
	return res, err
}

// Update runs Exec and returns the affected row count.
func (s *Session) Update(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query binds args, runs the query through the executor chain and returns a
// lazy row sequence. The caller owns the result set and must exhaust or
// close it before issuing further statements on this session.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*RowSeq, error) {
	st, err := newStatement(query, args, s.pool.getLogger())
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := runTyped(ctx, s.pool.executor, "query", st, func() (*sql.Rows, error) {
		if s.tx != nil {
			return s.tx.QueryContext(ctx, st.SQL, st.params...)
		}
		return s.conn.QueryContext(ctx, st.SQL, st.params...)
	})
	s.pool.logQuery(ctx, "query", st.SQL, len(st.params), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return NewRowSeq(rows), nil
}

// ForEach runs the query and invokes fn once per row, closing the result set
// when iteration ends or fn fails.
func (s *Session) ForEach(ctx context.Context, query string, fn func(*RowView) error, args ...any) error {
	seq, err := s.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer seq.Close()
	for {
		row, ok := seq.Next()
		if !ok {
			break
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return seq.Err()
}

// ExecBatch prepares the template once and executes every accumulated batch
// entry against it, exactly once each, in order. It stops at the first
// failing entry and returns the driver error unchanged. The whole batch runs
// as one instrumented call, so a trace renders all entries together.
func (s *Session) ExecBatch(ctx context.Context, st *StatementTemplate) (int64, error) {
	if st == nil || !st.batchMode {
		return 0, errors.New("sqlkit: ExecBatch requires a batch statement")
	}
	start := time.Now()
	total, err := runTyped(ctx, s.pool.executor, "batch", st, func() (int64, error) {
		var (
			stmt *sql.Stmt
			err  error
		)
		if s.tx != nil {
			stmt, err = s.tx.PrepareContext(ctx, st.SQL)
		} else {
			stmt, err = s.conn.PrepareContext(ctx, st.SQL)
		}
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		var affected int64
		for _, entry := range st.batch {
			res, err := stmt.ExecContext(ctx, entry...)
			if err != nil {
				return affected, err
			}
			if n, raErr := res.RowsAffected(); raErr == nil {
				affected += n
			}
		}
		return affected, nil
	})
	s.pool.logQuery(ctx, "batch", st.SQL, st.BatchSize(), time.Since(start), err)
	return total, err
}
