package sqlkit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := NewSQLiteTestPool(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func createMembersTable(t *testing.T, pool *Pool) {
	t.Helper()
	err := pool.WithSession(context.Background(), AutoCommit, func(s *Session) error {
		_, err := s.Exec(context.Background(),
			`CREATE TABLE members (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL
			)`)
		return err
	})
	require.NoError(t, err)
}

func TestSQLitePool_OpenAndPing(t *testing.T) {
	pool := newTestPool(t)
	assert.NoError(t, pool.Ping(context.Background()))

	stats := pool.GetPoolStats()
	assert.Equal(t, 5, stats.MaxOpen)
}

func TestSQLitePool_MemberLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	createMembersTable(t, pool)

	// Insert and read back the generated key.
	err := pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		res, err := s.Exec(ctx, "INSERT INTO members (name) VALUES (?)", "Alice")
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), id)
		return nil
	})
	require.NoError(t, err)

	// Find by primary key.
	var name string
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT name FROM members WHERE id = ?", func(row *RowView) error {
			return row.Scan(&name)
		}, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	// Update inside a local transaction.
	err = pool.WithSession(ctx, LocalTx, func(s *Session) error {
		n, err := s.Update(ctx, "UPDATE members SET name = ? WHERE id = ?", "ALICE", 1)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)

	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT name FROM members WHERE id = ?", func(row *RowView) error {
			return row.Scan(&name)
		}, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, "ALICE", name)

	// Delete.
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		n, err := s.Update(ctx, "DELETE FROM members WHERE id = ?", 1)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestSQLitePool_LocalTxRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	createMembersTable(t, pool)

	boom := errors.New("abort after insert")
	err := pool.WithSession(ctx, LocalTx, func(s *Session) error {
		if _, err := s.Exec(ctx, "INSERT INTO members (id, name) VALUES (?, ?)", 999, "ghost"); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	var count int
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT COUNT(*) FROM members", func(row *RowView) error {
			return row.Scan(&count)
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLitePool_NestedSessionsOwnSeparateCheckouts(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	createMembersTable(t, pool)

	// The inner session commits on its own connection even though the outer
	// session's transaction rolls back.
	outerErr := errors.New("outer fails")
	err := pool.WithSession(ctx, LocalTx, func(outer *Session) error {
		innerErr := pool.WithSession(ctx, AutoCommit, func(inner *Session) error {
			_, err := inner.Exec(ctx, "INSERT INTO members (name) VALUES (?)", "committed-inner")
			return err
		})
		require.NoError(t, innerErr)
		return outerErr
	})
	assert.Same(t, outerErr, err)

	var names []string
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT name FROM members ORDER BY id", func(row *RowView) error {
			var n string
			if err := row.Scan(&n); err != nil {
				return err
			}
			names = append(names, n)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"committed-inner"}, names)
}

func TestSQLitePool_BatchInsert(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	createMembersTable(t, pool)

	st, err := NewBatchStatement("INSERT INTO members (name) VALUES (?)", "seed")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, st.AddBatch(name))
	}

	err = pool.WithSession(ctx, LocalTx, func(s *Session) error {
		n, err := s.ExecBatch(ctx, st)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(4), n)
		return nil
	})
	require.NoError(t, err)

	var count int
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT COUNT(*) FROM members", func(row *RowView) error {
			return row.Scan(&count)
		})
	})
	require.NoError(t, err)
	// The priming bind never executes; only the four appended entries do.
	assert.Equal(t, 4, count)
}

func TestSQLitePool_QueryPositions(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	createMembersTable(t, pool)

	err := pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		for _, name := range []string{"one", "two", "three"} {
			if _, err := s.Exec(ctx, "INSERT INTO members (name) VALUES (?)", name); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var positions []int
	err = pool.WithSession(ctx, AutoCommit, func(s *Session) error {
		return s.ForEach(ctx, "SELECT id FROM members ORDER BY id", func(row *RowView) error {
			positions = append(positions, row.Pos())
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, positions)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn := buildSQLiteDSN(SQLiteConfig{
		Path:        "/tmp/x.db",
		BusyTimeout: 2000000000, // 2s
		JournalMode: "WAL",
		Synchronous: "NORMAL",
	})
	assert.Equal(t,
		"/tmp/x.db?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)",
		dsn)
}

func TestBuildSQLiteDSN_Defaults(t *testing.T) {
	dsn := buildSQLiteDSN(SQLiteConfig{Path: ":memory:"})
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", dsn)
}
