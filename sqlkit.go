// Package sqlkit provides a typed statement execution and session/transaction
// layer over database/sql.
//
// # Overview
//
// sqlkit sits between application code and a SQL driver and offers:
//   - Typed binding of application values into positional statement parameters
//   - Human-readable SQL trace rendering for diagnostics
//   - A decorator chain for timing, tracing and metering statement execution
//   - Lazy, cursor-tracked traversal of query results
//   - Named connection pools with autocommit and local-transaction sessions
//
// # Quick Start
//
//	import "github.com/taka-/sqlkit"
//
//	config := sqlkit.Config{
//		Host:     "localhost",
//		Port:     3306,
//		Username: "user",
//		Password: "password",
//		Database: "mydb",
//	}
//
//	ctx := context.Background()
//	pool, err := sqlkit.NewPool(ctx, config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sqlkit.RegisterPool("primary", pool)
//	defer sqlkit.CloseAll()
//
//	err = sqlkit.WithSession(ctx, "primary", sqlkit.AutoCommit, func(s *sqlkit.Session) error {
//		_, err := s.Exec(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", "Alice", 30)
//		return err
//	})
//
// # Transactions
//
// A local-transaction session commits when the unit of work returns nil and
// rolls back on any error or panic. The original failure is returned to the
// caller unchanged, after the connection has gone back to the pool:
//
//	err = sqlkit.WithSession(ctx, "primary", sqlkit.LocalTx, func(s *sqlkit.Session) error {
//		if _, err := s.Exec(ctx, "UPDATE accounts SET balance = balance - ? WHERE id = ?", 100, from); err != nil {
//			return err
//		}
//		_, err := s.Exec(ctx, "UPDATE accounts SET balance = balance + ? WHERE id = ?", 100, to)
//		return err
//	})
//
// # Instrumentation
//
// Statement execution runs through a decorator chain composed once at pool
// construction. Trace logging, OpenTelemetry spans and metrics are all
// decorators; disabling any of them leaves a single flag check on the hot
// path and never changes call sites.
//
// # Configuration
//
// Pools accept programmatic configuration and SQLKIT_* environment variable
// overrides (e.g. SQLKIT_HOST, SQLKIT_DSN).
package sqlkit

// Version returns the current library version.
//
// This version follows semantic versioning (semver) principles.
// During development, it returns "v0.0.0-dev".
func Version() string { return "v0.0.0-dev" }
