package sqlkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Pool wraps a *sql.DB together with the pool-scoped instrumentation state:
// logger, trace settings and the executor decorator chain. Pools are
// registered under a name and looked up by sessions.
type Pool struct {
	db   *sql.DB
	name string

	logger         *slog.Logger
	loggingEnabled bool

	trace    *TraceSettingsManager
	executor *Executor

	telemetryEnabled bool
	metricsEnabled   bool
	metrics          *Metrics
	meterProvider    metric.MeterProvider
}

// NewPool opens a pool from cfg. Environment variables with the SQLKIT_
// prefix override cfg fields; the driver defaults to "mysql".
func NewPool(ctx context.Context, cfg Config) (*Pool, error) {
	applyEnv(&cfg)

	driverName := cfg.Driver
	if driverName == "" {
		driverName = "mysql"
	}
	dsn, err := dsnFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", driverName, err)
	}

	pc := cfg.Pool
	if pc == (PoolConfig{}) {
		pc = DefaultPoolConfig()
	}
	if err := ValidatePoolConfig(pc); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(pc.MaxOpen)
	db.SetMaxIdleConns(pc.MaxIdle)
	db.SetConnMaxLifetime(pc.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pc.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s pool: %w", driverName, err)
	}
	return newPoolFromDB(db), nil
}

// newPoolFromDB assembles a pool around an open database handle and composes
// its executor chain once: telemetry, then metrics, then trace logging, then
// the raw driver call.
func newPoolFromDB(db *sql.DB) *Pool {
	p := &Pool{
		db:     db,
		logger: defaultLogger,
		trace:  NewTraceSettingsManager(DefaultTraceSettings()),
	}
	p.executor = NewExecutor(
		TelemetryDecorator(p),
		MetricsDecorator(p),
		TraceDecorator(p.trace, func() *slog.Logger { return p.logger }),
	)
	return p
}

// Name returns the name this pool is registered under, if any.
func (p *Pool) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// TraceSettings returns the pool's reloadable trace settings manager.
func (p *Pool) TraceSettings() *TraceSettingsManager {
	if p == nil {
		return nil
	}
	return p.trace
}

// EnableTracing toggles statement trace logging.
func (p *Pool) EnableTracing(enabled bool) {
	if p == nil {
		return
	}
	p.trace.SetEnabled(enabled)
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errors.New("nil pool")
	}
	return p.db.PingContext(ctx)
}

// Close shuts the pool down.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// WithConn checks a connection out of the pool, runs fn with it and returns
// the connection afterwards. Most callers want WithSession instead; this is
// the raw escape hatch for driver-level work.
func (p *Pool) WithConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		p.logConnection(ctx, "release", 0, nil)
		conn.Close()
	}()
	return fn(conn)
}

// acquire checks a distinct connection out of the pool.
func (p *Pool) acquire(ctx context.Context) (*sql.Conn, error) {
	if p == nil || p.db == nil {
		return nil, errors.New("nil pool")
	}
	start := time.Now()
	conn, err := p.db.Conn(ctx)
	p.logConnection(ctx, "acquire", time.Since(start), err)
	return conn, err
}
