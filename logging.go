package sqlkit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// TraceSettings controls statement trace logging.
type TraceSettings struct {
	Enabled       bool          // master toggle for the trace decorator
	WarnEnabled   bool          // escalate slow statements to WarnLevel
	WarnThreshold time.Duration // elapsed time at or above which a statement is slow
	Level         slog.Level    // level for ordinary statement traces
	WarnLevel     slog.Level    // level for slow statement traces
}

// DefaultTraceSettings returns the default trace configuration.
func DefaultTraceSettings() TraceSettings {
	return TraceSettings{
		Enabled:       false,
		WarnEnabled:   true,
		WarnThreshold: time.Second,
		Level:         slog.LevelDebug,
		WarnLevel:     slog.LevelWarn,
	}
}

// TraceSettingsManager holds reloadable trace settings. Each statement call
// reads the settings atomically, so a configuration reload affects only
// subsequent calls, never one in flight.
type TraceSettingsManager struct {
	mu       sync.RWMutex
	settings TraceSettings
}

// NewTraceSettingsManager creates a manager seeded with settings.
func NewTraceSettingsManager(settings TraceSettings) *TraceSettingsManager {
	return &TraceSettingsManager{settings: settings}
}

// Get returns the current settings.
func (m *TraceSettingsManager) Get() TraceSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Update replaces the settings.
func (m *TraceSettingsManager) Update(settings TraceSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// SetEnabled toggles trace logging.
func (m *TraceSettingsManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Enabled = enabled
}

// IsEnabled reports whether trace logging is on.
func (m *TraceSettingsManager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Enabled
}

// SetWarnThreshold sets the slow-statement threshold.
func (m *TraceSettingsManager) SetWarnThreshold(threshold time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.WarnThreshold = threshold
}

// GetWarnThreshold returns the slow-statement threshold.
func (m *TraceSettingsManager) GetWarnThreshold() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.WarnThreshold
}

var defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// EnableLogging enables or disables structured logging for this pool.
func (p *Pool) EnableLogging(enabled bool) {
	if p == nil {
		return
	}
	p.loggingEnabled = enabled
	if enabled && p.logger == nil {
		p.logger = defaultLogger
	}
}

// SetLogger sets a custom logger for this pool.
func (p *Pool) SetLogger(logger *slog.Logger) {
	if p == nil {
		return
	}
	p.logger = logger
}

// getLogger returns the pool logger when logging is enabled.
func (p *Pool) getLogger() *slog.Logger {
	if p == nil || !p.loggingEnabled {
		return nil
	}
	return p.logger
}

// logQuery logs one statement execution with structured fields.
func (p *Pool) logQuery(ctx context.Context, operation, query string, argCount int, duration time.Duration, err error) {
	if p == nil || !p.loggingEnabled || p.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}
	if argCount > 0 {
		attrs = append(attrs, slog.Int("arg_count", argCount))
	}

	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			attrs = append(attrs, slog.Int("error_code", int(mysqlErr.Number)))
		}
		p.logger.LogAttrs(ctx, slog.LevelError, "database query executed", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "success"))
	p.logger.LogAttrs(ctx, slog.LevelInfo, "database query executed", attrs...)
}

// logTransaction logs transaction scope events (begin/commit/rollback).
func (p *Pool) logTransaction(ctx context.Context, event string, duration time.Duration, err error) {
	if p == nil || !p.loggingEnabled || p.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", event),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		p.logger.LogAttrs(ctx, slog.LevelError, "database transaction event", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "success"))
	p.logger.LogAttrs(ctx, slog.LevelInfo, "database transaction event", attrs...)
}

// logConnection logs connection checkout/return events.
func (p *Pool) logConnection(ctx context.Context, event string, duration time.Duration, err error) {
	if p == nil || !p.loggingEnabled || p.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", event),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		p.logger.LogAttrs(ctx, slog.LevelError, "database connection event", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "success"))
	p.logger.LogAttrs(ctx, slog.LevelDebug, "database connection event", attrs...)
}

// PoolStats represents connection pool statistics.
type PoolStats struct {
	ActiveConnections int
	IdleConnections   int
	TotalConnections  int
	MaxOpen           int
}

// GetPoolStats returns current pool statistics.
func (p *Pool) GetPoolStats() PoolStats {
	if p == nil || p.db == nil {
		return PoolStats{}
	}
	stats := p.db.Stats()
	return PoolStats{
		ActiveConnections: stats.InUse,
		IdleConnections:   stats.Idle,
		TotalConnections:  stats.OpenConnections,
		MaxOpen:           stats.MaxOpenConnections,
	}
}
