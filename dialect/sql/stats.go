package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/selectq/dialect"
)

// QueryStats collects statement statistics. It is safe for concurrent use.
type QueryStats struct {
	mu   sync.Mutex
	snap StatsSnapshot
}

// Snapshot returns a copy of the current statistics.
func (s *QueryStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset sets all statistics back to zero.
func (s *QueryStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = StatsSnapshot{}
}

func (s *QueryStats) observe(query string, isQuery bool, d time.Duration, err error, slow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isQuery {
		s.snap.Queries++
	} else {
		s.snap.Execs++
	}
	if err != nil {
		s.snap.Errors++
	}
	if slow {
		s.snap.Slow++
	}
	s.snap.Total += d
	if d > s.snap.Slowest {
		s.snap.Slowest, s.snap.SlowestQuery = d, query
	}
}

func (s *QueryStats) begin() {
	s.mu.Lock()
	s.snap.Transactions++
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries      int64
	Execs        int64
	Transactions int64
	Errors       int64
	Slow         int64
	Total        time.Duration
	Slowest      time.Duration
	SlowestQuery string
}

// Statements returns the number of queries and execs.
func (s StatsSnapshot) Statements() int64 { return s.Queries + s.Execs }

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	if n := s.Statements(); n > 0 {
		return s.Total / time.Duration(n)
	}
	return 0
}

// String returns a one-line summary.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d tx=%d errors=%d slow=%d total=%s avg=%s",
		s.Queries, s.Execs, s.Transactions, s.Errors, s.Slow, s.Total, s.Avg())
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("queries", s.Queries),
		slog.Int64("execs", s.Execs),
		slog.Int64("tx", s.Transactions),
		slog.Int64("errors", s.Errors),
		slog.Int64("slow", s.Slow),
		slog.Duration("avg", s.Avg()),
		slog.Duration("slowest", s.Slowest),
	)
}

// SlowQueryHook is called for statements slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, took time.Duration)

// StatsDriver records statistics for every statement run through the
// wrapped driver and its transactions.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	threshold atomic.Int64
	hook      SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold. The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.threshold.Store(int64(d)) }
}

// WithSlowQueryHook sets the callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) { s.hook = hook }
}

// WithSlowQueryLog logs slow statements at warn level. A nil logger logs to
// the default logger.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, took time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "took", took, "query", query, "args", len(args))
	})
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv, _ := sql.Open("pgx", dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowThreshold(200*time.Millisecond))
//	err := sql.QuerySelector(ctx, stats, selector, &rows)
//	slog.Info("done", "stats", stats.QueryStats().Snapshot())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}}
	s.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the collected statistics.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

// SlowThreshold returns the slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.threshold.Store(int64(threshold))
}

// Query implements dialect.Driver.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.measure(ctx, query, args, true, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.Driver.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.measure(ctx, query, args, false, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction whose statements are recorded too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.stats.begin()
	return &statsTx{Tx: tx, drv: d}, nil
}

func (d *StatsDriver) measure(ctx context.Context, query string, args any, isQuery bool, run func() error) error {
	start := time.Now()
	err := run()
	took := time.Since(start)
	slow := took > d.SlowThreshold()
	d.stats.observe(query, isQuery, took, err, slow)
	if slow && d.hook != nil {
		argv, _ := args.([]any)
		d.hook(ctx, query, argv, took)
	}
	return err
}

type statsTx struct {
	dialect.Tx
	drv *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.drv.measure(ctx, query, args, true, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.drv.measure(ctx, query, args, false, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

// DebugDriver logs every statement of the wrapped driver at debug level,
// tagged with a correlation id.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv with debug logging. A nil logger logs to the
// default logger.
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Query implements dialect.Driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.trace(ctx, "query", query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.Driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.trace(ctx, "exec", query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction whose statements are logged too. Its log lines
// carry the transaction id as "tx".
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "begin failed", "error", err)
		return nil, err
	}
	logger := d.logger.With("tx", uuid.NewString())
	logger.DebugContext(ctx, "begin", "dialect", d.Dialect())
	return &debugTx{Tx: tx, drv: &DebugDriver{Driver: d.Driver, logger: logger}}, nil
}

func (d *DebugDriver) trace(ctx context.Context, op, query string, args any, run func() error) error {
	logger := d.logger.With("id", uuid.NewString())
	logger.DebugContext(ctx, op, "dialect", d.Dialect(), "query", query, "args", args)
	start := time.Now()
	if err := run(); err != nil {
		logger.ErrorContext(ctx, "statement failed", "took", time.Since(start), "error", err)
		return err
	}
	logger.DebugContext(ctx, "statement done", "took", time.Since(start))
	return nil
}

type debugTx struct {
	dialect.Tx
	drv *DebugDriver
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.drv.trace(ctx, "query", query, args, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.drv.trace(ctx, "exec", query, args, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

func (tx *debugTx) Commit() error {
	err := tx.Tx.Commit()
	tx.drv.logger.Debug("commit", "error", err)
	return err
}

func (tx *debugTx) Rollback() error {
	err := tx.Tx.Rollback()
	tx.drv.logger.Debug("rollback", "error", err)
	return err
}

var (
	_ dialect.Tx     = (*debugTx)(nil)
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ SelectQuerier  = (*StatsDriver)(nil)
	_ SelectQuerier  = (*DebugDriver)(nil)
)
