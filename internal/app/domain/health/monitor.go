// Package health checks the analysis backend on a cron schedule and keeps the
// latest result for the navbar indicator and the CMS.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/app/observability/metrics"
)

// Checker is satisfied by the backend client.
type Checker interface {
	Health(ctx context.Context) error
}

// Status is the outcome of the most recent check.
type Status struct {
	Up        bool
	Checked   bool
	Latency   time.Duration
	LastCheck time.Time
	LastError string
}

type Monitor struct {
	checker  Checker
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
	cron     *cron.Cron

	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

func NewMonitor(checker Checker, schedule string, timeout time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{
		checker:  checker,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger.Named("health"),
		cron:     cron.New(cron.WithLogger(newCronLogger(logger.Named("cron")))),
		now:      time.Now,
	}
}

// Start runs one check immediately and schedules the rest. An empty schedule
// disables periodic probing.
func (m *Monitor) Start(ctx context.Context) error {
	if m.schedule == "" {
		m.logger.Warn("Health check schedule not set, backend status is only checked on demand")
		return nil
	}
	id, err := m.cron.AddFunc(m.schedule, func() { m.Check(context.Background()) })
	if err != nil {
		return fmt.Errorf("schedule health check %q: %w", m.schedule, err)
	}
	m.logger.Info("Health check scheduled", zap.String("schedule", m.schedule), zap.Int("jobID", int(id)))
	m.Check(ctx)
	m.cron.Start()
	return nil
}

// Stop waits for a running check to finish, up to the check timeout.
func (m *Monitor) Stop() {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
		m.logger.Info("Health check scheduler stopped")
	case <-time.After(m.timeout):
		m.logger.Warn("Health check scheduler stop timed out")
	}
}

// Check queries the backend now and records the outcome.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := m.now()
	err := m.checker.Health(ctx)
	st := Status{
		Up:        err == nil,
		Checked:   true,
		Latency:   m.now().Sub(start),
		LastCheck: start,
	}
	if err != nil {
		st.LastError = err.Error()
	}

	m.mu.Lock()
	prev := m.status
	m.status = st
	m.mu.Unlock()

	up := int64(0)
	if st.Up {
		up = 1
	}
	metrics.Get().BackendUp.Record(ctx, up)

	switch {
	case !st.Up && (prev.Up || !prev.Checked):
		m.logger.Warn("Backend is down", zap.String("error", st.LastError))
	case st.Up && !prev.Up:
		m.logger.Info("Backend is up", zap.Duration("latency", st.Latency))
	default:
		m.logger.Debug("Backend health checked", zap.Bool("up", st.Up), zap.Duration("latency", st.Latency))
	}
	return st
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Badge is the navbar view of the status.
func (m *Monitor) Badge() models.HealthBadge {
	st := m.Status()
	b := models.HealthBadge{Up: st.Up, Checked: st.Checked}
	if st.Checked && !st.Up {
		b.Detail = "last checked " + st.LastCheck.Format(time.Kitchen)
	}
	return b
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	zl *zap.Logger
}

func newCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...any) {
	cl.zl.Debug(msg, fields(keysAndValues)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	cl.zl.Error(msg, append(fields(keysAndValues), zap.Error(err))...)
}

func fields(keysAndValues []any) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			out = append(out, zap.Any(key, keysAndValues[i+1]))
		} else {
			out = append(out, zap.String(key, "MISSING_VALUE"))
		}
	}
	return out
}
