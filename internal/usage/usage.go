// Package usage is the usage logger described in SPEC_FULL.md §4.3: a
// single Record operation that must not report success until the row is
// guaranteed durable within a bounded interval, backed by a buffered
// single-writer goroutine the way the teacher's internal/app/server.go
// drains its store-write queue.
package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/store"
)

// Record mirrors domain.UsageRecord.
type Record struct {
	Provider     domain.Provider
	Model        string
	Success      bool
	LatencyMs    int64
	ErrorMessage string
	InputTokens  *int64
	OutputTokens *int64
	CostMicros   *int64
}

type writeJob struct {
	record Record
	done   chan error
}

// Logger buffers usage writes onto a bounded channel drained by one
// goroutine, so concurrent requests never contend on a single DB writer.
type Logger struct {
	db     *store.Store
	jobs   chan writeJob
	log    *slog.Logger
	done   chan struct{}
	closed chan struct{}
}

// New starts the logger's writer goroutine. Close must be called to drain
// pending writes before the process exits.
func New(db *store.Store, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	l := &Logger{
		db:     db,
		jobs:   make(chan writeJob, 256),
		log:    log,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Logger) run() {
	defer close(l.closed)
	for {
		select {
		case job := <-l.jobs:
			job.done <- l.write(job.record)
		case <-l.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case job := <-l.jobs:
					job.done <- l.write(job.record)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(r Record) error {
	model := (*string)(nil)
	if r.Model != "" {
		m := r.Model
		model = &m
	}
	errMsg := (*string)(nil)
	if r.ErrorMessage != "" {
		e := r.ErrorMessage
		errMsg = &e
	}
	row := store.UsageRow{
		Provider:     string(r.Provider),
		Model:        model,
		Success:      r.Success,
		LatencyMs:    r.LatencyMs,
		ErrorMessage: errMsg,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		CostMicros:   r.CostMicros,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.db.InsertUsage(context.Background(), row); err != nil {
		l.log.Error("usage_write_failed", slog.String("provider", string(r.Provider)), slog.Any("error", err))
		return gwerrors.PersistenceError(err)
	}
	return nil
}

// Record enqueues r and blocks until it has been handed to the database —
// the call does not return until durability is guaranteed, satisfying the
// "not reported as recorded until flushed" contract.
func (l *Logger) Record(ctx context.Context, r Record) error {
	job := writeJob{record: r, done: make(chan error, 1)}
	select {
	case l.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats aggregates usage for (provider, workload) — the workload is resolved
// to its active model names via the catalog by the caller, since the usage
// table itself only records provider/model.
func (l *Logger) Stats(ctx context.Context, provider domain.Provider, models []string) (store.UsageStats, error) {
	stats, err := l.db.Stats(ctx, string(provider), models)
	if err != nil {
		return store.UsageStats{}, gwerrors.PersistenceError(err)
	}
	return stats, nil
}

// Close stops the writer goroutine after draining any queued writes.
func (l *Logger) Close() {
	close(l.done)
	<-l.closed
}
