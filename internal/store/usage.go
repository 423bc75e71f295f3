package store

import (
	"context"
	"database/sql"
	"time"
)

// UsageRow mirrors domain.UsageRecord.
type UsageRow struct {
	ID           int64
	Provider     string
	Model        *string
	Success      bool
	LatencyMs    int64
	ErrorMessage *string
	InputTokens  *int64
	OutputTokens *int64
	CostMicros   *int64
	CreatedAt    time.Time
}

// InsertUsage appends one usage row. Append-only: there is no update path.
func (s *Store) InsertUsage(ctx context.Context, r UsageRow) error {
	success := 0
	if r.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_usage
			(provider, model, success, latency_ms, error_message, input_tokens, output_tokens, cost_micros, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Provider, r.Model, success, r.LatencyMs, r.ErrorMessage, r.InputTokens, r.OutputTokens, r.CostMicros,
		nowString(r.CreatedAt))
	return err
}

// UsageStats is the aggregate refresh reads to build its context document.
type UsageStats struct {
	TotalCalls   int64
	SuccessRate  float64
	AvgLatencyMs float64
}

// Stats aggregates usage for (provider, workload). Since provider_usage does
// not carry a workload column directly (a call only knows provider/model),
// the caller passes the set of model names that belong to that workload;
// an empty set aggregates over the provider as a whole.
func (s *Store) Stats(ctx context.Context, provider string, models []string) (UsageStats, error) {
	q := `SELECT COUNT(*), COALESCE(SUM(success), 0), COALESCE(AVG(latency_ms), 0)
	      FROM provider_usage WHERE provider = ?`
	args := []any{provider}
	if len(models) > 0 {
		q += " AND model IN (" + placeholders(len(models)) + ")"
		for _, m := range models {
			args = append(args, m)
		}
	}
	var total, successes int64
	var avgLatency float64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&total, &successes, &avgLatency); err != nil {
		if err == sql.ErrNoRows {
			return UsageStats{}, nil
		}
		return UsageStats{}, err
	}
	stats := UsageStats{TotalCalls: total, AvgLatencyMs: avgLatency}
	if total > 0 {
		stats.SuccessRate = float64(successes) / float64(total)
	}
	return stats, nil
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
