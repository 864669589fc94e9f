package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturedeck/ai-engine/src/models"
)

// PostgresSink persists metrics to PostgreSQL. Rows are insert-only:
// the ai_metrics table is a pure event log with no updates or deletes
// in normal operation.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(dsn string) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// Migrate creates the metrics table if it does not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ai_metrics (
		id             TEXT PRIMARY KEY,
		task_type      TEXT NOT NULL,
		priority       TEXT NOT NULL,
		provider       TEXT NOT NULL DEFAULT '',
		model          TEXT NOT NULL DEFAULT '',
		user_id        TEXT NOT NULL DEFAULT '',
		session_id     TEXT NOT NULL DEFAULT '',
		prompt_length  INTEGER NOT NULL,
		tokens_used    INTEGER NOT NULL,
		cost_usd       DOUBLE PRECISION NOT NULL,
		latency_ms     BIGINT NOT NULL,
		cached         BOOLEAN NOT NULL,
		fallback_used  BOOLEAN NOT NULL,
		success        BOOLEAN NOT NULL,
		error_type     TEXT NOT NULL DEFAULT '',
		error_message  TEXT NOT NULL DEFAULT '',
		timestamp      TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ai_metrics_timestamp ON ai_metrics (timestamp);
	CREATE INDEX IF NOT EXISTS idx_ai_metrics_provider ON ai_metrics (provider, timestamp);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating metrics schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) Insert(ctx context.Context, m *models.Metric) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ai_metrics (
			id, task_type, priority, provider, model, user_id, session_id,
			prompt_length, tokens_used, cost_usd, latency_ms,
			cached, fallback_used, success, error_type, error_message, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, m.ID, m.TaskType, m.Priority, m.Provider, m.Model, m.UserID, m.SessionID,
		m.PromptLength, m.TokensUsed, m.Cost, m.Latency.Milliseconds(),
		m.Cached, m.FallbackUsed, m.Success, m.ErrorType, m.ErrorMessage, m.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting metric: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}
