package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "audit postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "audit postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "audit postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS job_runs (
	id          TEXT PRIMARY KEY,
	job         TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	detail      TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS webhook_events (
	id             TEXT PRIMARY KEY,
	location_id    TEXT NOT NULL,
	status         TEXT NOT NULL,
	contact_id     TEXT,
	opportunity_id TEXT,
	error          TEXT,
	proposal_value DOUBLE PRECISION,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_job_runs_started_at ON job_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_webhook_events_location ON webhook_events(location_id);
CREATE INDEX IF NOT EXISTS idx_webhook_events_created_at ON webhook_events(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "audit postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) StartJobRun(ctx context.Context, job string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_runs (id, job, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, job, JobRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "audit postgres: insert job run")
	}
	return id, nil
}

func (s *PostgresStore) FinishJobRun(ctx context.Context, runID string, ok bool, detail string) error {
	status := JobSucceeded
	if !ok {
		status = JobFailed
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_runs SET status = $1, detail = $2, finished_at = $3 WHERE id = $4`,
		status, detail, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "audit postgres: finish job run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("audit postgres: job run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) RecordWebhookEvent(ctx context.Context, ev WebhookEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webhook_events (id, location_id, status, contact_id, opportunity_id, error, proposal_value, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.LocationID, ev.Status, nullable(ev.ContactID), nullable(ev.OpportunityID), nullable(ev.Error), ev.ProposalValue, ev.CreatedAt,
	)
	return eris.Wrap(err, "audit postgres: insert webhook event")
}

func (s *PostgresStore) ListJobRuns(ctx context.Context, limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, job, status, detail, started_at, finished_at FROM job_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "audit postgres: list job runs")
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var (
			run    JobRun
			detail *string
		)
		if err := rows.Scan(&run.ID, &run.Job, &run.Status, &detail, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "audit postgres: scan job run")
		}
		if detail != nil {
			run.Detail = *detail
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "audit postgres: iterate job runs")
}

func (s *PostgresStore) ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, location_id, status, contact_id, opportunity_id, error, proposal_value, created_at
		 FROM webhook_events ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "audit postgres: list webhook events")
	}
	defer rows.Close()

	var events []WebhookEvent
	for rows.Next() {
		var (
			ev                    WebhookEvent
			contact, opp, errText *string
			value                 *float64
		)
		if err := rows.Scan(&ev.ID, &ev.LocationID, &ev.Status, &contact, &opp, &errText, &value, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "audit postgres: scan webhook event")
		}
		if contact != nil {
			ev.ContactID = *contact
		}
		if opp != nil {
			ev.OpportunityID = *opp
		}
		if errText != nil {
			ev.Error = *errText
		}
		if value != nil {
			ev.ProposalValue = *value
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "audit postgres: iterate webhook events")
}
