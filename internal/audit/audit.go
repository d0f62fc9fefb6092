// Package audit keeps a queryable history of token maintenance runs and
// webhook processing outcomes. SQLite is the default backend; Postgres is
// available for deployments that already run one. Audit failures are
// reported to the caller but are never fatal to the job being recorded.
package audit

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Job run statuses.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Webhook event statuses.
const (
	WebhookProcessed = "processed"
	WebhookFailed    = "failed"
)

// JobRun is one execution of a maintenance job (e.g. "tokens.update").
type JobRun struct {
	ID         string     `json:"id"`
	Job        string     `json:"job"`
	Status     string     `json:"status"`
	Detail     string     `json:"detail,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// WebhookEvent is the outcome of one background proposal-webhook job.
type WebhookEvent struct {
	ID            string    `json:"id"`
	LocationID    string    `json:"location_id"`
	Status        string    `json:"status"`
	ContactID     string    `json:"contact_id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	ProposalValue float64   `json:"proposal_value,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the audit persistence interface.
type Store interface {
	StartJobRun(ctx context.Context, job string) (string, error)
	FinishJobRun(ctx context.Context, runID string, ok bool, detail string) error
	RecordWebhookEvent(ctx context.Context, ev WebhookEvent) error
	ListJobRuns(ctx context.Context, limit int) ([]JobRun, error)
	ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the audit backend.
type Config struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// Open creates the configured Store and runs migrations. Driver "none"
// (or empty) returns a NopStore.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "none":
		return NopStore{}, nil
	case "sqlite":
		s, err = NewSQLite(cfg.DSN)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("audit: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NopStore discards everything. Used when auditing is disabled.
type NopStore struct{}

func (NopStore) StartJobRun(context.Context, string) (string, error)     { return "", nil }
func (NopStore) FinishJobRun(context.Context, string, bool, string) error { return nil }
func (NopStore) RecordWebhookEvent(context.Context, WebhookEvent) error  { return nil }
func (NopStore) ListJobRuns(context.Context, int) ([]JobRun, error)      { return nil, nil }
func (NopStore) ListWebhookEvents(context.Context, int) ([]WebhookEvent, error) {
	return nil, nil
}
func (NopStore) Migrate(context.Context) error { return nil }
func (NopStore) Close() error                  { return nil }
