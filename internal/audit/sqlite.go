package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "audit sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "audit sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS job_runs (
	id          TEXT PRIMARY KEY,
	job         TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	detail      TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS webhook_events (
	id             TEXT PRIMARY KEY,
	location_id    TEXT NOT NULL,
	status         TEXT NOT NULL,
	contact_id     TEXT,
	opportunity_id TEXT,
	error          TEXT,
	proposal_value REAL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_job_runs_started_at ON job_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_webhook_events_location ON webhook_events(location_id);
CREATE INDEX IF NOT EXISTS idx_webhook_events_created_at ON webhook_events(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "audit sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartJobRun(ctx context.Context, job string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_runs (id, job, status, started_at) VALUES (?, ?, ?, ?)`,
		id, job, JobRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "audit sqlite: insert job run")
	}
	return id, nil
}

func (s *SQLiteStore) FinishJobRun(ctx context.Context, runID string, ok bool, detail string) error {
	status := JobSucceeded
	if !ok {
		status = JobFailed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`,
		status, detail, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "audit sqlite: finish job run %s", runID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return eris.Errorf("audit sqlite: job run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) RecordWebhookEvent(ctx context.Context, ev WebhookEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, location_id, status, contact_id, opportunity_id, error, proposal_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.LocationID, ev.Status, nullable(ev.ContactID), nullable(ev.OpportunityID), nullable(ev.Error), ev.ProposalValue, ev.CreatedAt,
	)
	return eris.Wrap(err, "audit sqlite: insert webhook event")
}

func (s *SQLiteStore) ListJobRuns(ctx context.Context, limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job, status, detail, started_at, finished_at FROM job_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "audit sqlite: list job runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []JobRun
	for rows.Next() {
		var (
			run      JobRun
			detail   sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.Job, &run.Status, &detail, &run.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "audit sqlite: scan job run")
		}
		run.Detail = detail.String
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "audit sqlite: iterate job runs")
}

func (s *SQLiteStore) ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location_id, status, contact_id, opportunity_id, error, proposal_value, created_at
		 FROM webhook_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "audit sqlite: list webhook events")
	}
	defer rows.Close() //nolint:errcheck

	var events []WebhookEvent
	for rows.Next() {
		var (
			ev                    WebhookEvent
			contact, opp, errText sql.NullString
			value                 sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &ev.LocationID, &ev.Status, &contact, &opp, &errText, &value, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "audit sqlite: scan webhook event")
		}
		ev.ContactID = contact.String
		ev.OpportunityID = opp.String
		ev.Error = errText.String
		ev.ProposalValue = value.Float64
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "audit sqlite: iterate webhook events")
}

// nullable maps "" to NULL so empty optional columns stay NULL in the table.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
