package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_JobRunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	id, err := s.StartJobRun(ctx, "tokens.update")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := s.ListJobRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, JobRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)

	require.NoError(t, s.FinishJobRun(ctx, id, true, "3 locations"))

	runs, err = s.ListJobRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, JobSucceeded, runs[0].Status)
	assert.Equal(t, "3 locations", runs[0].Detail)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestSQLite_FinishJobRun_Failure(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	id, err := s.StartJobRun(ctx, "tokens.update")
	require.NoError(t, err)
	require.NoError(t, s.FinishJobRun(ctx, id, false, "agency refresh failed"))

	runs, err := s.ListJobRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, JobFailed, runs[0].Status)
}

func TestSQLite_FinishJobRun_UnknownID(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	err := s.FinishJobRun(context.Background(), "no-such-run", true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_WebhookEvents(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.RecordWebhookEvent(ctx, WebhookEvent{
		LocationID:    "loc-1",
		Status:        WebhookProcessed,
		ContactID:     "contact-1",
		OpportunityID: "opp-1",
		ProposalValue: 19955.63,
	}))
	require.NoError(t, s.RecordWebhookEvent(ctx, WebhookEvent{
		LocationID: "loc-2",
		Status:     WebhookFailed,
		Error:      "ghl: status 403",
	}))

	events, err := s.ListWebhookEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byLocation := map[string]WebhookEvent{}
	for _, ev := range events {
		byLocation[ev.LocationID] = ev
	}
	assert.Equal(t, WebhookProcessed, byLocation["loc-1"].Status)
	assert.Equal(t, "contact-1", byLocation["loc-1"].ContactID)
	assert.InDelta(t, 19955.63, byLocation["loc-1"].ProposalValue, 0.001)
	assert.Equal(t, WebhookFailed, byLocation["loc-2"].Status)
	assert.Equal(t, "ghl: status 403", byLocation["loc-2"].Error)
}

func TestOpen_NopWhenDisabled(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{Driver: "none"})
	require.NoError(t, err)
	_, ok := s.(NopStore)
	assert.True(t, ok)

	s, err = Open(context.Background(), Config{})
	require.NoError(t, err)
	_, ok = s.(NopStore)
	assert.True(t, ok)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
