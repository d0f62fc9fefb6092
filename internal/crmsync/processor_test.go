package crmsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enersol/solar-pricing/internal/audit"
	"github.com/enersol/solar-pricing/internal/tokenstore"
	"github.com/enersol/solar-pricing/pkg/ghl"
)

type fakeClient struct {
	ghl.Client

	upsertContact     func(ctx context.Context, token string, payload map[string]any) (*ghl.Contact, error)
	createOpportunity func(ctx context.Context, token string, payload map[string]any) (*ghl.Opportunity, error)
}

func (f *fakeClient) UpsertContact(ctx context.Context, token string, payload map[string]any) (*ghl.Contact, error) {
	return f.upsertContact(ctx, token, payload)
}

func (f *fakeClient) CreateOpportunity(ctx context.Context, token string, payload map[string]any) (*ghl.Opportunity, error) {
	return f.createOpportunity(ctx, token, payload)
}

type recordingAudit struct {
	audit.NopStore

	events []audit.WebhookEvent
}

func (r *recordingAudit) RecordWebhookEvent(_ context.Context, ev audit.WebhookEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func seededStore(t *testing.T) *tokenstore.Store {
	t.Helper()
	store, err := tokenstore.New(t.TempDir())
	require.NoError(t, err)

	loc := tokenstore.LocationRecord{"_id": "loc-1", "name": "Campinas"}
	loc.SetTokenData(map[string]any{"access_token": "loc-token"})
	require.NoError(t, store.SaveLocations([]tokenstore.LocationRecord{loc}))
	return store
}

func testProcessor(t *testing.T, client ghl.Client) (*Processor, *recordingAudit) {
	t.Helper()
	rec := &recordingAudit{}
	cfg := Config{PipelineID: "pipe-1", PipelineStageID: "stage-1"}
	return NewProcessor(seededStore(t), testFields(), client, rec, cfg), rec
}

func TestProcessProposal_Success(t *testing.T) {
	t.Parallel()

	var contactPayload, oppPayload map[string]any
	client := &fakeClient{
		upsertContact: func(_ context.Context, token string, payload map[string]any) (*ghl.Contact, error) {
			assert.Equal(t, "loc-token", token)
			contactPayload = payload
			return &ghl.Contact{ID: "contact-9"}, nil
		},
		createOpportunity: func(_ context.Context, token string, payload map[string]any) (*ghl.Opportunity, error) {
			assert.Equal(t, "loc-token", token)
			oppPayload = payload
			return &ghl.Opportunity{ID: "opp-3"}, nil
		},
	}
	proc, rec := testProcessor(t, client)

	err := proc.ProcessProposal(context.Background(), "loc-1", fullPayload())
	require.NoError(t, err)

	assert.Equal(t, "loc-1", contactPayload["locationId"])
	assert.Equal(t, "Maria Silva", contactPayload["name"])

	assert.Equal(t, "pipe-1", oppPayload["pipelineId"])
	assert.Equal(t, "stage-1", oppPayload["stageId"])
	assert.Equal(t, "Proposta Maria", oppPayload["name"])
	assert.Equal(t, "contact-9", oppPayload["contactId"])
	assert.Equal(t, "open", oppPayload["status"])
	assert.Equal(t, 19955.63, oppPayload["monetaryValue"])

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, audit.WebhookProcessed, ev.Status)
	assert.Equal(t, "loc-1", ev.LocationID)
	assert.Equal(t, "contact-9", ev.ContactID)
	assert.Equal(t, "opp-3", ev.OpportunityID)
	assert.Equal(t, 19955.63, ev.ProposalValue)
}

func TestProcessProposal_NoValueOmitsMonetaryValue(t *testing.T) {
	t.Parallel()

	var oppPayload map[string]any
	client := &fakeClient{
		upsertContact: func(context.Context, string, map[string]any) (*ghl.Contact, error) {
			return &ghl.Contact{ID: "contact-9"}, nil
		},
		createOpportunity: func(_ context.Context, _ string, payload map[string]any) (*ghl.Opportunity, error) {
			oppPayload = payload
			return &ghl.Opportunity{ID: "opp-3"}, nil
		},
	}
	proc, _ := testProcessor(t, client)

	p := fullPayload()
	p.ValorProposta = nil
	require.NoError(t, proc.ProcessProposal(context.Background(), "loc-1", p))
	assert.NotContains(t, oppPayload, "monetaryValue")
}

func TestProcessProposal_UnknownLocation(t *testing.T) {
	t.Parallel()

	proc, _ := testProcessor(t, &fakeClient{})

	err := proc.ProcessProposal(context.Background(), "loc-missing", fullPayload())
	require.ErrorIs(t, err, tokenstore.ErrUnknownLocation)
}

func TestProcessProposal_MissingLocationToken(t *testing.T) {
	t.Parallel()

	store, err := tokenstore.New(t.TempDir())
	require.NoError(t, err)
	loc := tokenstore.LocationRecord{"_id": "loc-2", "name": "Sem token"}
	require.NoError(t, store.SaveLocations([]tokenstore.LocationRecord{loc}))

	proc := NewProcessor(store, testFields(), &fakeClient{}, &recordingAudit{}, Config{})
	err = proc.ProcessProposal(context.Background(), "loc-2", fullPayload())
	require.ErrorIs(t, err, tokenstore.ErrMissingLocationToken)
}

func TestProcessProposal_EmptyContactID(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		upsertContact: func(context.Context, string, map[string]any) (*ghl.Contact, error) {
			return &ghl.Contact{}, nil
		},
	}
	proc, _ := testProcessor(t, client)

	err := proc.ProcessProposal(context.Background(), "loc-1", fullPayload())
	require.ErrorIs(t, err, ErrNoContactID)
}

func TestProcessProposal_UpsertFailure(t *testing.T) {
	t.Parallel()

	apiErr := &ghl.APIError{StatusCode: 422, Body: `{"message":"bad phone"}`}
	client := &fakeClient{
		upsertContact: func(context.Context, string, map[string]any) (*ghl.Contact, error) {
			return nil, apiErr
		},
	}
	proc, _ := testProcessor(t, client)

	err := proc.ProcessProposal(context.Background(), "loc-1", fullPayload())
	require.ErrorIs(t, err, apiErr)
}

func TestRun_RecordsFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		upsertContact: func(context.Context, string, map[string]any) (*ghl.Contact, error) {
			return nil, &ghl.APIError{StatusCode: 401, Body: `{"message":"expired"}`}
		},
	}
	proc, rec := testProcessor(t, client)

	proc.Run(context.Background(), "loc-1", fullPayload())

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, audit.WebhookFailed, ev.Status)
	assert.Equal(t, "loc-1", ev.LocationID)
	assert.Contains(t, ev.Error, "status 401")
}

func TestRun_SuccessRecordsProcessed(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		upsertContact: func(context.Context, string, map[string]any) (*ghl.Contact, error) {
			return &ghl.Contact{ID: "contact-9"}, nil
		},
		createOpportunity: func(context.Context, string, map[string]any) (*ghl.Opportunity, error) {
			return &ghl.Opportunity{ID: "opp-3"}, nil
		},
	}
	proc, rec := testProcessor(t, client)

	proc.Run(context.Background(), "loc-1", fullPayload())

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.WebhookProcessed, rec.events[0].Status)
}
