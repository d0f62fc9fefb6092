package crmsync

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enersol/solar-pricing/internal/audit"
	"github.com/enersol/solar-pricing/internal/fieldmap"
	"github.com/enersol/solar-pricing/internal/tokenstore"
	"github.com/enersol/solar-pricing/pkg/ghl"
)

// ErrNoContactID means the contact upsert response carried no id, so the
// opportunity cannot be linked.
var ErrNoContactID = eris.New("crmsync: contact upsert response has no id")

// Config fixes the sales pipeline an opportunity lands in.
type Config struct {
	PipelineID      string
	PipelineStageID string
}

// Processor synchronizes one proposal into the CRM for one location.
type Processor struct {
	store  *tokenstore.Store
	fields fieldmap.Map
	client ghl.Client
	audit  audit.Store
	cfg    Config
}

// NewProcessor creates a Processor. audit may be audit.NopStore{}.
func NewProcessor(store *tokenstore.Store, fields fieldmap.Map, client ghl.Client, auditStore audit.Store, cfg Config) *Processor {
	return &Processor{store: store, fields: fields, client: client, audit: auditStore, cfg: cfg}
}

// ProcessProposal upserts the contact and creates the linked opportunity.
// The caller runs it detached from the HTTP request that delivered the
// webhook; the returned error is for logging and auditing only, never
// surfaced to the original caller.
func (p *Processor) ProcessProposal(ctx context.Context, locationID string, payload ProposalPayload) error {
	log := zap.L().With(zap.String("locationId", locationID))

	token, err := p.store.LocationAccessToken(locationID)
	if err != nil {
		return eris.Wrapf(err, "crmsync: resolve token for location %s", locationID)
	}

	contactPayload := BuildContactPayload(payload, locationID, p.fields)
	contact, err := p.client.UpsertContact(ctx, token, contactPayload)
	if err != nil {
		return eris.Wrap(err, "crmsync: upsert contact")
	}
	if contact.ID == "" {
		return ErrNoContactID
	}
	log.Info("contact upserted", zap.String("contactId", contact.ID))

	opportunity := map[string]any{
		"pipelineId": p.cfg.PipelineID,
		"stageId":    p.cfg.PipelineStageID,
		"name":       payload.OpportunityName(),
		"contactId":  contact.ID,
		"status":     "open",
	}
	if payload.ValorProposta != nil {
		opportunity["monetaryValue"] = *payload.ValorProposta
	}

	opp, err := p.client.CreateOpportunity(ctx, token, opportunity)
	if err != nil {
		return eris.Wrapf(err, "crmsync: create opportunity for contact %s", contact.ID)
	}
	log.Info("opportunity created", zap.String("opportunityId", opp.ID))

	p.recordOutcome(ctx, locationID, payload, contact.ID, opp.ID, nil)
	return nil
}

// Run executes ProcessProposal and absorbs the error, logging HTTP failures
// with their status and body. It is the goroutine entry point used by the
// webhook handler.
func (p *Processor) Run(ctx context.Context, locationID string, payload ProposalPayload) {
	err := p.ProcessProposal(ctx, locationID, payload)
	if err == nil {
		return
	}

	log := zap.L().With(zap.String("locationId", locationID))
	var apiErr *ghl.APIError
	if errors.As(err, &apiErr) {
		log.Error("proposal webhook abandoned",
			zap.Int("status", apiErr.StatusCode),
			zap.String("body", apiErr.Body),
			zap.Error(err),
		)
	} else {
		log.Error("proposal webhook abandoned", zap.Error(err))
	}
	p.recordOutcome(ctx, locationID, payload, "", "", err)
}

func (p *Processor) recordOutcome(ctx context.Context, locationID string, payload ProposalPayload, contactID, opportunityID string, cause error) {
	ev := audit.WebhookEvent{
		LocationID:    locationID,
		Status:        audit.WebhookProcessed,
		ContactID:     contactID,
		OpportunityID: opportunityID,
	}
	if payload.ValorProposta != nil {
		ev.ProposalValue = *payload.ValorProposta
	}
	if cause != nil {
		ev.Status = audit.WebhookFailed
		ev.Error = cause.Error()
	}
	if err := p.audit.RecordWebhookEvent(ctx, ev); err != nil {
		zap.L().Warn("audit record failed", zap.Error(err))
	}
}
