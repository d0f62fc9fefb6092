package main

import (
	"context"
	"path/filepath"

	"github.com/enersol/solar-pricing/internal/audit"
	"github.com/enersol/solar-pricing/internal/fieldmap"
	"github.com/enersol/solar-pricing/internal/tokens"
	"github.com/enersol/solar-pricing/internal/tokenstore"
	"github.com/enersol/solar-pricing/pkg/ghl"
)

func initGHLClient() ghl.Client {
	return ghl.NewClient(
		ghl.WithBaseURL(cfg.GHL.BaseURL),
		ghl.WithRateLimit(cfg.GHL.RequestsPerSecond),
	)
}

func initTokenStore() (*tokenstore.Store, error) {
	return tokenstore.New(cfg.Data.Dir)
}

func initManager(store *tokenstore.Store) *tokens.Manager {
	return tokens.NewManager(store, initGHLClient(), tokens.Config{
		ClientID:     cfg.GHL.ClientID,
		ClientSecret: cfg.GHL.ClientSecret,
		CompanyID:    cfg.GHL.CompanyID,
		AppID:        cfg.GHL.AppID,
	})
}

func initAudit(ctx context.Context) (audit.Store, error) {
	return audit.Open(ctx, audit.Config{Driver: cfg.Audit.Driver, DSN: cfg.Audit.DSN})
}

// loadFieldMap reads the persisted custom-field id map, tolerating its
// absence: an empty map means no custom fields are synchronized.
func loadFieldMap(dir string) fieldmap.Map {
	m, err := fieldmap.Load(filepath.Join(dir, tokenstore.FieldMapFile))
	if err != nil {
		return fieldmap.Map{}
	}
	return m
}
