// Package tokens implements the GoHighLevel token maintenance job: refresh
// the agency token, sync the installed-locations directory, then issue one
// location-scoped token per installed location. Each stage reports success
// with a boolean and logs its detail; failures never propagate as panics or
// errors past this boundary. The whole job is retried by re-running it, not
// by internal retries.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enersol/solar-pricing/internal/tokenstore"
	"github.com/enersol/solar-pricing/pkg/ghl"
)

// ErrMissingCredentials means the stored agency record lacks the fields a
// refresh grant needs.
var ErrMissingCredentials = eris.New("tokens: agency record missing refresh_token, userType or companyId")

// Config carries the OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	CompanyID    string
	AppID        string
}

// Manager runs the token maintenance stages against a Store and the CRM.
type Manager struct {
	store  *tokenstore.Store
	client ghl.Client
	cfg    Config
	now    func() time.Time
}

// NewManager creates a Manager.
func NewManager(store *tokenstore.Store, client ghl.Client, cfg Config) *Manager {
	return &Manager{store: store, client: client, cfg: cfg, now: time.Now}
}

// RefreshAgencyToken exchanges the stored refresh token for a new agency
// access token and overwrites the agency document. companyId and userType
// are preserved when the response omits them, and the record is stamped
// with the refresh time. Returns false on any failure.
func (m *Manager) RefreshAgencyToken(ctx context.Context) bool {
	log := zap.L().With(zap.String("stage", "refresh_agency_token"))

	current, err := m.store.LoadAgencyToken()
	if err != nil {
		log.Error("agency token document unavailable", zap.Error(err))
		return false
	}
	if current.RefreshToken == "" || current.UserType == "" || current.CompanyID == "" {
		log.Error("cannot refresh", zap.Error(ErrMissingCredentials))
		return false
	}

	tok, err := m.client.RefreshToken(ctx, ghl.RefreshRequest{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RefreshToken: current.RefreshToken,
		UserType:     current.UserType,
	})
	if err != nil {
		logTransportFailure(log, "token refresh failed", err)
		return false
	}

	refreshedAt := m.now()
	next := &tokenstore.AgencyToken{
		AccessToken:     tok.AccessToken,
		TokenType:       tok.TokenType,
		ExpiresIn:       tok.ExpiresIn,
		RefreshToken:    tok.RefreshToken,
		Scope:           tok.Scope,
		UserType:        tok.UserType,
		CompanyID:       tok.CompanyID,
		RefreshedAtUnix: refreshedAt.Unix(),
		RefreshedAt:     refreshedAt.Format("2006-01-02 15:04:05"),
	}
	if next.CompanyID == "" {
		next.CompanyID = current.CompanyID
	}
	if next.UserType == "" {
		next.UserType = current.UserType
	}

	if err := m.store.SaveAgencyToken(next); err != nil {
		log.Error("persist refreshed token failed", zap.Error(err))
		return false
	}

	log.Info("agency token refreshed", zap.String("companyId", next.CompanyID))
	return true
}

// SyncInstalledLocations fetches the locations the app is installed on and
// replaces the persisted directory wholesale. Returns false on any failure.
func (m *Manager) SyncInstalledLocations(ctx context.Context) bool {
	log := zap.L().With(zap.String("stage", "sync_installed_locations"))

	agency, err := m.store.LoadAgencyToken()
	if err != nil || agency.AccessToken == "" {
		log.Error("agency access token unavailable", zap.Error(err))
		return false
	}
	if m.cfg.CompanyID == "" || m.cfg.AppID == "" {
		log.Error("company id or app id not configured")
		return false
	}

	raw, err := m.client.InstalledLocations(ctx, agency.AccessToken, m.cfg.CompanyID, m.cfg.AppID)
	if err != nil {
		logTransportFailure(log, "installed locations fetch failed", err)
		return false
	}

	locations := make([]tokenstore.LocationRecord, len(raw))
	for i, loc := range raw {
		locations[i] = tokenstore.LocationRecord(loc)
	}

	if err := m.store.SaveLocations(locations); err != nil {
		log.Error("persist locations failed", zap.Error(err))
		return false
	}

	log.Info("installed locations synced", zap.Int("count", len(locations)))
	return true
}

// IssueLocationTokens exchanges the agency token for a location-scoped
// token for every record in the directory. Locations are processed
// independently: a failed exchange is recorded on that location's
// location_specific_token_data and the batch continues. The whole updated
// directory is persisted in one write. Returns false only when the
// directory or agency token cannot be loaded, or the final persist fails.
func (m *Manager) IssueLocationTokens(ctx context.Context) bool {
	log := zap.L().With(zap.String("stage", "issue_location_tokens"))

	agency, err := m.store.LoadAgencyToken()
	if err != nil || agency.AccessToken == "" {
		log.Error("agency access token unavailable", zap.Error(err))
		return false
	}

	locations, err := m.store.LoadLocations()
	if err != nil {
		log.Error("locations directory unavailable", zap.Error(err))
		return false
	}

	var failed int
	for _, loc := range locations {
		result := m.issueOne(ctx, agency.AccessToken, loc)
		loc.SetTokenData(result.data())
		if result.Failure != nil {
			failed++
			log.Warn("location token issuance failed",
				zap.String("locationId", loc.ID()),
				zap.String("name", loc.Name()),
				zap.String("error", result.Failure.Error),
				zap.Int("status", result.Failure.StatusCode),
			)
			continue
		}
		log.Info("location token issued", zap.String("locationId", loc.ID()), zap.String("name", loc.Name()))
	}

	if err := m.store.SaveLocations(locations); err != nil {
		log.Error("persist locations failed", zap.Error(err))
		return false
	}

	log.Info("location token pass complete",
		zap.Int("locations", len(locations)),
		zap.Int("failed", failed),
	)
	return true
}

// issueOne performs a single location's token exchange.
func (m *Manager) issueOne(ctx context.Context, agencyToken string, loc tokenstore.LocationRecord) TokenResult {
	id := loc.ID()
	if id == "" {
		return failed("missing location id", 0, nil)
	}

	tok, err := m.client.LocationToken(ctx, agencyToken, m.cfg.CompanyID, id)
	if err != nil {
		var apiErr *ghl.APIError
		if errors.As(err, &apiErr) {
			return failed(fmt.Sprintf("location token request returned %d", apiErr.StatusCode), apiErr.StatusCode, apiErr.Details())
		}
		return failed(err.Error(), 0, nil)
	}
	return TokenResult{Token: tok}
}

// logTransportFailure logs an error, splitting out status and body when the
// failure was a non-2xx CRM response.
func logTransportFailure(log *zap.Logger, msg string, err error) {
	var apiErr *ghl.APIError
	if errors.As(err, &apiErr) {
		log.Error(msg, zap.Int("status", apiErr.StatusCode), zap.String("body", apiErr.Body))
		return
	}
	log.Error(msg, zap.Error(err))
}
