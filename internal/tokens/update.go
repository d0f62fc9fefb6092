package tokens

import (
	"context"
	"fmt"
)

// UpdateAll runs the full maintenance job in strict sequence: agency token
// refresh, installed-locations sync, location token issuance. It stops at
// the first blocking failure and returns ok plus a human-readable summary.
// Per-location issuance failures do not block; they are visible in the
// persisted directory.
func (m *Manager) UpdateAll(ctx context.Context) (bool, string) {
	if !m.RefreshAgencyToken(ctx) {
		return false, "agency token refresh failed"
	}
	if !m.SyncInstalledLocations(ctx) {
		return false, "installed locations sync failed"
	}
	if !m.IssueLocationTokens(ctx) {
		return false, "location token issuance failed"
	}

	locations, err := m.store.LoadLocations()
	if err != nil {
		return true, "token update complete"
	}
	var failed int
	for _, loc := range locations {
		if loc.AccessToken() == "" {
			failed++
		}
	}
	if failed > 0 {
		return true, fmt.Sprintf("token update complete: %d/%d locations without a token", failed, len(locations))
	}
	return true, fmt.Sprintf("token update complete: %d locations", len(locations))
}
