package tokens

import "github.com/enersol/solar-pricing/pkg/ghl"

// TokenResult is the outcome of one location's token exchange: exactly one
// of Token or Failure is set.
type TokenResult struct {
	Token   *ghl.Token
	Failure *TokenFailure
}

// TokenFailure is the error shape persisted on a location record when
// issuance fails, so a later pass (or the webhook path) can see why.
type TokenFailure struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// data returns the value persisted under location_specific_token_data.
func (r TokenResult) data() any {
	if r.Failure != nil {
		return r.Failure
	}
	return r.Token
}

func failed(msg string, status int, details any) TokenResult {
	return TokenResult{Failure: &TokenFailure{Error: msg, StatusCode: status, Details: details}}
}
