package tokenstore

// TokenDataKey is the sub-object each location record carries after the
// token job runs: either an issued token or an error description.
const TokenDataKey = "location_specific_token_data"

// LocationRecord is one installed location as returned by the CRM. It stays
// a raw map so fields the CRM adds over time are preserved verbatim across
// sync passes; only the token sub-object is ever written by this service.
type LocationRecord map[string]any

// ID returns the location identifier, which the CRM exposes as "_id" on
// some endpoints and "id" on others.
func (r LocationRecord) ID() string {
	if id, ok := r["_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

// Name returns the location display name, when present.
func (r LocationRecord) Name() string {
	name, _ := r["name"].(string)
	return name
}

// SetTokenData attaches (or replaces) the token sub-object.
func (r LocationRecord) SetTokenData(data any) {
	r[TokenDataKey] = data
}

// AccessToken returns the issued location access token, or "" when the
// record has no token data or carries a failure instead.
func (r LocationRecord) AccessToken() string {
	data, ok := r[TokenDataKey].(map[string]any)
	if !ok {
		return ""
	}
	tok, _ := data["access_token"].(string)
	return tok
}

// LocationAccessToken finds the record for locationID and returns its
// issued access token. ErrUnknownLocation is returned when no record
// matches, ErrMissingLocationToken when the record has no usable token.
func (s *Store) LocationAccessToken(locationID string) (string, error) {
	locations, err := s.LoadLocations()
	if err != nil {
		return "", err
	}

	for _, loc := range locations {
		if loc.ID() != locationID {
			continue
		}
		if tok := loc.AccessToken(); tok != "" {
			return tok, nil
		}
		return "", ErrMissingLocationToken
	}
	return "", ErrUnknownLocation
}
