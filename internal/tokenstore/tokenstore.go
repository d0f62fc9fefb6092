// Package tokenstore persists the GoHighLevel credentials as flat JSON
// documents: one agency token record and one list of installed locations
// with their location-scoped tokens. Documents are rewritten wholesale;
// writes go through a temp file and rename so a crashed write never leaves
// a truncated document behind. Concurrent writers are not coordinated —
// maintenance runs must be serialized by the operator.
package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Document file names, kept from the original deployment so existing state
// directories keep working.
const (
	AgencyTokenFile = "gohighlevel_token.json"
	LocationsFile   = "installed_locations_data.json"
	FieldMapFile    = "custom_fields_ids.json"
)

var (
	// ErrNotFound means the requested document does not exist yet.
	ErrNotFound = eris.New("tokenstore: document not found")
	// ErrUnknownLocation means no record exists for the location id.
	ErrUnknownLocation = eris.New("tokenstore: unknown location")
	// ErrMissingLocationToken means the location exists but has no issued
	// access token (the token job has not run, or issuance failed).
	ErrMissingLocationToken = eris.New("tokenstore: location has no issued token")
)

// AgencyToken is the agency-level OAuth record. A single instance exists
// process-wide and is overwritten in place on every refresh.
type AgencyToken struct {
	AccessToken     string `json:"access_token"`
	TokenType       string `json:"token_type,omitempty"`
	ExpiresIn       int    `json:"expires_in,omitempty"`
	RefreshToken    string `json:"refresh_token"`
	Scope           string `json:"scope,omitempty"`
	UserType        string `json:"userType"`
	CompanyID       string `json:"companyId"`
	RefreshedAtUnix int64  `json:"refreshed_at_unix_timestamp,omitempty"`
	RefreshedAt     string `json:"refreshed_at_readable,omitempty"`
}

// Store reads and writes the JSON documents under a single data directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "tokenstore: create data dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// LoadAgencyToken reads the agency token document.
func (s *Store) LoadAgencyToken() (*AgencyToken, error) {
	var tok AgencyToken
	if err := s.readJSON(AgencyTokenFile, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// SaveAgencyToken overwrites the agency token document.
func (s *Store) SaveAgencyToken(tok *AgencyToken) error {
	return s.writeJSON(AgencyTokenFile, tok)
}

// LoadLocations reads the installed-locations document. Both the bare-array
// layout and the {"locations": [...]} envelope written by older versions
// are accepted.
func (s *Store) LoadLocations() ([]LocationRecord, error) {
	raw, err := s.readRaw(LocationsFile)
	if err != nil {
		return nil, err
	}

	var list []LocationRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var envelope struct {
		Locations []LocationRecord `json:"locations"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Locations != nil {
		return envelope.Locations, nil
	}

	return nil, eris.New("tokenstore: unexpected locations document shape")
}

// SaveLocations replaces the installed-locations document wholesale.
func (s *Store) SaveLocations(locations []LocationRecord) error {
	return s.writeJSON(LocationsFile, locations)
}

func (s *Store) readRaw(name string) (json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "%s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "tokenstore: read %s", name)
	}
	return data, nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := s.readRaw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "tokenstore: decode %s", name)
	}
	return nil
}

// writeJSON writes to a temp file in the same directory, then renames it
// over the target so readers never observe a partial document.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return eris.Wrapf(err, "tokenstore: encode %s", name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "tokenstore: create temp for %s", name)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "tokenstore: write temp for %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "tokenstore: close temp for %s", name)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "tokenstore: rename %s", name)
	}
	return nil
}
