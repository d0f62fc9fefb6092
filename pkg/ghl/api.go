package ghl

import (
	"context"
	"encoding/json"
	"net/url"
)

func (c *httpClient) RefreshToken(ctx context.Context, req RefreshRequest) (*Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {req.ClientID},
		"client_secret": {req.ClientSecret},
		"refresh_token": {req.RefreshToken},
		"user_type":     {req.UserType},
	}

	var tok Token
	if err := c.postForm(ctx, "/oauth/token", "", form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *httpClient) InstalledLocations(ctx context.Context, agencyToken, companyID, appID string) ([]map[string]any, error) {
	query := url.Values{
		"isInstalled": {"true"},
		"companyId":   {companyID},
		"appId":       {appID},
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/oauth/installedLocations", agencyToken, query, &raw); err != nil {
		return nil, err
	}
	return decodeLocationList(raw)
}

// decodeLocationList accepts either a {"locations": [...]} envelope or a
// bare array, the two shapes the endpoint has been observed to return.
func decodeLocationList(raw json.RawMessage) ([]map[string]any, error) {
	var envelope struct {
		Locations []map[string]any `json:"locations"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Locations != nil {
		return envelope.Locations, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	return nil, errUnexpectedLocationShape
}

func (c *httpClient) LocationToken(ctx context.Context, agencyToken, companyID, locationID string) (*Token, error) {
	form := url.Values{
		"companyId":  {companyID},
		"locationId": {locationID},
	}

	var tok Token
	if err := c.postForm(ctx, "/oauth/locationToken", agencyToken, form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *httpClient) CustomFields(ctx context.Context, locationToken, locationID string) ([]CustomField, error) {
	var resp struct {
		CustomFields []CustomField `json:"customFields"`
	}
	if err := c.getJSON(ctx, "/locations/"+locationID+"/customFields", locationToken, nil, &resp); err != nil {
		return nil, err
	}
	return resp.CustomFields, nil
}

func (c *httpClient) Pipelines(ctx context.Context, locationToken, locationID string) ([]Pipeline, error) {
	query := url.Values{"locationId": {locationID}}

	var resp struct {
		Pipelines []Pipeline `json:"pipelines"`
	}
	if err := c.getJSON(ctx, "/opportunities/pipelines", locationToken, query, &resp); err != nil {
		return nil, err
	}
	return resp.Pipelines, nil
}

func (c *httpClient) UpsertContact(ctx context.Context, locationToken string, payload map[string]any) (*Contact, error) {
	var resp struct {
		Contact Contact `json:"contact"`
	}
	if err := c.postJSON(ctx, "/contacts/upsert", locationToken, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Contact, nil
}

func (c *httpClient) CreateOpportunity(ctx context.Context, locationToken string, payload map[string]any) (*Opportunity, error) {
	// The endpoint has returned both a bare record and an {"opportunity": ...}
	// envelope depending on API version; accept either.
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/opportunities/", locationToken, payload, &raw); err != nil {
		return nil, err
	}

	var envelope struct {
		Opportunity *Opportunity `json:"opportunity"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Opportunity != nil {
		return envelope.Opportunity, nil
	}

	var opp Opportunity
	if err := json.Unmarshal(raw, &opp); err != nil {
		return nil, errUnexpectedOpportunityShape
	}
	return &opp, nil
}
