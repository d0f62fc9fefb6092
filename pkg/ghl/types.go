package ghl

// RefreshRequest carries the refresh-token grant parameters.
type RefreshRequest struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserType     string
}

// Token is an OAuth token response, used both for the agency token and for
// location-scoped tokens.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	UserType     string `json:"userType,omitempty"`
	CompanyID    string `json:"companyId,omitempty"`
	LocationID   string `json:"locationId,omitempty"`
}

// CustomField is a location-scoped custom field definition. FieldKey is the
// human-readable key (e.g. "contact.consumo_medio_mensal"); ID is the opaque
// identifier the contact API expects.
type CustomField struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FieldKey string `json:"fieldKey"`
	DataType string `json:"dataType,omitempty"`
}

// PipelineStage is a single stage within an opportunity pipeline.
type PipelineStage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pipeline is an opportunity pipeline with its stages.
type Pipeline struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Stages []PipelineStage `json:"stages"`
}

// Contact is the contact record returned by the upsert endpoint.
type Contact struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	LocationID string `json:"locationId,omitempty"`
}

// Opportunity is the record returned by the opportunity-creation endpoint.
type Opportunity struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	PipelineID    string  `json:"pipelineId,omitempty"`
	StageID       string  `json:"pipelineStageId,omitempty"`
	ContactID     string  `json:"contactId,omitempty"`
	Status        string  `json:"status,omitempty"`
	MonetaryValue float64 `json:"monetaryValue,omitempty"`
}
