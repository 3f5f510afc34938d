package dto

// CreateConnectionRequest represents the request to connect a platform account
type CreateConnectionRequest struct {
	WorkspaceUUID string `json:"-"`
	Platform      string `json:"platform" validate:"required,oneof=YOUTUBE INSTAGRAM GOOGLE_ADS META_ADS"`
	Credentials   string `json:"credentials" validate:"required,min=1"`
}

// RotateConnectionRequest represents the request to replace stored credentials
type RotateConnectionRequest struct {
	UUID          string `json:"-"`
	WorkspaceUUID string `json:"-"`
	Credentials   string `json:"credentials" validate:"required,min=1"`
}

// RevokeConnectionRequest represents the request to revoke a connection
type RevokeConnectionRequest struct {
	UUID          string `json:"-"`
	WorkspaceUUID string `json:"-"`
}

// ConnectionResponse represents a connection in API responses. Credentials
// never appear here.
type ConnectionResponse struct {
	UUID      string `json:"uuid"`
	Platform  string `json:"platform"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
