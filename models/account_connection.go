package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionStatus represents the lifecycle state of a platform connection
type ConnectionStatus string

const (
	ConnectionStatusActive  ConnectionStatus = "active"
	ConnectionStatusRevoked ConnectionStatus = "revoked"
)

// Valid checks if the status is valid
func (s ConnectionStatus) Valid() bool {
	return s == ConnectionStatusActive || s == ConnectionStatusRevoked
}

// Scan implements the sql.Scanner interface for ConnectionStatus
func (s *ConnectionStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = ConnectionStatus(v)
	case []byte:
		*s = ConnectionStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ConnectionStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ConnectionStatus
func (s ConnectionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ConnectionStatus: %s", s)
	}
	return string(s), nil
}

// AccountConnection holds the credential envelope for one external source.
// One connection per (workspace, platform); credentials are stored as an
// AES-GCM envelope, never plaintext.
type AccountConnection struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_account_connections_uuid" json:"uuid"`
	WorkspaceID uint             `gorm:"not null;uniqueIndex:uk_account_connections_workspace_platform;index:idx_account_connections_workspace_id" json:"workspace_id"`
	Platform    Platform         `gorm:"size:32;not null;uniqueIndex:uk_account_connections_workspace_platform" json:"platform"`
	Credentials string           `gorm:"type:text;not null" json:"-"`
	Status      ConnectionStatus `gorm:"size:16;not null;default:'active'" json:"status"`
	CreatedAt   time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`

	// Relations
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
}

// TableName returns the table name for the model
func (AccountConnection) TableName() string {
	return "account_connections"
}

// BeforeCreate is called before creating a new record
func (c *AccountConnection) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ConnectionStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *AccountConnection) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// IsActive reports whether the connection can still be used to fetch data
func (c *AccountConnection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// AccountConnectionFilter represents filter criteria for connections
type AccountConnectionFilter struct {
	ID          *uint             `json:"id,omitempty"`
	UUID        *uuid.UUID        `json:"uuid,omitempty"`
	WorkspaceID *uint             `json:"workspace_id,omitempty"`
	Platform    *Platform         `json:"platform,omitempty"`
	Status      *ConnectionStatus `json:"status,omitempty"`
}
