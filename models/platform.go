// Package models contains domain entities and business models for the ingestion pipeline
package models

import (
	"database/sql/driver"
	"fmt"
)

// Platform identifies an external data source
type Platform string

const (
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformGoogleAds Platform = "GOOGLE_ADS"
	PlatformMetaAds   Platform = "META_ADS"
)

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// Valid checks if the platform is a known external source
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformInstagram, PlatformGoogleAds, PlatformMetaAds:
		return true
	default:
		return false
	}
}

// IsAdPlatform reports whether the platform produces spend facts rather than content
func (p Platform) IsAdPlatform() bool {
	return p == PlatformGoogleAds || p == PlatformMetaAds
}

// Scan implements the sql.Scanner interface for Platform
func (p *Platform) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = Platform(v)
	case []byte:
		*p = Platform(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Platform", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Platform
func (p Platform) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid Platform: %s", p)
	}
	return string(p), nil
}

// AllPlatforms lists every supported platform
func AllPlatforms() []Platform {
	return []Platform{PlatformYouTube, PlatformInstagram, PlatformGoogleAds, PlatformMetaAds}
}
