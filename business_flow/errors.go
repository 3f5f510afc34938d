// Package businessflow contains the core business logic and use cases for ingestion and rollup workflows
package businessflow

import (
	"errors"
	"fmt"

	"github.com/arclabs/arc/repository"
)

// Business flow error constants
var (
	// Tenant and workspace errors
	ErrWorkspaceNotFound     = errors.New("workspace not found")
	ErrMissingTenantScope    = errors.New("missing workspace scope on tenant-owned write")
	ErrWorkspaceIDRequired   = errors.New("workspace ID is required")
	ErrWorkspaceAccessDenied = errors.New("workspace access denied")

	// Connection errors
	ErrConnectionNotFound       = errors.New("connection not found")
	ErrConnectionRevoked        = errors.New("connection is revoked")
	ErrConnectionExists         = errors.New("connection already exists for platform")
	ErrCredentialsRequired      = errors.New("credentials are required")
	ErrEncryptionKeyUnavailable = errors.New("encryption key unavailable")

	// Campaign errors
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignAccessDenied = errors.New("campaign access denied")
	ErrCampaignNameRequired = errors.New("campaign name is required")
	ErrCampaignDatesInvalid = errors.New("campaign start date must precede end date")

	// Ingestion errors
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnsupportedJobType  = errors.New("unsupported job type")
	ErrJobRunNotFound      = errors.New("job run not found")
	ErrEmptyBatch          = errors.New("fetched batch is empty")

	// Rollup errors
	ErrROIViewNotFound     = errors.New("roi view not found")
	ErrInvalidRollupPeriod = errors.New("invalid rollup period")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

// FetchError wraps an upstream platform API failure. Retryable failures
// (rate limits, timeouts) go back to the queue; terminal ones (revoked
// credentials, deleted resources) fail the job immediately.
type FetchError struct {
	Platform  string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("fetch from %s failed (%s): %v", e.Platform, kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewRetryableFetchError marks an upstream failure worth re-queueing
func NewRetryableFetchError(platform string, err error) *FetchError {
	return &FetchError{Platform: platform, Retryable: true, Err: err}
}

// NewTerminalFetchError marks an upstream failure that retrying cannot fix
func NewTerminalFetchError(platform string, err error) *FetchError {
	return &FetchError{Platform: platform, Retryable: false, Err: err}
}

// IsRetryableFetchError reports whether err is a FetchError flagged retryable
func IsRetryableFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsWorkspaceNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound)
}

func IsMissingTenantScope(err error) bool {
	return errors.Is(err, ErrMissingTenantScope)
}

func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

func IsConnectionRevoked(err error) bool {
	return errors.Is(err, ErrConnectionRevoked)
}

func IsConnectionExists(err error) bool {
	return errors.Is(err, ErrConnectionExists)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

func IsUnsupportedPlatform(err error) bool {
	return errors.Is(err, ErrUnsupportedPlatform)
}

func IsJobRunNotFound(err error) bool {
	return errors.Is(err, ErrJobRunNotFound)
}

func IsROIViewNotFound(err error) bool {
	return errors.Is(err, ErrROIViewNotFound)
}

func IsNotPersistable(err error) bool {
	return errors.Is(err, repository.ErrNotPersistable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
