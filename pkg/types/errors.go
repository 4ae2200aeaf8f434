package types

import "errors"

var (
	ErrQueueItemNotFound = errors.New("queue item not found")
	ErrTrainingNotFound  = errors.New("training record not found")
)

// ErrorClass buckets a failed remote call. Transient classes are retried by
// the client before surfacing; everything else propagates immediately.
type ErrorClass string

const (
	ErrClassNetwork         ErrorClass = "network"
	ErrClassTimeout         ErrorClass = "timeout"
	ErrClassAuth            ErrorClass = "auth"
	ErrClassPermission      ErrorClass = "permission"
	ErrClassNotFound        ErrorClass = "not_found"
	ErrClassPayloadTooLarge ErrorClass = "payload_too_large"
	ErrClassSchemaMismatch  ErrorClass = "schema_mismatch"
	ErrClassRateLimited     ErrorClass = "rate_limited"
	ErrClassServerBusy      ErrorClass = "server_busy"
	ErrClassUnknown         ErrorClass = "unknown"
)

// SyncError carries the failure class alongside an operator-facing message.
// Message is what ends up in a toast; Detail keeps the provider's raw error
// text for logs.
type SyncError struct {
	Class   ErrorClass
	Message string
	Detail  string
}

func (e *SyncError) Error() string {
	return e.Message
}

// Transient reports whether the failure is worth retrying automatically.
func (e *SyncError) Transient() bool {
	switch e.Class {
	case ErrClassNetwork, ErrClassTimeout, ErrClassRateLimited, ErrClassServerBusy:
		return true
	}
	return false
}
