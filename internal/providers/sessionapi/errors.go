package sessionapi

import (
	"errors"
	"fmt"
)

// ErrQRNotReady means the session exists but has not produced a pairing
// code yet; callers should retry.
var ErrQRNotReady = errors.New("sessionapi: qr code not ready")

// StatusError is a non-2xx answer from the external system.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sessionapi: %s returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("sessionapi: %s returned status %d: %s", e.Operation, e.StatusCode, e.Message)
}

func isStatus(err error, target **StatusError) bool {
	return errors.As(err, target)
}
