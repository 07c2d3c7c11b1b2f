package domain

import "errors"

var (
	ErrInvalidInstanceName = errors.New("instance name is required")
	ErrInstanceNotFound    = errors.New("instance not found")
	ErrInvalidWebhookURL   = errors.New("webhook url is required")

	// ErrQRTimeout means the session never produced a pairing code within
	// the polling window.
	ErrQRTimeout = errors.New("timed out waiting for qr code")
)
