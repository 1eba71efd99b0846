package telegram

import "errors"

var (
	// ErrUnsupportedPayload is returned when a CEMI frame's application
	// service is not one of the group-value services this package
	// models as a Telegram payload.
	ErrUnsupportedPayload = errors.New("telegram: unsupported application service")

	// ErrQueueClosed is returned by Enqueue once the queue has been
	// stopped.
	ErrQueueClosed = errors.New("telegram: queue closed")
)
