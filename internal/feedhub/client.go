package feedhub

import "reqtrack/backend/internal/models"

// Client is the interface for any notification feed consumer (WebSocket,
// Telegram, in-process subscriber). It abstracts the delivery mechanism so
// the hub can manage different client types uniformly.
type Client interface {
	// GetUserID returns the recipient this client delivers to.
	GetUserID() string

	// GetSendChannel returns the channel the hub pushes this client's
	// events into. It is a send-only channel.
	GetSendChannel() chan<- models.NotificationEvent

	// Run starts the client's delivery loop.
	Run()
	// Close shuts the client down and releases its channel.
	Close()
}
