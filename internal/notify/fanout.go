// Package notify implements the notification fan-out service: one event in,
// one persisted notification row per recipient out, plus a best-effort
// realtime push. Every call site shares this single implementation.
package notify

import (
	"log"

	"reqtrack/backend/internal/models"
)

// Notifier is the fan-out contract used by the lifecycle engine.
type Notifier interface {
	Notify(recipients []string, title, message string, relatedRequestID *string)
}

// Store is the slice of the storage surface the fan-out needs.
type Store interface {
	SaveNotification(n *models.Notification) error
	PublishNotification(event models.NotificationEvent) error
}

// Service fans events out to per-recipient notification records.
type Service struct {
	Storage Store
}

// NewService creates a new fan-out service.
func NewService(s Store) *Service {
	return &Service{Storage: s}
}

// Notify inserts one notification per recipient. Each insert is attempted
// independently: a failed insert is logged and swallowed so siblings and the
// calling workflow proceed. Never returns an error to the caller.
func (s *Service) Notify(recipients []string, title, message string, relatedRequestID *string) {
	for _, userID := range recipients {
		n := &models.Notification{
			UserID:           userID,
			Title:            title,
			Message:          message,
			RelatedRequestID: relatedRequestID,
		}
		if err := s.Storage.SaveNotification(n); err != nil {
			log.Printf("ERROR: Failed to save notification for user %s: %v", userID, err)
			continue
		}

		event := models.NotificationEvent{
			NotificationID: n.ID,
			UserID:         userID,
			Title:          title,
			Message:        message,
		}
		if relatedRequestID != nil {
			event.RelatedRequestID = *relatedRequestID
		}
		// Push is fire-and-forget; the row above is the authoritative copy.
		if err := s.Storage.PublishNotification(event); err != nil {
			log.Printf("WARNING: Failed to publish realtime event for user %s: %v", userID, err)
		}
	}
}

// Audience computes the recipient set for an organization-scoped event on a
// request: {creator} plus all sender-organization members, minus the actor
// and any explicit excludes, with duplicates removed. Order follows first
// appearance (creator first, then members).
func Audience(req *models.Request, memberIDs []string, actorID string, exclude ...string) []string {
	skip := map[string]bool{actorID: true}
	for _, id := range exclude {
		skip[id] = true
	}

	seen := make(map[string]bool)
	var recipients []string
	add := func(id string) {
		if id == "" || skip[id] || seen[id] {
			return
		}
		seen[id] = true
		recipients = append(recipients, id)
	}

	add(req.CreatedBy)
	for _, id := range memberIDs {
		add(id)
	}
	return recipients
}
