package feedhub

import (
	"encoding/json"
	"log"

	"reqtrack/backend/internal/models"
)

// StartPubSubListener starts a goroutine that relays events from the Redis
// notification channel into the hub's dispatch loop. This is what lets
// several server instances share one feed.
func (m *ManagerService) StartPubSubListener() {
	if m.Source == nil {
		return
	}
	go func() {
		pubsub := m.Source.SubscribeNotifications()
		defer pubsub.Close()

		ch := pubsub.Channel()

		for msg := range ch {
			var event models.NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("ERROR: Failed to unmarshal feed event: %v", err)
				continue
			}
			m.EventCh <- event
		}
	}()
}
