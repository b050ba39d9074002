// Package feedhub delivers realtime notification events to connected
// clients. Fan-out persistence happens elsewhere; the hub only pushes, and
// a client that misses a push reconciles by re-fetching over HTTP.
package feedhub

import (
	"log"

	"reqtrack/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventSource provides the Redis subscription the hub listens on.
type EventSource interface {
	SubscribeNotifications() *redis.PubSub
}

// ManagerService routes notification events to the clients of their
// recipients. A user may hold several clients at once (browser tab,
// Telegram bridge, in-process subscriber).
type ManagerService struct {
	Clients map[Client]bool

	RegisterCh   chan Client
	UnregisterCh chan Client

	Source  EventSource
	EventCh chan models.NotificationEvent
}

// NewManagerService creates the hub.
func NewManagerService(source EventSource) *ManagerService {
	return &ManagerService{
		Clients:      make(map[Client]bool),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Source:       source,
		EventCh:      make(chan models.NotificationEvent),
	}
}

// Run is the hub's main dispatch loop.
func (m *ManagerService) Run() {
	m.StartPubSubListener()

	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client] = true
			log.Printf("INFO: Feed client registered for user %s", client.GetUserID())

		case client := <-m.UnregisterCh:
			if _, ok := m.Clients[client]; ok {
				delete(m.Clients, client)
				client.Close()
			}

		case event := <-m.EventCh:
			m.deliver(event)
		}
	}
}

// deliver pushes an event to every client of the recipient. A client whose
// send buffer is full is evicted rather than allowed to stall the loop.
func (m *ManagerService) deliver(event models.NotificationEvent) {
	for client := range m.Clients {
		if client.GetUserID() != event.UserID {
			continue
		}
		select {
		case client.GetSendChannel() <- event:
		default:
			log.Printf("WARNING: Evicting slow feed client for user %s", event.UserID)
			delete(m.Clients, client)
			client.Close()
		}
	}
}

// Subscribe registers an in-process handler for one user's events and
// returns an unsubscribe function with deterministic teardown.
func (m *ManagerService) Subscribe(userID string, handler func(models.NotificationEvent)) func() {
	client := &funcClient{
		userID: userID,
		send:   make(chan models.NotificationEvent, 16),
		done:   make(chan struct{}),
	}
	client.handler = handler

	m.RegisterCh <- client
	client.Run()

	return func() {
		m.UnregisterCh <- client
	}
}

// funcClient adapts a plain handler function to the Client interface.
type funcClient struct {
	userID  string
	handler func(models.NotificationEvent)
	send    chan models.NotificationEvent
	done    chan struct{}
}

func (c *funcClient) GetUserID() string { return c.userID }

func (c *funcClient) GetSendChannel() chan<- models.NotificationEvent { return c.send }

func (c *funcClient) Run() {
	go func() {
		for {
			select {
			case event, ok := <-c.send:
				if !ok {
					return
				}
				c.handler(event)
			case <-c.done:
				return
			}
		}
	}()
}

func (c *funcClient) Close() {
	close(c.done)
}
