// Package dispatch assigns unassigned pending requests to available staff.
// Staff opt in through a Redis availability set; each dispatch pairs the
// highest-ranked waiting request with one available member and withdraws
// that member from the set until they opt in again.
package dispatch

import (
	"log"
	"time"

	"reqtrack/backend/internal/analysis"
	"reqtrack/backend/internal/config"
	"reqtrack/backend/internal/models"
)

// DispatcherActor is recorded as updated_by on dispatcher assignments.
const DispatcherActor = "dispatcher"

// Assigner is the lifecycle surface the dispatcher drives.
type Assigner interface {
	AssignRequest(requestID, assigneeID, actorID string) error
}

// Store is the slice of the storage surface the dispatcher needs.
type Store interface {
	GetAvailableStaff() ([]string, error)
	FindUnassignedPending() ([]models.Request, error)
	RemoveAvailableStaff(userID string) error
}

// DispatcherService pairs waiting requests with available staff.
type DispatcherService struct {
	Engine  Assigner
	Storage Store

	// Interval between dispatch rounds.
	Interval time.Duration
}

// NewDispatcherService creates a new dispatcher.
func NewDispatcherService(engine Assigner, s Store) *DispatcherService {
	return &DispatcherService{
		Engine:   engine,
		Storage:  s,
		Interval: config.DispatchInterval,
	}
}

// Run starts the dispatcher's main goroutine.
func (d *DispatcherService) Run() {
	log.Println("Dispatcher Service started.")

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for range ticker.C {
		d.DispatchOnce(time.Now())
	}
}

// DispatchOnce runs a single dispatch round: rank the waiting requests,
// pair each with one available staff member, assign and withdraw the
// member from the pool. Errors skip the pair and leave both for the next
// round.
func (d *DispatcherService) DispatchOnce(now time.Time) {
	staff, err := d.Storage.GetAvailableStaff()
	if err != nil {
		log.Printf("ERROR: Failed to read available staff: %v", err)
		return
	}
	if len(staff) == 0 {
		return
	}

	pending, err := d.Storage.FindUnassignedPending()
	if err != nil {
		log.Printf("ERROR: Failed to list unassigned requests: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	ranked := analysis.RankForDispatch(pending, now)

	next := 0
	for _, req := range ranked {
		if next >= len(staff) {
			break
		}
		assignee := staff[next]

		if err := d.Engine.AssignRequest(req.ID, assignee, DispatcherActor); err != nil {
			log.Printf("ERROR: Failed to assign request %s to %s: %v", req.ID, assignee, err)
			continue
		}
		if err := d.Storage.RemoveAvailableStaff(assignee); err != nil {
			log.Printf("WARNING: Failed to withdraw %s from the availability pool: %v", assignee, err)
		}
		log.Printf("Assigned request %s (%s) to %s", req.ID, req.Priority, assignee)
		next++
	}
}
