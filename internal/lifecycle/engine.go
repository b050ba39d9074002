// Package lifecycle owns the request state machine: creation, field edits,
// status transitions, deletion and comments, plus the side effects each of
// them triggers. Mutations are authoritative; notification fan-out is
// best-effort and never rolls a mutation back.
package lifecycle

import (
	"errors"
	"fmt"
	"log"
	"time"

	"reqtrack/backend/internal/config"
	"reqtrack/backend/internal/filesec"
	"reqtrack/backend/internal/filestore"
	"reqtrack/backend/internal/localization"
	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/notify"
	"reqtrack/backend/internal/storage"
)

var (
	// ErrValidation marks rejected input; no side effects have fired.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks an actor without edit/delete rights on a request.
	ErrForbidden = errors.New("actor is not allowed to modify this request")
)

// Engine is the request lifecycle engine. All collaborators are injected;
// there are no ambient singletons.
type Engine struct {
	Storage   storage.Storage
	Notifier  notify.Notifier
	Securer   filesec.Securer
	Objects   filestore.ObjectStore
	Localizer *localization.Localizer
	// Lang selects the notification message language.
	Lang string
	// AutoComplete enables completing a request on its first fully
	// successful response upload batch.
	AutoComplete bool
}

// NewEngine creates a lifecycle engine.
func NewEngine(s storage.Storage, n notify.Notifier, sec filesec.Securer, obj filestore.ObjectStore, loc *localization.Localizer) *Engine {
	return &Engine{
		Storage:   s,
		Notifier:  n,
		Securer:   sec,
		Objects:   obj,
		Localizer: loc,
		Lang:      "en",

		AutoComplete: config.AutoCompleteOnResponseUpload,
	}
}

// CreateRequestInput carries the fields a submitter provides.
type CreateRequestInput struct {
	ReferenceNumber string    `json:"reference_number"`
	DateReceived    time.Time `json:"date_received"`
	SenderOrgID     string    `json:"sender_org_id"`
	Subject         string    `json:"subject"`
	Description     string    `json:"description"`
	Priority        string    `json:"priority"`
}

// CreateRequest validates the input, runs the advisory duplicate check and
// persists a new pending request. Members of the sender organization (minus
// the actor) are notified.
func (e *Engine) CreateRequest(input CreateRequestInput, actorID string) (*models.Request, error) {
	if input.ReferenceNumber == "" {
		return nil, fmt.Errorf("%w: reference_number is required", ErrValidation)
	}
	if input.DateReceived.IsZero() {
		return nil, fmt.Errorf("%w: date_received is required", ErrValidation)
	}
	if input.SenderOrgID == "" {
		return nil, fmt.Errorf("%w: sender_org_id is required", ErrValidation)
	}
	if input.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = models.PriorityNormal
	}
	if !models.ValidPriority(input.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}
	if _, err := e.Storage.GetOrganizationByID(input.SenderOrgID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown sender organization %q", ErrValidation, input.SenderOrgID)
		}
		return nil, err
	}

	// Advisory only: a duplicate reference never blocks submission.
	dup, err := e.CheckDuplicateReference(input.ReferenceNumber)
	if err != nil {
		return nil, err
	}

	req := &models.Request{
		ReferenceNumber: input.ReferenceNumber,
		DateReceived:    input.DateReceived,
		SenderOrgID:     input.SenderOrgID,
		Subject:         input.Subject,
		Description:     input.Description,
		Status:          models.StatusPending,
		Priority:        input.Priority,
		IsDuplicate:     dup.IsDuplicate,
		CreatedBy:       actorID,
		UpdatedBy:       actorID,
	}
	if err := e.Storage.SaveRequest(req); err != nil {
		return nil, err
	}

	e.fanOut(req, actorID,
		e.Localizer.GetString(e.Lang, localization.KeyNewRequestTitle),
		e.Localizer.Format(e.Lang, localization.KeyNewRequestMsg, req.ReferenceNumber),
		&req.ID)
	return req, nil
}

// CheckDuplicateReference looks for an existing request with the exact same
// reference number (case-sensitive). The result is advisory.
func (e *Engine) CheckDuplicateReference(ref string) (models.DuplicateCheck, error) {
	existing, err := e.Storage.FindByReferenceNumber(ref)
	if err != nil {
		return models.DuplicateCheck{}, err
	}
	if existing == nil {
		return models.DuplicateCheck{IsDuplicate: false}, nil
	}
	return models.DuplicateCheck{
		IsDuplicate: true,
		Existing: &models.DuplicateSummary{
			RequestID:    existing.ID,
			DateReceived: existing.DateReceived.Format("2006-01-02"),
			SenderOrgID:  existing.SenderOrgID,
			Status:       existing.Status,
		},
	}, nil
}

// FieldPatch is a partial update to an existing request. Nil fields are
// left untouched.
type FieldPatch struct {
	ReferenceNumber *string    `json:"reference_number,omitempty"`
	DateReceived    *time.Time `json:"date_received,omitempty"`
	Subject         *string    `json:"subject,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Priority        *string    `json:"priority,omitempty"`
	AssignedTo      *string    `json:"assigned_to,omitempty"`
}

// UpdateRequestFields applies a patch on behalf of an administrator or the
// request's creator. Concurrent edits are last-write-wins at field level.
func (e *Engine) UpdateRequestFields(requestID string, patch FieldPatch, actorID string) (*models.Request, error) {
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(req, actorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.ReferenceNumber != nil {
		if *patch.ReferenceNumber == "" {
			return nil, fmt.Errorf("%w: reference_number must not be empty", ErrValidation)
		}
		fields["reference_number"] = *patch.ReferenceNumber
	}
	if patch.DateReceived != nil {
		fields["date_received"] = *patch.DateReceived
	}
	if patch.Subject != nil {
		if *patch.Subject == "" {
			return nil, fmt.Errorf("%w: subject must not be empty", ErrValidation)
		}
		fields["subject"] = *patch.Subject
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Priority != nil {
		if !models.ValidPriority(*patch.Priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *patch.Priority)
		}
		fields["priority"] = *patch.Priority
	}
	if patch.AssignedTo != nil {
		fields["assigned_to"] = *patch.AssignedTo
	}
	if len(fields) == 0 {
		return req, nil
	}
	fields["updated_by"] = actorID
	fields["updated_at"] = time.Now()

	if err := e.Storage.UpdateRequestFields(requestID, fields); err != nil {
		return nil, err
	}
	updated, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}

	e.fanOut(updated, actorID,
		e.Localizer.GetString(e.Lang, localization.KeyUpdatedTitle),
		e.Localizer.Format(e.Lang, localization.KeyUpdatedMsg, updated.ReferenceNumber),
		&updated.ID)
	return updated, nil
}

// ChangeStatus moves a request to a new status. Any status may be set from
// any other. Completing stamps completed_at and the deletion date three
// months out; leaving completed clears both, so the completion invariant
// holds in both directions. A completing transition fans out twice: the
// status update and the completion notice are distinct notifications.
func (e *Engine) ChangeStatus(requestID, newStatus, actorID string) (*models.Request, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":     newStatus,
		"updated_by": actorID,
		"updated_at": now,
	}
	completing := newStatus == models.StatusCompleted
	if completing {
		fields["completed_at"] = now
		fields["deletion_date"] = now.AddDate(0, config.RetentionMonths, 0)
	} else if req.Status == models.StatusCompleted {
		fields["completed_at"] = nil
		fields["deletion_date"] = nil
	}

	if err := e.Storage.UpdateRequestFields(requestID, fields); err != nil {
		return nil, err
	}
	updated, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}

	e.fanOut(updated, actorID,
		e.Localizer.GetString(e.Lang, localization.KeyStatusTitle),
		e.Localizer.Format(e.Lang, localization.KeyStatusMsg, updated.ReferenceNumber, newStatus),
		&updated.ID)
	if completing {
		e.fanOut(updated, actorID,
			e.Localizer.GetString(e.Lang, localization.KeyCompletedTitle),
			e.Localizer.Format(e.Lang, localization.KeyCompletedMsg, updated.ReferenceNumber),
			&updated.ID)
	}
	return updated, nil
}

// DeleteRequest removes a request on behalf of an administrator or its
// creator. The ordered sequence is: notify the creator, notify the sender
// organization, delete storage objects, delete the record. Notification and
// object-store failures are logged and do not stop the sequence; the final
// record delete must succeed or the call fails.
func (e *Engine) DeleteRequest(requestID, actorID string) error {
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	if err := e.authorize(req, actorID); err != nil {
		return err
	}

	title := e.Localizer.GetString(e.Lang, localization.KeyDeletedTitle)
	message := e.Localizer.Format(e.Lang, localization.KeyDeletedMsg, req.ReferenceNumber)

	// The request will no longer exist, so the notifications carry no
	// related request id. Creator first, then the sender organization.
	if req.CreatedBy != "" && req.CreatedBy != actorID {
		e.Notifier.Notify([]string{req.CreatedBy}, title, message, nil)
	}
	members, err := e.Storage.GetOrganizationMemberIDs(req.SenderOrgID)
	if err != nil {
		log.Printf("ERROR: Failed to get members of organization %s for delete fan-out: %v", req.SenderOrgID, err)
	} else {
		var rest []string
		for _, id := range members {
			if id != actorID && id != req.CreatedBy {
				rest = append(rest, id)
			}
		}
		if len(rest) > 0 {
			e.Notifier.Notify(rest, title, message, nil)
		}
	}

	if err := e.Objects.DeleteAll(requestID); err != nil {
		log.Printf("ERROR: Failed to delete storage objects for request %s: %v", requestID, err)
	}

	return e.Storage.DeleteRequestCascade(requestID)
}

// AddComment appends a comment and notifies the usual audience, minus the
// actor and minus the comment's own author.
func (e *Engine) AddComment(requestID, body, actorID string) (*models.Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrValidation)
	}
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		RequestID: requestID,
		AuthorID:  actorID,
		Body:      body,
	}
	if err := e.Storage.SaveComment(comment); err != nil {
		return nil, err
	}

	members, err := e.Storage.GetOrganizationMemberIDs(req.SenderOrgID)
	if err != nil {
		log.Printf("ERROR: Failed to get members of organization %s for comment fan-out: %v", req.SenderOrgID, err)
		return comment, nil
	}
	recipients := notify.Audience(req, members, actorID, comment.AuthorID)
	if len(recipients) > 0 {
		e.Notifier.Notify(recipients,
			e.Localizer.GetString(e.Lang, localization.KeyCommentTitle),
			e.Localizer.Format(e.Lang, localization.KeyCommentMsg, req.ReferenceNumber),
			&req.ID)
	}
	return comment, nil
}

// AssignRequest stamps the assignee and notifies them. Used by the
// dispatcher; the actor is recorded as the updater.
func (e *Engine) AssignRequest(requestID, assigneeID, actorID string) error {
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{
		"assigned_to": assigneeID,
		"updated_by":  actorID,
		"updated_at":  time.Now(),
	}
	if err := e.Storage.UpdateRequestFields(requestID, fields); err != nil {
		return err
	}
	e.Notifier.Notify([]string{assigneeID},
		e.Localizer.GetString(e.Lang, localization.KeyAssignedTitle),
		e.Localizer.Format(e.Lang, localization.KeyAssignedMsg, req.ReferenceNumber),
		&req.ID)
	return nil
}

// authorize allows administrators and the request's creator.
func (e *Engine) authorize(req *models.Request, actorID string) error {
	if req.CreatedBy == actorID {
		return nil
	}
	actor, err := e.Storage.GetUserByID(actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if actor.IsAdministrator() {
		return nil
	}
	return ErrForbidden
}

// fanOut notifies the standard audience for an organization-scoped event:
// {creator} plus sender-organization members, minus the actor. A membership
// lookup failure skips the fan-out; the mutation already happened and stands.
func (e *Engine) fanOut(req *models.Request, actorID, title, message string, relatedRequestID *string) {
	members, err := e.Storage.GetOrganizationMemberIDs(req.SenderOrgID)
	if err != nil {
		log.Printf("ERROR: Failed to get members of organization %s for fan-out: %v", req.SenderOrgID, err)
		return
	}
	recipients := notify.Audience(req, members, actorID)
	if len(recipients) == 0 {
		return
	}
	e.Notifier.Notify(recipients, title, message, relatedRequestID)
}
