package handler

import (
	"errors"
	"net/http"
	"time"

	"reqtrack/backend/internal/lifecycle"
	"reqtrack/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// writeEngineError maps lifecycle/storage errors to HTTP statuses.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateRequest handles POST /requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	var input lifecycle.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Engine.CreateRequest(input, c.GetString("user_id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// CheckDuplicate handles GET /requests/check-duplicate?reference_number=...
// The result is advisory; the UI shows it before submission.
func (h *Handler) CheckDuplicate(c *gin.Context) {
	ref := c.Query("reference_number")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_number is required"})
		return
	}
	result, err := h.Engine.CheckDuplicateReference(ref)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListRequests handles GET /requests with the standard filter parameters.
// Non-administrators only see requests of organizations they belong to.
func (h *Handler) ListRequests(c *gin.Context) {
	actorID := c.GetString("user_id")

	filter := storage.RequestFilter{
		Status:      c.Query("status"),
		SenderOrgID: c.Query("sender_org_id"),
		Priority:    c.Query("priority"),
		AssignedTo:  c.Query("assigned_to"),
		Search:      c.Query("search"),
	}
	if from := c.Query("received_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.ReceivedFrom = &t
		}
	}
	if to := c.Query("received_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.ReceivedTo = &t
		}
	}

	actor, err := h.Storage.GetUserByID(actorID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if !actor.IsAdministrator() {
		filter.MemberUserID = actorID
	}

	requests, err := h.Storage.FindRequests(filter)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetRequest handles GET /requests/:id, including files and comments.
func (h *Handler) GetRequest(c *gin.Context) {
	id := c.Param("id")

	req, err := h.Storage.GetRequestByID(id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	files, err := h.Storage.GetRequestFiles(id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	comments, err := h.Storage.GetComments(id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "files": files, "comments": comments})
}

// UpdateRequest handles PATCH /requests/:id.
func (h *Handler) UpdateRequest(c *gin.Context) {
	var patch lifecycle.FieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Engine.UpdateRequestFields(c.Param("id"), patch, c.GetString("user_id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ChangeStatus handles PATCH /requests/:id/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	req, err := h.Engine.ChangeStatus(c.Param("id"), body.Status, c.GetString("user_id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeleteRequest handles DELETE /requests/:id.
func (h *Handler) DeleteRequest(c *gin.Context) {
	if err := h.Engine.DeleteRequest(c.Param("id"), c.GetString("user_id")); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddComment handles POST /requests/:id/comments.
func (h *Handler) AddComment(c *gin.Context) {
	var body struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	}

	comment, err := h.Engine.AddComment(c.Param("id"), body.Body, c.GetString("user_id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /requests/:id/comments.
func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.Storage.GetComments(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// SetAvailability handles PUT /availability: staff opt in or out of
// automatic assignment.
func (h *Handler) SetAvailability(c *gin.Context) {
	var body struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "available is required"})
		return
	}

	actorID := c.GetString("user_id")
	var err error
	if *body.Available {
		err = h.Storage.AddAvailableStaff(actorID)
	} else {
		err = h.Storage.RemoveAvailableStaff(actorID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *body.Available})
}
