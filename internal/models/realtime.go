package models

// NotificationEvent is the realtime push payload published to Redis and
// delivered to connected feed clients. Delivery is fire-and-forget; the
// persisted Notification row is the authoritative copy.
type NotificationEvent struct {
	NotificationID   string `json:"notification_id"`
	UserID           string `json:"user_id"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	RelatedRequestID string `json:"related_request_id,omitempty"`
}

// FileUploadResult reports the outcome of one file within an upload batch.
type FileUploadResult struct {
	FileName string `json:"file_name"`
	Uploaded bool   `json:"uploaded"`
	Secured  bool   `json:"secured"`
	Warning  string `json:"warning,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DuplicateCheck is the advisory result of a reference-number lookup.
type DuplicateCheck struct {
	IsDuplicate bool             `json:"is_duplicate"`
	Existing    *DuplicateSummary `json:"existing,omitempty"`
}

// DuplicateSummary describes the first request already holding a reference
// number, shown to the submitter for confirmation.
type DuplicateSummary struct {
	RequestID    string `json:"request_id"`
	DateReceived string `json:"date_received"`
	SenderOrgID  string `json:"sender_org_id"`
	Status       string `json:"status"`
}
