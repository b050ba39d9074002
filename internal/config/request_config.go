package config

import "time"

const (
	// Retention
	RetentionMonths = 3

	// Uploads
	MaxUploadSize     = 20 << 20 // 20MB per file
	MaxBatchSize      = 10
	SecuredPDFKeyBits = 256

	// Policy: the first fully successful response batch completes the request.
	// Exactly one auto-completion policy exists; call sites never override it.
	AutoCompleteOnResponseUpload = true

	// Dispatcher
	DispatchInterval = 5 * time.Second

	// Realtime feed
	NotificationChannel = "notifications:feed"
	AvailableStaffKey   = "dispatch:available_staff"
)

// AllowedMIMETypes is the upload allow-list, keyed by MIME type.
var AllowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/jpeg": true,
	"image/png":  true,
}

// PriorityWeights orders requests for dispatching. Higher is served first.
var PriorityWeights = map[string]int{
	"low":    5,
	"normal": 50,
	"high":   250,
	"urgent": 1000,
}
