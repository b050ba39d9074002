package lifecycle

import (
	"fmt"
	"log"

	"reqtrack/backend/internal/filestore"
	"reqtrack/backend/internal/localization"
	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/notify"
)

// UploadFile is one file within an upload batch.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// UploadFiles processes a batch of uploads for a request, one file at a
// time so memory stays bounded and each file reports its own outcome.
// Response PDFs go through the security pipeline first; a pipeline failure
// degrades to an unsecured passthrough with a warning, never a failed
// upload. The batch is complete only if every file succeeded: only then the
// "files uploaded" fan-out fires and — for response batches, under the
// auto-complete policy — a non-completed request is completed. Failed files
// do not roll back their successful siblings.
func (e *Engine) UploadFiles(requestID string, files []UploadFile, isResponse bool, actorID string) ([]models.FileUploadResult, error) {
	req, err := e.Storage.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in batch", ErrValidation)
	}

	results := make([]models.FileUploadResult, 0, len(files))
	var firstFailed string

	for _, f := range files {
		result := models.FileUploadResult{FileName: f.Name}

		if err := filestore.Validate(f.Name, f.MimeType, int64(len(f.Data))); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			if firstFailed == "" {
				firstFailed = f.Name
			}
			continue
		}

		data := f.Data
		secured := false
		if isResponse {
			secResult := e.Securer.Secure(f.Data, f.MimeType)
			data = secResult.Data
			secured = secResult.Secured
			result.Warning = secResult.Warning
		}

		objectPath, err := e.Objects.Put(requestID, f.Name, f.MimeType, data)
		if err != nil {
			log.Printf("ERROR: Failed to store file %s for request %s: %v", f.Name, requestID, err)
			result.Error = err.Error()
			results = append(results, result)
			if firstFailed == "" {
				firstFailed = f.Name
			}
			continue
		}

		meta := &models.RequestFile{
			RequestID:         requestID,
			FileName:          f.Name,
			ObjectPath:        objectPath,
			MimeType:          f.MimeType,
			Size:              int64(len(data)),
			IsOriginalRequest: !isResponse,
			IsResponse:        isResponse,
			IsSecured:         secured,
			UploadedBy:        actorID,
		}
		if err := e.Storage.SaveRequestFile(meta); err != nil {
			log.Printf("ERROR: Failed to save metadata for file %s of request %s: %v", f.Name, requestID, err)
			// The stored object without metadata is unreachable; remove it.
			if delErr := e.Objects.Delete(objectPath); delErr != nil {
				log.Printf("WARNING: Failed to remove orphaned object %s: %v", objectPath, delErr)
			}
			result.Error = err.Error()
			results = append(results, result)
			if firstFailed == "" {
				firstFailed = f.Name
			}
			continue
		}

		result.Uploaded = true
		result.Secured = secured
		results = append(results, result)
	}

	if firstFailed != "" {
		// Successes stay persisted; the batch fan-out and any
		// auto-transition are skipped.
		return results, fmt.Errorf("upload batch incomplete: file %q failed", firstFailed)
	}

	members, err := e.Storage.GetOrganizationMemberIDs(req.SenderOrgID)
	if err != nil {
		log.Printf("ERROR: Failed to get members of organization %s for upload fan-out: %v", req.SenderOrgID, err)
	} else {
		recipients := notify.Audience(req, members, actorID)
		if len(recipients) > 0 {
			e.Notifier.Notify(recipients,
				e.Localizer.GetString(e.Lang, localization.KeyFilesTitle),
				e.Localizer.Format(e.Lang, localization.KeyFilesMsg, len(files), req.ReferenceNumber),
				&req.ID)
		}
	}

	if isResponse && e.AutoComplete && req.Status != models.StatusCompleted {
		if _, err := e.ChangeStatus(requestID, models.StatusCompleted, actorID); err != nil {
			log.Printf("ERROR: Auto-complete after response upload failed for request %s: %v", requestID, err)
		}
	}

	return results, nil
}
