package lifecycle_test

import (
	"errors"
	"testing"

	"reqtrack/backend/internal/filesec"
	"reqtrack/backend/internal/lifecycle"
	"reqtrack/backend/internal/localization"
	"reqtrack/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func uploadEngine(s *MockStorage, n *RecordingNotifier, sec *StubSecurer, obj *MockObjectStore) *lifecycle.Engine {
	return lifecycle.NewEngine(s, n, sec, obj, localization.NewLocalizer())
}

// TestUploadFiles_FullySuccessfulBatch verifies a complete batch persists
// every file, fires the fan-out once and, for a response batch, completes
// the request.
func TestUploadFiles_FullySuccessfulBatch(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	notifier := &RecordingNotifier{}
	securer := &StubSecurer{PassThrough: true, Result: filesec.Result{Secured: true}}
	objects := new(MockObjectStore)
	engine := uploadEngine(storageMock, notifier, securer, objects)

	req := &models.Request{ID: "req-1", ReferenceNumber: "REF-100", SenderOrgID: "org-a", Status: models.StatusInProgress, CreatedBy: "u3"}
	storageMock.On("GetRequestByID", "req-1").Return(req, nil)
	objects.On("Put", "req-1", mock.Anything, mock.Anything, mock.Anything).
		Return("requests/req-1/obj", nil)
	storageMock.On("SaveRequestFile", mock.AnythingOfType("*models.RequestFile")).Return(nil)
	storageMock.On("GetOrganizationMemberIDs", "org-a").Return([]string{"u1", "u2"}, nil)
	// Auto-complete path.
	storageMock.On("UpdateRequestFields", "req-1", mock.Anything).Return(nil)

	files := []lifecycle.UploadFile{
		{Name: "reply.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.7 reply")},
		{Name: "scan.png", MimeType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
	}

	// Act
	results, err := engine.UploadFiles("req-1", files, true, "u2")

	// Assert
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Uploaded)
		assert.Empty(t, r.Error)
	}

	// One files-uploaded fan-out, then the status + completion fan-outs
	// from the auto-complete transition.
	assert.Len(t, notifier.Calls, 3)
	assert.Equal(t, "New Files Uploaded", notifier.Calls[0].Title)
	assert.Equal(t, []string{"u3", "u1"}, notifier.Calls[0].Recipients)
	assert.Equal(t, "Request Status Updated", notifier.Calls[1].Title)
	assert.Equal(t, "Request Completed", notifier.Calls[2].Title)
}

// TestUploadFiles_PartialFailure covers a batch of three where the second
// file fails mid-way: files one and three stay persisted, the batch error
// names the failed file, and neither the fan-out nor the auto-transition
// fires.
func TestUploadFiles_PartialFailure(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	notifier := &RecordingNotifier{}
	objects := new(MockObjectStore)
	engine := uploadEngine(storageMock, notifier, &StubSecurer{PassThrough: true}, objects)

	req := &models.Request{ID: "req-1", SenderOrgID: "org-a", Status: models.StatusInProgress, CreatedBy: "u3"}
	storageMock.On("GetRequestByID", "req-1").Return(req, nil)
	objects.On("Put", "req-1", "one.pdf", mock.Anything, mock.Anything).Return("requests/req-1/one", nil)
	objects.On("Put", "req-1", "two.pdf", mock.Anything, mock.Anything).Return("", errors.New("disk full"))
	objects.On("Put", "req-1", "three.pdf", mock.Anything, mock.Anything).Return("requests/req-1/three", nil)
	storageMock.On("SaveRequestFile", mock.AnythingOfType("*models.RequestFile")).Return(nil).Twice()

	files := []lifecycle.UploadFile{
		{Name: "one.pdf", MimeType: "application/pdf", Data: []byte("a")},
		{Name: "two.pdf", MimeType: "application/pdf", Data: []byte("b")},
		{Name: "three.pdf", MimeType: "application/pdf", Data: []byte("c")},
	}

	// Act
	results, err := engine.UploadFiles("req-1", files, true, "u2")

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `"two.pdf"`)
	assert.Len(t, results, 3)
	assert.True(t, results[0].Uploaded)
	assert.False(t, results[1].Uploaded)
	assert.Equal(t, "disk full", results[1].Error)
	assert.True(t, results[2].Uploaded, "a failed file does not roll back its siblings")

	assert.Empty(t, notifier.Calls, "incomplete batches must not fan out")
	storageMock.AssertNotCalled(t, "UpdateRequestFields", mock.Anything, mock.Anything)
	storageMock.AssertExpectations(t)
}

// TestUploadFiles_OriginalSkipsSecurity verifies original-request uploads
// bypass the security pipeline entirely.
func TestUploadFiles_OriginalSkipsSecurity(t *testing.T) {
	storageMock := new(MockStorage)
	notifier := &RecordingNotifier{}
	objects := new(MockObjectStore)
	securer := &StubSecurer{Result: filesec.Result{Data: []byte("should not be used"), Secured: true}}
	engine := uploadEngine(storageMock, notifier, securer, objects)

	req := &models.Request{ID: "req-1", SenderOrgID: "org-a", Status: models.StatusPending, CreatedBy: "u3"}
	var saved *models.RequestFile
	storageMock.On("GetRequestByID", "req-1").Return(req, nil)
	objects.On("Put", "req-1", "original.pdf", "application/pdf", []byte("%PDF original")).
		Return("requests/req-1/original", nil)
	storageMock.On("SaveRequestFile", mock.AnythingOfType("*models.RequestFile")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).(*models.RequestFile)
		}).Return(nil)
	storageMock.On("GetOrganizationMemberIDs", "org-a").Return([]string{}, nil)

	results, err := engine.UploadFiles("req-1",
		[]lifecycle.UploadFile{{Name: "original.pdf", MimeType: "application/pdf", Data: []byte("%PDF original")}},
		false, "u3")

	assert.NoError(t, err)
	assert.False(t, results[0].Secured)
	assert.True(t, saved.IsOriginalRequest)
	assert.False(t, saved.IsResponse)
	assert.False(t, saved.IsSecured)
	// No auto-complete for original-request batches.
	storageMock.AssertNotCalled(t, "UpdateRequestFields", mock.Anything, mock.Anything)
}

// TestUploadFiles_PipelineWarningStillUploads verifies a degraded security
// pipeline result uploads the original bytes with a warning rather than
// failing the file.
func TestUploadFiles_PipelineWarningStillUploads(t *testing.T) {
	storageMock := new(MockStorage)
	notifier := &RecordingNotifier{}
	objects := new(MockObjectStore)
	securer := &StubSecurer{PassThrough: true, Result: filesec.Result{
		Secured: false,
		Warning: "file stored unsecured: malformed xref table",
	}}
	engine := uploadEngine(storageMock, notifier, securer, objects)

	req := &models.Request{ID: "req-1", SenderOrgID: "org-a", Status: models.StatusCompleted, CreatedBy: "u3"}
	storageMock.On("GetRequestByID", "req-1").Return(req, nil)
	objects.On("Put", "req-1", "reply.pdf", "application/pdf", []byte("%PDF broken")).
		Return("requests/req-1/reply", nil)
	storageMock.On("SaveRequestFile", mock.AnythingOfType("*models.RequestFile")).Return(nil)
	storageMock.On("GetOrganizationMemberIDs", "org-a").Return([]string{}, nil)

	results, err := engine.UploadFiles("req-1",
		[]lifecycle.UploadFile{{Name: "reply.pdf", MimeType: "application/pdf", Data: []byte("%PDF broken")}},
		true, "u2")

	assert.NoError(t, err)
	assert.True(t, results[0].Uploaded)
	assert.False(t, results[0].Secured)
	assert.Contains(t, results[0].Warning, "unsecured")
	// Already completed; no auto-transition.
	storageMock.AssertNotCalled(t, "UpdateRequestFields", mock.Anything, mock.Anything)
}

// TestUploadFiles_ValidationFailureCleanup verifies a disallowed file is
// rejected without touching the object store, and a metadata failure
// removes the orphaned object.
func TestUploadFiles_ValidationFailureCleanup(t *testing.T) {
	storageMock := new(MockStorage)
	objects := new(MockObjectStore)
	engine := uploadEngine(storageMock, &RecordingNotifier{}, &StubSecurer{PassThrough: true}, objects)

	req := &models.Request{ID: "req-1", SenderOrgID: "org-a", Status: models.StatusPending}
	storageMock.On("GetRequestByID", "req-1").Return(req, nil)
	objects.On("Put", "req-1", "ok.pdf", mock.Anything, mock.Anything).Return("requests/req-1/ok", nil)
	storageMock.On("SaveRequestFile", mock.AnythingOfType("*models.RequestFile")).Return(errors.New("constraint violation"))
	objects.On("Delete", "requests/req-1/ok").Return(nil).Once()

	files := []lifecycle.UploadFile{
		{Name: "virus.exe", MimeType: "application/x-msdownload", Data: []byte("MZ")},
		{Name: "ok.pdf", MimeType: "application/pdf", Data: []byte("%PDF")},
	}

	results, err := engine.UploadFiles("req-1", files, false, "u1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), `"virus.exe"`)
	assert.False(t, results[0].Uploaded)
	assert.NotEmpty(t, results[0].Error)
	assert.False(t, results[1].Uploaded)
	objects.AssertNotCalled(t, "Put", "req-1", "virus.exe", mock.Anything, mock.Anything)
	objects.AssertExpectations(t)
}

func TestUploadFiles_EmptyBatch(t *testing.T) {
	storageMock := new(MockStorage)
	engine := uploadEngine(storageMock, &RecordingNotifier{}, &StubSecurer{}, new(MockObjectStore))

	storageMock.On("GetRequestByID", "req-1").Return(&models.Request{ID: "req-1"}, nil)

	_, err := engine.UploadFiles("req-1", nil, false, "u1")

	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}
