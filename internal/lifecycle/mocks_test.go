package lifecycle_test

import (
	"time"

	"reqtrack/backend/internal/filesec"
	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a comprehensive mock implementation of the storage.Storage
// interface, using testify/mock for flexible expectation setting.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveRequest(req *models.Request) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockStorage) GetRequestByID(id string) (*models.Request, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockStorage) FindRequests(filter storage.RequestFilter) ([]models.Request, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockStorage) FindByReferenceNumber(ref string) (*models.Request, error) {
	args := m.Called(ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockStorage) UpdateRequestFields(id string, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockStorage) DeleteRequestCascade(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) FindExpiredRequests(now time.Time) ([]models.Request, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockStorage) FindUnassignedPending() ([]models.Request, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockStorage) SaveRequestFile(file *models.RequestFile) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockStorage) GetRequestFiles(requestID string) ([]models.RequestFile, error) {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RequestFile), args.Error(1)
}

func (m *MockStorage) CountResponseFiles(requestID string) (int64, error) {
	args := m.Called(requestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) SaveComment(comment *models.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockStorage) GetComments(requestID string) ([]models.Comment, error) {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockStorage) SaveNotification(n *models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockStorage) GetNotificationsForUser(userID string, limit int) ([]models.Notification, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockStorage) MarkNotificationRead(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func (m *MockStorage) CountUnread(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) LinkTelegramID(userID, telegramID string) error {
	args := m.Called(userID, telegramID)
	return args.Error(0)
}

func (m *MockStorage) GetUsersWithTelegram() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) GetOrganizationByID(id string) (*models.Organization, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockStorage) GetOrganizationMemberIDs(orgID string) ([]string, error) {
	args := m.Called(orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) PublishNotification(event models.NotificationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockStorage) AddAvailableStaff(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveAvailableStaff(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) GetAvailableStaff() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// RecordingNotifier captures fan-out calls for assertions.
type RecordingNotifier struct {
	Calls []NotifyCall
}

type NotifyCall struct {
	Recipients       []string
	Title            string
	Message          string
	RelatedRequestID *string
}

func (n *RecordingNotifier) Notify(recipients []string, title, message string, relatedRequestID *string) {
	n.Calls = append(n.Calls, NotifyCall{
		Recipients:       recipients,
		Title:            title,
		Message:          message,
		RelatedRequestID: relatedRequestID,
	})
}

// StubSecurer returns canned pipeline results.
type StubSecurer struct {
	Result filesec.Result
	// PassThrough echoes the input bytes when set.
	PassThrough bool
}

func (s *StubSecurer) Secure(data []byte, mimeType string) filesec.Result {
	if s.PassThrough {
		return filesec.Result{Data: data, Secured: s.Result.Secured, Warning: s.Result.Warning}
	}
	return s.Result
}

// MockObjectStore is a testify mock of the filestore.ObjectStore interface.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(requestID, fileName, mimeType string, data []byte) (string, error) {
	args := m.Called(requestID, fileName, mimeType, data)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(objectPath string) error {
	args := m.Called(objectPath)
	return args.Error(0)
}

func (m *MockObjectStore) DeleteAll(requestID string) error {
	args := m.Called(requestID)
	return args.Error(0)
}
