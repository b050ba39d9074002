package notify_test

import (
	"errors"
	"testing"

	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the notify.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveNotification(n *models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockStore) PublishNotification(event models.NotificationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// TestNotify_OneRowPerRecipient verifies each recipient gets an
// independent notification row plus a realtime push.
func TestNotify_OneRowPerRecipient(t *testing.T) {
	// Arrange
	store := new(MockStore)
	service := notify.NewService(store)

	var savedFor []string
	store.On("SaveNotification", mock.AnythingOfType("*models.Notification")).
		Run(func(args mock.Arguments) {
			savedFor = append(savedFor, args.Get(0).(*models.Notification).UserID)
		}).Return(nil)
	store.On("PublishNotification", mock.AnythingOfType("models.NotificationEvent")).Return(nil)

	requestID := "req-1"

	// Act
	service.Notify([]string{"u1", "u2", "u3"}, "New Request", "Request REF-1 has been registered.", &requestID)

	// Assert
	assert.Equal(t, []string{"u1", "u2", "u3"}, savedFor)
	store.AssertNumberOfCalls(t, "PublishNotification", 3)
}

// TestNotify_InsertFailureIsSwallowed verifies a failed insert never
// reaches the caller and does not stop sibling recipients.
func TestNotify_InsertFailureIsSwallowed(t *testing.T) {
	// Arrange
	store := new(MockStore)
	service := notify.NewService(store)

	store.On("SaveNotification", mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == "u2"
	})).Return(errors.New("deadlock detected"))
	store.On("SaveNotification", mock.AnythingOfType("*models.Notification")).Return(nil)
	store.On("PublishNotification", mock.AnythingOfType("models.NotificationEvent")).Return(nil)

	// Act: must not panic or propagate the error.
	service.Notify([]string{"u1", "u2", "u3"}, "t", "m", nil)

	// Assert: u2's push is skipped, siblings still go out.
	store.AssertNumberOfCalls(t, "SaveNotification", 3)
	store.AssertNumberOfCalls(t, "PublishNotification", 2)
}

// TestNotify_PublishFailureIsBestEffort verifies a failed realtime push
// does not undo or block the persisted rows.
func TestNotify_PublishFailureIsBestEffort(t *testing.T) {
	store := new(MockStore)
	service := notify.NewService(store)

	store.On("SaveNotification", mock.AnythingOfType("*models.Notification")).Return(nil)
	store.On("PublishNotification", mock.AnythingOfType("models.NotificationEvent")).
		Return(errors.New("redis: connection refused"))

	service.Notify([]string{"u1", "u2"}, "t", "m", nil)

	store.AssertNumberOfCalls(t, "SaveNotification", 2)
}

func TestAudience(t *testing.T) {
	req := &models.Request{CreatedBy: "creator"}

	tests := []struct {
		name     string
		members  []string
		actorID  string
		exclude  []string
		expected []string
	}{
		{
			name:     "creator plus members minus actor",
			members:  []string{"m1", "m2"},
			actorID:  "m1",
			expected: []string{"creator", "m2"},
		},
		{
			name:     "creator who is also a member appears once",
			members:  []string{"creator", "m1"},
			actorID:  "other",
			expected: []string{"creator", "m1"},
		},
		{
			name:     "acting creator is excluded",
			members:  []string{"m1"},
			actorID:  "creator",
			expected: []string{"m1"},
		},
		{
			name:     "explicit excludes are honored",
			members:  []string{"m1", "m2"},
			actorID:  "other",
			exclude:  []string{"m2"},
			expected: []string{"creator", "m1"},
		},
		{
			name:     "duplicate member ids collapse",
			members:  []string{"m1", "m1", "m2"},
			actorID:  "other",
			expected: []string{"creator", "m1", "m2"},
		},
		{
			name:     "empty when everyone is excluded",
			members:  []string{"creator"},
			actorID:  "creator",
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notify.Audience(req, tt.members, tt.actorID, tt.exclude...)
			assert.Equal(t, tt.expected, got)
		})
	}
}
