package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"reqtrack/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// RequestFilter narrows FindRequests. Zero values mean "no restriction".
type RequestFilter struct {
	Status       string
	SenderOrgID  string
	Priority     string
	AssignedTo   string
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time
	// Search matches reference_number or subject, case-insensitive substring.
	Search string
	// MemberUserID restricts results to requests whose sender organization
	// the given user belongs to. Used for non-privileged actors.
	MemberUserID string
}

type Storage interface {
	SaveRequest(req *models.Request) error
	GetRequestByID(id string) (*models.Request, error)
	FindRequests(filter RequestFilter) ([]models.Request, error)
	FindByReferenceNumber(ref string) (*models.Request, error)
	UpdateRequestFields(id string, fields map[string]interface{}) error
	DeleteRequestCascade(id string) error
	FindExpiredRequests(now time.Time) ([]models.Request, error)
	FindUnassignedPending() ([]models.Request, error)

	SaveRequestFile(file *models.RequestFile) error
	GetRequestFiles(requestID string) ([]models.RequestFile, error)
	CountResponseFiles(requestID string) (int64, error)

	SaveComment(comment *models.Comment) error
	GetComments(requestID string) ([]models.Comment, error)

	SaveNotification(n *models.Notification) error
	GetNotificationsForUser(userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(id, userID string) error
	CountUnread(userID string) (int64, error)

	GetUserByID(id string) (*models.User, error)
	LinkTelegramID(userID, telegramID string) error
	GetUsersWithTelegram() ([]models.User, error)

	GetOrganizationByID(id string) (*models.Organization, error)
	GetOrganizationMemberIDs(orgID string) ([]string, error)

	PublishNotification(event models.NotificationEvent) error

	AddAvailableStaff(userID string) error
	RemoveAvailableStaff(userID string) error
	GetAvailableStaff() ([]string, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveRequest persists a request (insert or update) in PostgreSQL.
func (s *Service) SaveRequest(req *models.Request) error {
	return s.DB.Save(req).Error
}

func (s *Service) GetRequestByID(id string) (*models.Request, error) {
	var req models.Request
	err := s.DB.First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get request %s: %v", id, err)
		return nil, err
	}
	return &req, nil
}

// FindRequests lists requests matching the filter, newest first.
func (s *Service) FindRequests(filter RequestFilter) ([]models.Request, error) {
	q := s.DB.Model(&models.Request{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SenderOrgID != "" {
		q = q.Where("sender_org_id = ?", filter.SenderOrgID)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.AssignedTo != "" {
		q = q.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.ReceivedFrom != nil {
		q = q.Where("date_received >= ?", *filter.ReceivedFrom)
	}
	if filter.ReceivedTo != nil {
		q = q.Where("date_received <= ?", *filter.ReceivedTo)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("reference_number ILIKE ? OR subject ILIKE ?", like, like)
	}
	if filter.MemberUserID != "" {
		q = q.Where("sender_org_id IN (?)",
			s.DB.Model(&models.OrganizationMember{}).
				Select("organization_id").
				Where("user_id = ?", filter.MemberUserID))
	}

	var requests []models.Request
	if err := q.Order("created_at desc").Find(&requests).Error; err != nil {
		log.Printf("ERROR: Failed to find requests: %v", err)
		return nil, err
	}
	return requests, nil
}

// FindByReferenceNumber returns the oldest request holding the exact
// reference number, or nil if none exists. The match is case-sensitive.
func (s *Service) FindByReferenceNumber(ref string) (*models.Request, error) {
	var req models.Request
	err := s.DB.Where("reference_number = ?", ref).
		Order("created_at asc").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRequestFields applies a partial update. Last write wins; there is
// no optimistic locking on request rows.
func (s *Service) UpdateRequestFields(id string, fields map[string]interface{}) error {
	result := s.DB.Model(&models.Request{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		log.Printf("ERROR: Failed to update request %s: %v", id, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequestCascade removes the request row. File and comment rows go
// with it via their FK constraints; notification references are nulled.
func (s *Service) DeleteRequestCascade(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&models.RequestFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("request_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notification{}).
			Where("related_request_id = ?", id).
			Update("related_request_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Request{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindExpiredRequests returns completed requests whose deletion date has passed.
func (s *Service) FindExpiredRequests(now time.Time) ([]models.Request, error) {
	var requests []models.Request
	err := s.DB.Where("deletion_date IS NOT NULL AND deletion_date <= ?", now).
		Order("deletion_date asc").
		Find(&requests).Error
	if err != nil {
		log.Printf("ERROR: Failed to find expired requests: %v", err)
		return nil, err
	}
	return requests, nil
}

// FindUnassignedPending returns pending requests with no assignee, oldest first.
func (s *Service) FindUnassignedPending() ([]models.Request, error) {
	var requests []models.Request
	err := s.DB.Where("status = ? AND (assigned_to IS NULL OR assigned_to = '')",
		models.StatusPending).
		Order("created_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
