package storage

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"reqtrack/backend/internal/config"
	"reqtrack/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SaveRequestFile persists file metadata in PostgreSQL.
func (s *Service) SaveRequestFile(file *models.RequestFile) error {
	return s.DB.Create(file).Error
}

func (s *Service) GetRequestFiles(requestID string) ([]models.RequestFile, error) {
	var files []models.RequestFile
	err := s.DB.Where("request_id = ?", requestID).
		Order("created_at asc").
		Find(&files).Error
	if err != nil {
		log.Printf("ERROR: Failed to get files for request %s: %v", requestID, err)
		return nil, err
	}
	return files, nil
}

func (s *Service) CountResponseFiles(requestID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.RequestFile{}).
		Where("request_id = ? AND is_response = ?", requestID, true).
		Count(&count).Error
	return count, err
}

// SaveComment appends a comment. Comments are never updated or reordered.
func (s *Service) SaveComment(comment *models.Comment) error {
	result := s.DB.Create(comment)
	if result.Error != nil {
		log.Printf("ERROR: Failed to save comment for request %s: %v", comment.RequestID, result.Error)
		return result.Error
	}
	return nil
}

func (s *Service) GetComments(requestID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.DB.Where("request_id = ?", requestID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// SaveNotification inserts a single notification row.
func (s *Service) SaveNotification(n *models.Notification) error {
	return s.DB.Create(n).Error
}

func (s *Service) GetNotificationsForUser(userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.DB.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		log.Printf("ERROR: Failed to get notifications for user %s: %v", userID, err)
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips is_read to true. The transition is monotonic:
// a read notification never becomes unread again.
func (s *Service) MarkNotificationRead(id, userID string) error {
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Already read or not this user's notification. Check existence.
		var n models.Notification
		err := s.DB.First(&n, "id = ? AND user_id = ?", id, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) CountUnread(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkTelegramID attaches a Telegram chat id to a user for the bridge.
func (s *Service) LinkTelegramID(userID, telegramID string) error {
	result := s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("telegram_id", telegramID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) GetUsersWithTelegram() ([]models.User, error) {
	var users []models.User
	err := s.DB.Where("telegram_id <> ''").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) GetOrganizationByID(id string) (*models.Organization, error) {
	var org models.Organization
	err := s.DB.First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get organization %s: %v", id, err)
		return nil, err
	}
	return &org, nil
}

// GetOrganizationMemberIDs returns the user ids of all organization members.
func (s *Service) GetOrganizationMemberIDs(orgID string) ([]string, error) {
	var userIDs []string
	err := s.DB.Model(&models.OrganizationMember{}).
		Where("organization_id = ?", orgID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		log.Printf("ERROR: Failed to get members of organization %s: %v", orgID, err)
		return nil, err
	}
	return userIDs, nil
}

// PublishNotification pushes a realtime event over Redis Pub/Sub.
// Delivery is fire-and-forget; a client that misses it re-fetches over HTTP.
func (s *Service) PublishNotification(event models.NotificationEvent) error {
	if s.Redis == nil {
		// CLI runs without Redis; the persisted row is what matters.
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.NotificationChannel, string(payload)).Err()
}

// SubscribeNotifications subscribes to the realtime notification channel.
func (s *Service) SubscribeNotifications() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, config.NotificationChannel)
}

// AddAvailableStaff marks a staff member as available for assignment.
func (s *Service) AddAvailableStaff(userID string) error {
	return s.Redis.SAdd(s.Ctx, config.AvailableStaffKey, userID).Err()
}

// RemoveAvailableStaff withdraws a staff member from the availability pool.
func (s *Service) RemoveAvailableStaff(userID string) error {
	return s.Redis.SRem(s.Ctx, config.AvailableStaffKey, userID).Err()
}

// GetAvailableStaff returns everyone currently accepting assignments.
func (s *Service) GetAvailableStaff() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, config.AvailableStaffKey).Result()
}
