package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
)

// notificationService reads and acknowledges in-app notifications.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// ListNotifications returns the user's notifications, newest first.
func (s *notificationService) ListNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read_at IS NULL")
	}

	result, err := pagination.Find[models.Notification](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// MarkRead stamps a notification as read. Marking it again keeps the first timestamp.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrNotificationNotFound)
	}
	if notification.ReadAt != nil {
		return &notification, nil
	}

	now := time.Now()
	if err := s.db.Model(&notification).Update("read_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	notification.ReadAt = &now
	return &notification, nil
}
