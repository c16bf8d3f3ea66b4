package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// Audited actions.
const (
	AuditActingStart = "ACTING_START"
	AuditActingStop  = "ACTING_STOP"
	AuditAporte      = "APORTE"
	AuditResgate     = "RESGATE"
	AuditRoleChange  = "ROLE_CHANGE"
	AuditTargets     = "ALLOCATION_TARGETS"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event for the acting context. Errors are logged but
// never propagate to avoid disrupting the main operation.
func (s *auditService) Log(acting ActingContext, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if acting.IsActing() {
		if changes == nil {
			changes = map[string]any{}
		}
		changes["justification"] = acting.Justification
	}
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		RequestorID:  acting.RequestorID,
		TargetUserID: acting.TargetUserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"requestor_id", acting.RequestorID,
			"target_user_id", acting.TargetUserID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
