package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// Default display values for clients with missing profile data.
const (
	defaultClientName = "Cliente"

	notificationConsultantInvite = "consultant_invite"
)

// consultantService resolves acting contexts and manages consultant-client links.
type consultantService struct {
	db *gorm.DB
}

// NewConsultantService creates a new ConsultantServicer.
func NewConsultantService(db *gorm.DB) ConsultantServicer {
	return &consultantService{db: db}
}

// ResolveActingContext decides whose data a request operates on. Anything
// other than a consultant with an active link to actingClientID resolves to
// the caller's own data; an unusable acting id is dropped, not reported.
func (s *consultantService) ResolveActingContext(identity Identity, actingClientID string) (ActingContext, error) {
	self := SelfContext(identity.ID)
	if identity.Role != models.RoleConsultant || actingClientID == "" {
		return self, nil
	}

	consultant, err := s.consultantFor(identity.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConsultant) {
			return self, nil
		}
		return self, err
	}

	link, err := s.activeLink(consultant.ID, actingClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return self, nil
		}
		return self, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return actingThrough(identity.ID, link), nil
}

// AssertClientOwnership returns the acting context for the client when the
// consultant has an active link to it. Any other case is reported as
// CLIENT_NOT_FOUND.
func (s *consultantService) AssertClientOwnership(consultantUserID, clientID string) (ActingContext, error) {
	consultant, err := s.consultantFor(consultantUserID)
	if err != nil {
		return ActingContext{}, err
	}

	link, err := s.activeLink(consultant.ID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ActingContext{}, apperrors.ErrClientNotFound
		}
		return ActingContext{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return actingThrough(consultantUserID, link), nil
}

func (s *consultantService) activeLink(consultantID, clientID string) (*models.ConsultantClient, error) {
	var link models.ConsultantClient
	err := s.db.Preload("Client").
		Where("client_id = ? AND consultant_id = ? AND status = ?", clientID, consultantID, models.LinkStatusActive).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func actingThrough(requestorID string, link *models.ConsultantClient) ActingContext {
	return ActingContext{
		RequestorID:  requestorID,
		TargetUserID: link.ClientID,
		ActingClient: &ActingClient{
			ID:    link.ClientID,
			Name:  link.Client.DisplayName(defaultClientName),
			Email: link.Client.Email,
		},
		Justification: "consultant_link:" + link.ID,
	}
}

// InviteClient creates a pending link to the user with the given email and
// notifies them. A previously deactivated link is reopened as pending.
func (s *consultantService) InviteClient(consultantUserID, email string) (*models.ConsultantClient, error) {
	consultant, err := s.consultantFor(consultantUserID)
	if err != nil {
		return nil, err
	}

	var client models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if client.ID == consultantUserID {
		return nil, apperrors.ErrSelfLink
	}

	var link models.ConsultantClient
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("consultant_id = ? AND client_id = ?", consultant.ID, client.ID).First(&link).Error
		switch {
		case err == nil && link.Status != models.LinkStatusInactive:
			return apperrors.ErrClientAlreadyLinked
		case err == nil:
			link.Status = models.LinkStatusPending
			if err := tx.Model(&link).Update("status", models.LinkStatusPending).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			link = models.ConsultantClient{
				ConsultantID: consultant.ID,
				ClientID:     client.ID,
				Status:       models.LinkStatusPending,
			}
			if err := tx.Create(&link).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		default:
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var consultantUser models.User
		if err := tx.First(&consultantUser, "id = ?", consultantUserID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		notification := &models.Notification{
			UserID:  client.ID,
			Type:    notificationConsultantInvite,
			Title:   "Convite de consultor",
			Message: fmt.Sprintf("%s quer acompanhar suas finanças.", consultantUser.DisplayName(consultantUser.Email)),
		}
		if err := tx.Create(notification).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	link.Client = client
	return &link, nil
}

// ListClients returns the consultant's pending and active links.
func (s *consultantService) ListClients(consultantUserID string) ([]models.ConsultantClient, error) {
	consultant, err := s.consultantFor(consultantUserID)
	if err != nil {
		return nil, err
	}

	var links []models.ConsultantClient
	if err := s.db.Preload("Client").
		Where("consultant_id = ? AND status <> ?", consultant.ID, models.LinkStatusInactive).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return links, nil
}

// RemoveClient deactivates a link owned by the consultant.
func (s *consultantService) RemoveClient(consultantUserID, linkID string) error {
	consultant, err := s.consultantFor(consultantUserID)
	if err != nil {
		return err
	}

	result := s.db.Model(&models.ConsultantClient{}).
		Where("id = ? AND consultant_id = ?", linkID, consultant.ID).
		Update("status", models.LinkStatusInactive)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrClientNotFound
	}
	return nil
}

// ListInvites returns pending links addressed to the client.
func (s *consultantService) ListInvites(clientID string) ([]models.ConsultantClient, error) {
	var links []models.ConsultantClient
	if err := s.db.Preload("Consultant.User").
		Where("client_id = ? AND status = ?", clientID, models.LinkStatusPending).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return links, nil
}

// AcceptInvite activates a pending link addressed to the client.
func (s *consultantService) AcceptInvite(clientID, linkID string) (*models.ConsultantClient, error) {
	var link models.ConsultantClient
	err := s.db.Where("id = ? AND client_id = ? AND status = ?", linkID, clientID, models.LinkStatusPending).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInviteNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	link.Status = models.LinkStatusActive
	if err := s.db.Model(&link).Update("status", models.LinkStatusActive).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &link, nil
}

func (s *consultantService) consultantFor(userID string) (*models.Consultant, error) {
	var consultant models.Consultant
	if err := s.db.Where("user_id = ?", userID).First(&consultant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotConsultant
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &consultant, nil
}
