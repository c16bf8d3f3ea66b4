package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// institutionService maintains the broker and bank catalogue.
type institutionService struct {
	db *gorm.DB
}

// NewInstitutionService creates a new InstitutionServicer.
func NewInstitutionService(db *gorm.DB) InstitutionServicer {
	return &institutionService{db: db}
}

// UpsertInstitution creates the institution or, when one with the same
// derived code exists, refreshes its name, status and updated_at.
func (s *institutionService) UpsertInstitution(name string, status models.InstitutionStatus) (*models.Institution, error) {
	name = strings.TrimSpace(name)
	code := InstitutionCode(name)
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "institution name is required")
	}
	if status == "" {
		status = models.InstitutionAtiva
	}
	if status != models.InstitutionAtiva && status != models.InstitutionInativa {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be ATIVA or INATIVA")
	}

	institution := models.Institution{Code: code, Name: name, Status: status}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "status", "updated_at", "deleted_at"}),
	}).Create(&institution).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.Institution
	if err := s.db.Where("code = ?", code).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// ListInstitutions returns institutions ordered by name, optionally only one status.
func (s *institutionService) ListInstitutions(status *models.InstitutionStatus) ([]models.Institution, error) {
	query := s.db.Order("name ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var institutions []models.Institution
	if err := query.Find(&institutions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return institutions, nil
}

// InstitutionCode derives the catalogue key from a name: accents dropped,
// lower case, runs of other characters collapsed into single hyphens.
func InstitutionCode(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
