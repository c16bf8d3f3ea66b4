package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// indexService reads the stored economic index series.
type indexService struct {
	db *gorm.DB
}

// NewIndexService creates a new IndexServicer.
func NewIndexService(db *gorm.DB) IndexServicer {
	return &indexService{db: db}
}

// GetIndex returns the observations of a series in date order, optionally
// limited to an inclusive window.
func (s *indexService) GetIndex(code string, from, to *time.Time) ([]models.EconomicIndex, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	known := false
	for _, c := range models.IndexCodes {
		if c == code {
			known = true
			break
		}
	}
	if !known {
		return nil, apperrors.ErrUnknownIndex
	}

	query := s.db.Where("code = ?", code)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var points []models.EconomicIndex
	if err := query.Order("date ASC").Find(&points).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return points, nil
}
