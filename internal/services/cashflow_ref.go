package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// GroupRef names a cash-flow row from one user's point of view: either the
// shared template itself or that user's personalized copy of it.
type GroupRef interface {
	templateID() string
	owner() (string, bool)
}

// SharedRef refers to the template row.
type SharedRef struct {
	TemplateID string
}

func (r SharedRef) templateID() string    { return r.TemplateID }
func (r SharedRef) owner() (string, bool) { return "", false }

// OwnedRef refers to OwnerID's personalized copy of TemplateID.
type OwnedRef struct {
	TemplateID string
	OwnerID    string
}

func (r OwnedRef) templateID() string    { return r.TemplateID }
func (r OwnedRef) owner() (string, bool) { return r.OwnerID, true }

// forkable is satisfied by the row types that follow the template/fork rules.
type forkable interface {
	models.CashflowGroup | models.CashflowItem
}

// lookupRef resolves ref to a row, preferring the owner's copy over the
// template. It returns gorm.ErrRecordNotFound when neither exists.
func lookupRef[T forkable](tx *gorm.DB, ref GroupRef) (*T, error) {
	if ownerID, ok := ref.owner(); ok {
		var fork T
		err := tx.Where("template_id = ? AND user_id = ?", ref.templateID(), ownerID).First(&fork).Error
		if err == nil {
			return &fork, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var template T
	if err := tx.Where("id = ? AND user_id IS NULL", ref.templateID()).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// resolveForUser finds the row userID sees for id: a row the user owns with
// that id, else the user's fork of the template id, else the template.
func resolveForUser[T forkable](tx *gorm.DB, id, userID string) (*T, error) {
	var owned T
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&owned).Error
	if err == nil {
		return &owned, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return lookupRef[T](tx, OwnedRef{TemplateID: id, OwnerID: userID})
}
