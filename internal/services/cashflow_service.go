package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

const monthsPerYear = 12

// UpdateGroupInput holds the editable fields of a group. Nil fields are left as is.
type UpdateGroupInput struct {
	Name  *string
	Order *int
}

// CreateGroupInput describes a group created by the user.
type CreateGroupInput struct {
	Name     string
	Type     models.CashflowType
	ParentID *string
	Order    int
}

// CreateItemInput describes an item created by the user.
type CreateItemInput struct {
	GroupID     string
	Name        string
	Description string
	Order       int
}

// UpdateItemInput holds the editable fields of an item. Nil fields are left as is.
type UpdateItemInput struct {
	Name        *string
	Description *string
	Order       *int
}

// UpsertValueInput is one month of one item.
type UpsertValueInput struct {
	ItemID  string
	Year    int
	Month   int
	Value   decimal.Decimal
	Status  models.ValueStatus
	Comment string
}

// MonthValue is the value of an item in one month.
type MonthValue struct {
	Month   int                `json:"month"`
	Value   decimal.Decimal    `json:"value"`
	Status  models.ValueStatus `json:"status,omitempty"`
	Comment string             `json:"comment,omitempty"`
}

// CashflowItemView is an item as seen by one user.
type CashflowItemView struct {
	ID           string          `json:"id"`
	OriginID     string          `json:"origin_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Order        int             `json:"order"`
	Personalized bool            `json:"personalized"`
	Months       []MonthValue    `json:"months"`
	Total        decimal.Decimal `json:"total"`
}

// CashflowGroupView is a group as seen by one user, with its subtree.
type CashflowGroupView struct {
	ID           string              `json:"id"`
	OriginID     string              `json:"origin_id"`
	Name         string              `json:"name"`
	Type         models.CashflowType `json:"type"`
	Order        int                 `json:"order"`
	Personalized bool                `json:"personalized"`
	Items        []CashflowItemView  `json:"items"`
	Children     []CashflowGroupView `json:"children"`
	MonthTotals  []decimal.Decimal   `json:"month_totals"`
	Total        decimal.Decimal     `json:"total"`
}

// CashflowView is the merged cash-flow tree of one user for one year.
type CashflowView struct {
	Year   int                 `json:"year"`
	Groups []CashflowGroupView `json:"groups"`
}

// cashflowService implements the template/personalization engine.
type cashflowService struct {
	db *gorm.DB
}

// NewCashflowService creates a new CashflowServicer.
func NewCashflowService(db *gorm.DB) CashflowServicer {
	return &cashflowService{db: db}
}

// GetGroupForUser returns the group userID sees for groupID.
func (s *cashflowService) GetGroupForUser(groupID, userID string) (*models.CashflowGroup, error) {
	group, err := resolveForUser[models.CashflowGroup](s.db, groupID, userID)
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrGroupNotFound)
	}
	return group, nil
}

// PersonalizeGroup returns userID's copy of the template, creating it (and
// its ancestors' copies) on first use. The template row is never written.
func (s *cashflowService) PersonalizeGroup(templateGroupID, userID string) (*models.CashflowGroup, error) {
	var group *models.CashflowGroup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		group, err = personalizeGroup(tx, templateGroupID, userID)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrGroupNotFound)
	}
	return group, nil
}

// GetItemForUser returns the item userID sees for itemID.
func (s *cashflowService) GetItemForUser(itemID, userID string) (*models.CashflowItem, error) {
	item, err := resolveForUser[models.CashflowItem](s.db, itemID, userID)
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrItemNotFound)
	}
	return item, nil
}

// PersonalizeItem returns userID's copy of the template item, creating it on
// first use under the user's copy of the item's group. Values the user had
// recorded against the template item move to the copy.
func (s *cashflowService) PersonalizeItem(templateItemID, userID string) (*models.CashflowItem, error) {
	var item *models.CashflowItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = personalizeItem(tx, templateItemID, userID)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrItemNotFound)
	}
	return item, nil
}

// GetCashflow returns the template tree overlaid with the target user's rows.
func (s *cashflowService) GetCashflow(acting ActingContext, year int) (*CashflowView, error) {
	userID := acting.TargetUserID

	var groups []models.CashflowGroup
	if err := s.db.Where("user_id IS NULL OR user_id = ?", userID).Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var items []models.CashflowItem
	if err := s.db.Where("user_id IS NULL OR user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Every group id, template or owned, maps to the origin it stands for.
	groupOrigin := make(map[string]string, len(groups))
	effectiveGroups := make(map[string]models.CashflowGroup, len(groups))
	for _, g := range groups {
		groupOrigin[g.ID] = g.OriginID()
		if current, ok := effectiveGroups[g.OriginID()]; ok && !current.IsTemplate() {
			continue
		}
		effectiveGroups[g.OriginID()] = g
	}

	effectiveItems := make(map[string]models.CashflowItem, len(items))
	for _, it := range items {
		if current, ok := effectiveItems[it.OriginID()]; ok && !current.IsTemplate() {
			continue
		}
		effectiveItems[it.OriginID()] = it
	}

	visibleItemIDs := make([]string, 0, len(effectiveItems))
	for origin, it := range effectiveItems {
		if it.Hidden {
			delete(effectiveItems, origin)
			continue
		}
		visibleItemIDs = append(visibleItemIDs, it.ID)
	}

	valuesByItem := make(map[string][]models.CashflowValue)
	if len(visibleItemIDs) > 0 {
		var values []models.CashflowValue
		if err := s.db.Where("user_id = ? AND year = ? AND item_id IN ?", userID, year, visibleItemIDs).
			Find(&values).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, v := range values {
			valuesByItem[v.ItemID] = append(valuesByItem[v.ItemID], v)
		}
	}

	itemsByGroup := make(map[string][]CashflowItemView)
	for origin, it := range effectiveItems {
		groupKey, ok := groupOrigin[it.GroupID]
		if !ok {
			continue
		}
		itemsByGroup[groupKey] = append(itemsByGroup[groupKey], buildItemView(origin, it, valuesByItem[it.ID]))
	}

	childrenOf := make(map[string][]string)
	var roots []string
	for origin, g := range effectiveGroups {
		parentKey := ""
		if g.ParentID != nil {
			parentKey = groupOrigin[*g.ParentID]
		}
		if parentKey == "" {
			roots = append(roots, origin)
			continue
		}
		childrenOf[parentKey] = append(childrenOf[parentKey], origin)
	}

	var build func(origin string) CashflowGroupView
	build = func(origin string) CashflowGroupView {
		g := effectiveGroups[origin]
		view := CashflowGroupView{
			ID:           g.ID,
			OriginID:     origin,
			Name:         g.Name,
			Type:         g.Type,
			Order:        g.Order,
			Personalized: !g.IsTemplate(),
			Items:        itemsByGroup[origin],
			MonthTotals:  zeroMonths(),
			Total:        decimal.Zero,
		}
		if view.Items == nil {
			view.Items = []CashflowItemView{}
		}
		sort.Slice(view.Items, func(i, j int) bool {
			return lessByOrder(view.Items[i].Order, view.Items[i].Name, view.Items[j].Order, view.Items[j].Name)
		})
		for _, it := range view.Items {
			for _, m := range it.Months {
				view.MonthTotals[m.Month] = view.MonthTotals[m.Month].Add(m.Value)
			}
			view.Total = view.Total.Add(it.Total)
		}

		view.Children = make([]CashflowGroupView, 0, len(childrenOf[origin]))
		for _, child := range childrenOf[origin] {
			childView := build(child)
			for m := range childView.MonthTotals {
				view.MonthTotals[m] = view.MonthTotals[m].Add(childView.MonthTotals[m])
			}
			view.Total = view.Total.Add(childView.Total)
			view.Children = append(view.Children, childView)
		}
		sort.Slice(view.Children, func(i, j int) bool {
			return lessByOrder(view.Children[i].Order, view.Children[i].Name, view.Children[j].Order, view.Children[j].Name)
		})
		return view
	}

	result := &CashflowView{Year: year, Groups: make([]CashflowGroupView, 0, len(roots))}
	for _, origin := range roots {
		result.Groups = append(result.Groups, build(origin))
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return lessByOrder(result.Groups[i].Order, result.Groups[i].Name, result.Groups[j].Order, result.Groups[j].Name)
	})
	return result, nil
}

// CreateGroup adds a group owned by the target user.
func (s *cashflowService) CreateGroup(acting ActingContext, input CreateGroupInput) (*models.CashflowGroup, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	userID := acting.TargetUserID
	group := &models.CashflowGroup{
		UserID: &userID,
		Name:   name,
		Type:   input.Type,
		Order:  input.Order,
	}
	if input.ParentID != nil {
		parent, err := s.GetGroupForUser(*input.ParentID, userID)
		if err != nil {
			return nil, err
		}
		group.ParentID = &parent.ID
		if group.Type == "" {
			group.Type = parent.Type
		}
	}
	if group.Type == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type is required")
	}

	if err := s.db.Create(group).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return group, nil
}

// UpdateGroup edits the target user's view of a group, forking the template on first edit.
func (s *cashflowService) UpdateGroup(acting ActingContext, groupID string, input UpdateGroupInput) (*models.CashflowGroup, error) {
	group, err := s.GetGroupForUser(groupID, acting.TargetUserID)
	if err != nil {
		return nil, err
	}
	if group.IsTemplate() {
		if group, err = s.PersonalizeGroup(group.ID, acting.TargetUserID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must not be empty")
		}
		updates["name"] = name
		group.Name = name
	}
	if input.Order != nil {
		updates["order_index"] = *input.Order
		group.Order = *input.Order
	}
	if len(updates) > 0 {
		if err := s.db.Model(group).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return group, nil
}

// CreateItem adds an item owned by the target user to a group they can see.
func (s *cashflowService) CreateItem(acting ActingContext, input CreateItemInput) (*models.CashflowItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	group, err := s.GetGroupForUser(input.GroupID, acting.TargetUserID)
	if err != nil {
		return nil, err
	}

	userID := acting.TargetUserID
	item := &models.CashflowItem{
		GroupID:     group.ID,
		UserID:      &userID,
		Name:        name,
		Description: input.Description,
		Order:       input.Order,
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// UpdateItem edits the target user's view of an item, forking the template on first edit.
func (s *cashflowService) UpdateItem(acting ActingContext, itemID string, input UpdateItemInput) (*models.CashflowItem, error) {
	item, err := s.GetItemForUser(itemID, acting.TargetUserID)
	if err != nil {
		return nil, err
	}
	if item.IsTemplate() {
		if item, err = s.PersonalizeItem(item.ID, acting.TargetUserID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must not be empty")
		}
		updates["name"] = name
		item.Name = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		item.Description = *input.Description
	}
	if input.Order != nil {
		updates["order_index"] = *input.Order
		item.Order = *input.Order
	}
	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return item, nil
}

// DeleteItem removes an item from the target user's view. Items the user
// created are deleted; template items are hidden through a personalized copy.
func (s *cashflowService) DeleteItem(acting ActingContext, itemID string) error {
	userID := acting.TargetUserID
	item, err := s.GetItemForUser(itemID, userID)
	if err != nil {
		return err
	}

	if !item.IsTemplate() && item.TemplateID == nil {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("item_id = ? AND user_id = ?", item.ID, userID).Delete(&models.CashflowValue{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Delete(item).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	}

	if item.IsTemplate() {
		if item, err = s.PersonalizeItem(item.ID, userID); err != nil {
			return err
		}
	}
	if err := s.db.Model(item).Update("hidden", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpsertValue records the value of an item for one month of one year.
func (s *cashflowService) UpsertValue(acting ActingContext, input UpsertValueInput) (*models.CashflowValue, error) {
	if input.Month < 0 || input.Month >= monthsPerYear {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 0 and 11")
	}
	if input.Year < 1900 || input.Year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}
	if input.Status == "" {
		input.Status = models.ValueStatusPendente
	}

	item, err := s.GetItemForUser(input.ItemID, acting.TargetUserID)
	if err != nil {
		return nil, err
	}

	value := &models.CashflowValue{
		ItemID:  item.ID,
		UserID:  acting.TargetUserID,
		Year:    input.Year,
		Month:   input.Month,
		Value:   input.Value,
		Status:  input.Status,
		Comment: input.Comment,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "user_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "status", "comment", "updated_at"}),
	}).Create(value).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.CashflowValue
	if err := s.db.Where("item_id = ? AND user_id = ? AND year = ? AND month = ?",
		item.ID, acting.TargetUserID, input.Year, input.Month).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

func personalizeGroup(tx *gorm.DB, groupID, userID string) (*models.CashflowGroup, error) {
	source, err := resolveForUser[models.CashflowGroup](tx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !source.IsTemplate() {
		return source, nil
	}

	var parentID *string
	if source.ParentID != nil {
		parent, err := personalizeGroup(tx, *source.ParentID, userID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}

	templateID := source.ID
	fork := &models.CashflowGroup{
		UserID:     &userID,
		TemplateID: &templateID,
		Name:       source.Name,
		Type:       source.Type,
		Order:      source.Order,
		ParentID:   parentID,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fork)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Another request created the copy first.
		return lookupRef[models.CashflowGroup](tx, OwnedRef{TemplateID: templateID, OwnerID: userID})
	}
	return fork, nil
}

func personalizeItem(tx *gorm.DB, itemID, userID string) (*models.CashflowItem, error) {
	source, err := resolveForUser[models.CashflowItem](tx, itemID, userID)
	if err != nil {
		return nil, err
	}
	if !source.IsTemplate() {
		return source, nil
	}

	group, err := personalizeGroup(tx, source.GroupID, userID)
	if err != nil {
		return nil, err
	}

	templateID := source.ID
	fork := &models.CashflowItem{
		GroupID:     group.ID,
		UserID:      &userID,
		TemplateID:  &templateID,
		Name:        source.Name,
		Description: source.Description,
		Order:       source.Order,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fork)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return lookupRef[models.CashflowItem](tx, OwnedRef{TemplateID: templateID, OwnerID: userID})
	}

	if err := tx.Model(&models.CashflowValue{}).
		Where("item_id = ? AND user_id = ?", templateID, userID).
		Updates(map[string]interface{}{"item_id": fork.ID, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return fork, nil
}

func buildItemView(origin string, item models.CashflowItem, values []models.CashflowValue) CashflowItemView {
	view := CashflowItemView{
		ID:           item.ID,
		OriginID:     origin,
		Name:         item.Name,
		Description:  item.Description,
		Order:        item.Order,
		Personalized: !item.IsTemplate(),
		Months:       make([]MonthValue, monthsPerYear),
		Total:        decimal.Zero,
	}
	for m := range view.Months {
		view.Months[m] = MonthValue{Month: m, Value: decimal.Zero}
	}
	for _, v := range values {
		if v.Month < 0 || v.Month >= monthsPerYear {
			continue
		}
		view.Months[v.Month] = MonthValue{Month: v.Month, Value: v.Value, Status: v.Status, Comment: v.Comment}
		view.Total = view.Total.Add(v.Value)
	}
	return view
}

func zeroMonths() []decimal.Decimal {
	months := make([]decimal.Decimal, monthsPerYear)
	for i := range months {
		months[i] = decimal.Zero
	}
	return months
}

func lessByOrder(orderA int, nameA string, orderB int, nameB string) bool {
	if orderA != orderB {
		return orderA < orderB
	}
	return nameA < nameB
}

// notFoundOr maps gorm's not-found to sentinel and wraps anything else.
func notFoundOr(err error, sentinel *apperrors.AppError) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
