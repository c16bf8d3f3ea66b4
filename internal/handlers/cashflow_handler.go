package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// CashflowHandler serves the personalized cash-flow plan.
type CashflowHandler struct {
	cashflowService services.CashflowServicer
}

// NewCashflowHandler creates a new CashflowHandler.
func NewCashflowHandler(cashflowService services.CashflowServicer) *CashflowHandler {
	return &CashflowHandler{cashflowService: cashflowService}
}

// CreateGroupRequest creates a group owned by the target user.
type CreateGroupRequest struct {
	Name     string              `json:"name" binding:"required,max=120"`
	Type     models.CashflowType `json:"type" binding:"required,cashflow_type"`
	ParentID *string             `json:"parent_id" binding:"omitempty,uuid"`
	Order    int                 `json:"order"`
}

// UpdateGroupRequest renames or reorders a group. Template groups are forked first.
type UpdateGroupRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Order *int    `json:"order"`
}

// CreateItemRequest creates an item owned by the target user.
type CreateItemRequest struct {
	GroupID     string `json:"group_id" binding:"required,uuid"`
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=500"`
	Order       int    `json:"order"`
}

// UpdateItemRequest edits an item. Template items are forked first.
type UpdateItemRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Order       *int    `json:"order"`
}

// UpsertValueRequest records the planned or paid amount of an item for a month.
// Months are zero-based.
type UpsertValueRequest struct {
	ItemID  string             `json:"item_id" binding:"required,uuid"`
	Year    int                `json:"year" binding:"required,min=1900,max=2200"`
	Month   *int               `json:"month" binding:"required,min=0,max=11"`
	Value   decimal.Decimal    `json:"value"`
	Status  models.ValueStatus `json:"status" binding:"omitempty,value_status"`
	Comment string             `json:"comment" binding:"max=500"`
}

// GetCashflow returns the merged cash-flow tree for a year
// @Summary     Get cash-flow plan
// @Description Template groups and items overlaid with the user's personalizations, with monthly values and totals.
// @Tags        cashflow
// @Produce     json
// @Security    CookieAuth
// @Param       year query int false "Year (default current)"
// @Success     200 {object} services.CashflowView
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /cashflow [get]
func (h *CashflowHandler) GetCashflow(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, err := queryInt(c, "year", time.Now().Year())
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.cashflowService.GetCashflow(acting, year)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateGroup creates a user-owned group
// @Summary     Create a cash-flow group
// @Tags        cashflow
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body CreateGroupRequest true "Group"
// @Success     201 {object} models.CashflowGroup
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Parent group not found"
// @Router      /cashflow/groups [post]
func (h *CashflowHandler) CreateGroup(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	group, err := h.cashflowService.CreateGroup(acting, services.CreateGroupInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		Order:    req.Order,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// UpdateGroup edits a group, forking a template on first write
// @Summary     Update a cash-flow group
// @Tags        cashflow
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       id      path string             true "Group ID (template or personalized)"
// @Param       request body UpdateGroupRequest true "Changes"
// @Success     200 {object} models.CashflowGroup
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /cashflow/groups/{id} [put]
func (h *CashflowHandler) UpdateGroup(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	group, err := h.cashflowService.UpdateGroup(acting, groupID, services.UpdateGroupInput{Name: req.Name, Order: req.Order})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// PersonalizeGroup forks a template group for the target user
// @Summary     Personalize a template group
// @Description Idempotent. Returns the existing fork when there is one.
// @Tags        cashflow
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Template group ID"
// @Success     200 {object} models.CashflowGroup
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /cashflow/groups/{id}/personalize [post]
func (h *CashflowHandler) PersonalizeGroup(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	group, err := h.cashflowService.PersonalizeGroup(groupID, acting.TargetUserID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// CreateItem creates a user-owned item
// @Summary     Create a cash-flow item
// @Tags        cashflow
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body CreateItemRequest true "Item"
// @Success     201 {object} models.CashflowItem
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /cashflow/items [post]
func (h *CashflowHandler) CreateItem(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.cashflowService.CreateItem(acting, services.CreateItemInput{
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItem edits an item, forking a template on first write
// @Summary     Update a cash-flow item
// @Tags        cashflow
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       id      path string            true "Item ID (template or personalized)"
// @Param       request body UpdateItemRequest true "Changes"
// @Success     200 {object} models.CashflowItem
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /cashflow/items/{id} [put]
func (h *CashflowHandler) UpdateItem(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.cashflowService.UpdateItem(acting, itemID, services.UpdateItemInput{
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// PersonalizeItem forks a template item for the target user
// @Summary     Personalize a template item
// @Tags        cashflow
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Template item ID"
// @Success     200 {object} models.CashflowItem
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /cashflow/items/{id}/personalize [post]
func (h *CashflowHandler) PersonalizeItem(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.cashflowService.PersonalizeItem(itemID, acting.TargetUserID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem removes an owned item or hides a template item
// @Summary     Delete a cash-flow item
// @Tags        cashflow
// @Security    CookieAuth
// @Param       id path string true "Item ID"
// @Success     204 "Deleted or hidden"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /cashflow/items/{id} [delete]
func (h *CashflowHandler) DeleteItem(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cashflowService.DeleteItem(acting, itemID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpsertValue records a monthly value
// @Summary     Set a monthly value
// @Tags        cashflow
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body UpsertValueRequest true "Value"
// @Success     200 {object} models.CashflowValue
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /cashflow/values [put]
func (h *CashflowHandler) UpsertValue(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpsertValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	value, err := h.cashflowService.UpsertValue(acting, services.UpsertValueInput{
		ItemID:  req.ItemID,
		Year:    req.Year,
		Month:   *req.Month,
		Value:   req.Value,
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

