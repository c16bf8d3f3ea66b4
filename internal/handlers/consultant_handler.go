package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/middleware"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// ConsultantHandler handles acting-as-client and consultant-client links.
type ConsultantHandler struct {
	consultantService services.ConsultantServicer
	auditService      services.AuditServicer
}

// NewConsultantHandler creates a new ConsultantHandler.
func NewConsultantHandler(consultantService services.ConsultantServicer, auditService services.AuditServicer) *ConsultantHandler {
	return &ConsultantHandler{consultantService: consultantService, auditService: auditService}
}

// StartActingRequest selects the client to act for.
type StartActingRequest struct {
	ClientID string `json:"client_id" binding:"required,uuid"`
}

// InviteClientRequest invites a registered user by email.
type InviteClientRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// StartActing sets the acting cookie for a linked client
// @Summary     Act as a client
// @Description Consultant only. The client must have an active link to the caller; otherwise 404 and no cookie is set.
// @Tags        consultant
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body StartActingRequest true "Client to act for"
// @Success     200 {object} services.ActingContext
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a consultant"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /consultant/acting [post]
func (h *ConsultantHandler) StartActing(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req StartActingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	acting, err := h.consultantService.AssertClientOwnership(identity.ID, req.ClientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cfg := config.Get()
	token, err := middleware.GenerateActingToken(identity.ID, acting.TargetUserID, cfg.ActingMaxAge)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	setSessionCookie(c, cfg.ActingCookie, token, int(cfg.ActingMaxAge.Seconds()))

	h.auditService.Log(services.SelfContext(identity.ID), services.AuditActingStart, "user", acting.TargetUserID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"acting": acting})
}

// StopActing clears the acting cookie
// @Summary     Stop acting as a client
// @Tags        consultant
// @Security    CookieAuth
// @Success     204 "Acting cleared"
// @Router      /consultant/acting [delete]
func (h *ConsultantHandler) StopActing(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setSessionCookie(c, config.Get().ActingCookie, "", -1)
	if acting.IsActing() {
		h.auditService.Log(acting, services.AuditActingStop, "user", acting.TargetUserID, c.ClientIP(), nil)
	}
	c.Status(http.StatusNoContent)
}

// GetActing returns the resolved acting context
// @Summary     Current acting context
// @Tags        consultant
// @Produce     json
// @Security    CookieAuth
// @Success     200 {object} services.ActingContext
// @Router      /consultant/acting [get]
func (h *ConsultantHandler) GetActing(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acting": acting})
}

// InviteClient creates a pending link
// @Summary     Invite a client
// @Tags        consultant
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body InviteClientRequest true "Client email"
// @Success     201 {object} models.ConsultantClient
// @Failure     404 {object} ErrorResponse "No user with that email"
// @Failure     409 {object} ErrorResponse "Already linked"
// @Router      /consultant/clients [post]
func (h *ConsultantHandler) InviteClient(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InviteClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	link, err := h.consultantService.InviteClient(identity.ID, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"link": link})
}

// ListClients lists the consultant's links
// @Summary     List clients
// @Tags        consultant
// @Produce     json
// @Security    CookieAuth
// @Success     200 {array} models.ConsultantClient
// @Router      /consultant/clients [get]
func (h *ConsultantHandler) ListClients(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	links, err := h.consultantService.ListClients(identity.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": links})
}

// RemoveClient deactivates a link
// @Summary     Remove a client
// @Tags        consultant
// @Security    CookieAuth
// @Param       id path string true "Link ID"
// @Success     204 "Link deactivated"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /consultant/clients/{id} [delete]
func (h *ConsultantHandler) RemoveClient(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	linkID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.consultantService.RemoveClient(identity.ID, linkID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInvites lists pending invites addressed to the caller
// @Summary     List my invites
// @Tags        client
// @Produce     json
// @Security    CookieAuth
// @Success     200 {array} models.ConsultantClient
// @Router      /client/invites [get]
func (h *ConsultantHandler) ListInvites(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invites, err := h.consultantService.ListInvites(identity.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// AcceptInvite activates a pending link
// @Summary     Accept an invite
// @Tags        client
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Link ID"
// @Success     200 {object} models.ConsultantClient
// @Failure     404 {object} ErrorResponse "Invite not found"
// @Router      /client/invites/{id}/accept [post]
func (h *ConsultantHandler) AcceptInvite(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	linkID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	link, err := h.consultantService.AcceptInvite(identity.ID, linkID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}
