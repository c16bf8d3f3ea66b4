package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/middleware"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"max=120"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse is the caller's identity plus whose data requests operate on.
type MeResponse struct {
	User   UserResponse           `json:"user"`
	Acting services.ActingContext `json:"acting"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Name: user.DisplayName(""), Role: user.Role}
}

func setSessionCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", config.Get().CookieSecure, true)
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email and password. New users get the user role.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} UserResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user. The session token is set as an HTTP-only cookie and also returned.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	cfg := config.Get()
	setSessionCookie(c, cfg.SessionCookie, token, int(cfg.JWTExpirationDur.Seconds()))
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

// Logout clears the session and acting cookies
// @Summary     Logout
// @Tags        auth
// @Success     204 "Cookies cleared"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	cfg := config.Get()
	setSessionCookie(c, cfg.SessionCookie, "", -1)
	setSessionCookie(c, cfg.ActingCookie, "", -1)
	c.Status(http.StatusNoContent)
}

// Me returns the caller and the current acting context
// @Summary     Current identity
// @Tags        auth
// @Produce     json
// @Security    CookieAuth
// @Success     200 {object} MeResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(identity.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: toUserResponse(user), Acting: acting})
}

// UpdateRoleRequest is the payload of the admin role change.
type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required,role"`
}

// UpdateRole changes a user's role
// @Summary     Change a user's role
// @Description Admin only. Promoting to consultant creates the consultant profile.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateRoleRequest true "New role"
// @Success     200 {object} UserResponse
// @Failure     400 {object} ErrorResponse "Invalid role"
// @Failure     403 {object} ErrorResponse "Not an admin"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/role [put]
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdateRole(userID, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(acting, services.AuditRoleChange, "user", user.ID, c.ClientIP(),
		map[string]any{"role": req.Role})

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
