// Package errors provides the application error type used by services and handlers.
// All service-layer errors should be AppErrors so responses stay consistent and
// never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource was modified concurrently, retry", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUpstream       = &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: "External data provider unavailable", StatusCode: http.StatusBadGateway}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrInvalidRole    = &AppError{Code: "INVALID_ROLE", Message: "Unsupported role", StatusCode: http.StatusBadRequest}
)

// Consultant errors. A client that is not linked to the consultant is reported
// as not found so its existence is never confirmed.
var (
	ErrNotConsultant       = &AppError{Code: "NOT_CONSULTANT", Message: "Only consultants can perform this action", StatusCode: http.StatusForbidden}
	ErrClientNotFound      = &AppError{Code: "CLIENT_NOT_FOUND", Message: "Client not found", StatusCode: http.StatusNotFound}
	ErrInviteNotFound      = &AppError{Code: "INVITE_NOT_FOUND", Message: "Invite not found", StatusCode: http.StatusNotFound}
	ErrClientAlreadyLinked = &AppError{Code: "CLIENT_ALREADY_LINKED", Message: "Client is already linked to this consultant", StatusCode: http.StatusConflict}
	ErrSelfLink            = &AppError{Code: "SELF_LINK", Message: "A consultant cannot be their own client", StatusCode: http.StatusBadRequest}
)

// Cash-flow errors.
var (
	ErrGroupNotFound = &AppError{Code: "GROUP_NOT_FOUND", Message: "Cash-flow group not found", StatusCode: http.StatusNotFound}
	ErrItemNotFound  = &AppError{Code: "ITEM_NOT_FOUND", Message: "Cash-flow item not found", StatusCode: http.StatusNotFound}
)

// Ledger transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidGroupBy      = &AppError{Code: "INVALID_GROUP_BY", Message: "Unsupported groupBy dimension", StatusCode: http.StatusBadRequest}
)

// Portfolio errors.
var (
	ErrPositionNotFound    = &AppError{Code: "POSITION_NOT_FOUND", Message: "Position not found", StatusCode: http.StatusNotFound}
	ErrStockNotFound       = &AppError{Code: "STOCK_NOT_FOUND", Message: "Stock not found", StatusCode: http.StatusNotFound}
	ErrAssetNotFound       = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrInsufficientShares  = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Insufficient quantity for this withdrawal", StatusCode: http.StatusBadRequest}
	ErrInvalidTargets      = &AppError{Code: "INVALID_TARGETS", Message: "Allocation targets must not exceed 100%", StatusCode: http.StatusBadRequest}
	ErrInstitutionNotFound = &AppError{Code: "INSTITUTION_NOT_FOUND", Message: "Institution not found", StatusCode: http.StatusNotFound}
)

// Misc reference data errors.
var (
	ErrWatchlistDuplicate    = &AppError{Code: "WATCHLIST_DUPLICATE", Message: "Ticker already in watchlist", StatusCode: http.StatusConflict}
	ErrWatchlistNotFound     = &AppError{Code: "WATCHLIST_NOT_FOUND", Message: "Watchlist entry not found", StatusCode: http.StatusNotFound}
	ErrNotificationNotFound  = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
	ErrUnknownIndex          = &AppError{Code: "UNKNOWN_INDEX", Message: "Unknown economic index", StatusCode: http.StatusNotFound}
)
