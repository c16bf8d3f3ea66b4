package services

import (
	"context"
	"time"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateRole(userID string, role models.Role) (*models.User, error)
}

// ConsultantServicer resolves acting contexts and manages consultant-client links.
type ConsultantServicer interface {
	ResolveActingContext(identity Identity, actingClientID string) (ActingContext, error)
	AssertClientOwnership(consultantUserID, clientID string) (ActingContext, error)
	InviteClient(consultantUserID, email string) (*models.ConsultantClient, error)
	ListClients(consultantUserID string) ([]models.ConsultantClient, error)
	RemoveClient(consultantUserID, linkID string) error
	ListInvites(clientID string) ([]models.ConsultantClient, error)
	AcceptInvite(clientID, linkID string) (*models.ConsultantClient, error)
}

// CashflowServicer defines the contract for the personalized cash-flow plan.
type CashflowServicer interface {
	GetGroupForUser(groupID, userID string) (*models.CashflowGroup, error)
	PersonalizeGroup(templateGroupID, userID string) (*models.CashflowGroup, error)
	GetItemForUser(itemID, userID string) (*models.CashflowItem, error)
	PersonalizeItem(templateItemID, userID string) (*models.CashflowItem, error)
	GetCashflow(acting ActingContext, year int) (*CashflowView, error)
	CreateGroup(acting ActingContext, input CreateGroupInput) (*models.CashflowGroup, error)
	UpdateGroup(acting ActingContext, groupID string, input UpdateGroupInput) (*models.CashflowGroup, error)
	CreateItem(acting ActingContext, input CreateItemInput) (*models.CashflowItem, error)
	UpdateItem(acting ActingContext, itemID string, input UpdateItemInput) (*models.CashflowItem, error)
	DeleteItem(acting ActingContext, itemID string) error
	UpsertValue(acting ActingContext, input UpsertValueInput) (*models.CashflowValue, error)
}

// PortfolioServicer defines the contract for positions and their operations.
type PortfolioServicer interface {
	GetPortfolio(ctx context.Context, acting ActingContext) (*PortfolioSummary, error)
	Aporte(ctx context.Context, acting ActingContext, input OperationInput) (*OperationResult, error)
	Resgate(ctx context.Context, acting ActingContext, input OperationInput) (*OperationResult, error)
	ListTransactions(acting ActingContext, page pagination.PageRequest) (*pagination.PageResponse[models.StockTransaction], error)
	CashSummary(acting ActingContext, from, to *time.Time) (*CashSummary, error)
	GetAllocationTargets(acting ActingContext) ([]models.AllocationTarget, error)
	SetAllocationTargets(acting ActingContext, inputs []AllocationTargetInput) ([]models.AllocationTarget, error)
}

// TransactionServicer defines the contract for the cash-flow ledger.
type TransactionServicer interface {
	CreateTransaction(acting ActingContext, input CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(acting ActingContext, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(acting ActingContext, transactionID string) (*models.Transaction, error)
	UpdateTransaction(acting ActingContext, transactionID string, input UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(acting ActingContext, transactionID string) error
}

// ReportServicer builds summaries over the ledger.
type ReportServicer interface {
	BuildSummary(acting ActingContext, req SummaryRequest) (*Summary, error)
}

// InstitutionServicer maintains the institution catalogue.
type InstitutionServicer interface {
	UpsertInstitution(name string, status models.InstitutionStatus) (*models.Institution, error)
	ListInstitutions(status *models.InstitutionStatus) ([]models.Institution, error)
}

// CatalogServicer serves stocks and assets.
type CatalogServicer interface {
	SearchStocks(q string, limit int) ([]models.Stock, error)
	GetStockByTicker(ticker string) (*models.Stock, error)
	ListAssets(acting ActingContext, class *models.AssetClass) ([]models.Asset, error)
	CreateAsset(acting ActingContext, input CreateAssetInput) (*models.Asset, error)
	GetAsset(acting ActingContext, assetID string) (*models.Asset, error)
}

// WatchlistServicer manages followed stocks.
type WatchlistServicer interface {
	ListWatchlist(acting ActingContext) ([]models.Watchlist, error)
	AddToWatchlist(acting ActingContext, input AddWatchlistInput) (*models.Watchlist, error)
	RemoveFromWatchlist(acting ActingContext, entryID string) error
}

// NotificationServicer reads and acknowledges notifications.
type NotificationServicer interface {
	ListNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
}

// IndexServicer reads economic index series.
type IndexServicer interface {
	GetIndex(code string, from, to *time.Time) ([]models.EconomicIndex, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(acting ActingContext, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
