// Package router assembles the HTTP API: middleware chain, handlers and routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	_ "github.com/HuskeLuv/SFC-sub003/internal/docs" // swagger docs
	"github.com/HuskeLuv/SFC-sub003/internal/handlers"
	"github.com/HuskeLuv/SFC-sub003/internal/middleware"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// Services groups every service the API depends on.
type Services struct {
	User         services.UserServicer
	Consultant   services.ConsultantServicer
	Cashflow     services.CashflowServicer
	Portfolio    services.PortfolioServicer
	Transaction  services.TransactionServicer
	Report       services.ReportServicer
	Institution  services.InstitutionServicer
	Catalog      services.CatalogServicer
	Watchlist    services.WatchlistServicer
	Notification services.NotificationServicer
	Index        services.IndexServicer
	Audit        services.AuditServicer
}

// NewServices builds the GORM-backed services. Portfolio valuations use source.
func NewServices(db *gorm.DB, source quotes.Source) *Services {
	return &Services{
		User:         services.NewUserService(db),
		Consultant:   services.NewConsultantService(db),
		Cashflow:     services.NewCashflowService(db),
		Portfolio:    services.NewPortfolioService(db, source),
		Transaction:  services.NewTransactionService(db),
		Report:       services.NewReportService(db),
		Institution:  services.NewInstitutionService(db),
		Catalog:      services.NewCatalogService(db),
		Watchlist:    services.NewWatchlistService(db),
		Notification: services.NewNotificationService(db),
		Index:        services.NewIndexService(db),
		Audit:        services.NewAuditService(db),
	}
}

// New returns the configured gin engine. The pipeline endpoints are mounted
// only when syncer is non-nil.
func New(cfg *config.Config, svc *Services, syncer handlers.Syncer) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	consultantHandler := handlers.NewConsultantHandler(svc.Consultant, svc.Audit)
	cashflowHandler := handlers.NewCashflowHandler(svc.Cashflow)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Report)
	catalogHandler := handlers.NewCatalogHandler(svc.Institution, svc.Catalog)
	watchlistHandler := handlers.NewWatchlistHandler(svc.Watchlist)
	notificationHandler := handlers.NewNotificationHandler(svc.Notification)
	indexHandler := handlers.NewIndexHandler(svc.Index)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// Protected routes; every handler below sees an identity and an acting context.
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(middleware.ActingMiddleware(svc.Consultant))

	protected.GET("/auth/me", authHandler.Me)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/users/:id/role", authHandler.UpdateRole)

	consultant := protected.Group("/consultant")
	consultant.Use(middleware.RequireRole(models.RoleConsultant))
	consultant.POST("/acting", consultantHandler.StartActing)
	consultant.GET("/acting", consultantHandler.GetActing)
	consultant.DELETE("/acting", consultantHandler.StopActing)
	consultant.POST("/clients", consultantHandler.InviteClient)
	consultant.GET("/clients", consultantHandler.ListClients)
	consultant.DELETE("/clients/:id", consultantHandler.RemoveClient)

	client := protected.Group("/client")
	client.GET("/invites", consultantHandler.ListInvites)
	client.POST("/invites/:id/accept", consultantHandler.AcceptInvite)

	cashflow := protected.Group("/cashflow")
	cashflow.GET("", cashflowHandler.GetCashflow)
	cashflow.POST("/groups", cashflowHandler.CreateGroup)
	cashflow.PUT("/groups/:id", cashflowHandler.UpdateGroup)
	cashflow.POST("/groups/:id/personalize", cashflowHandler.PersonalizeGroup)
	cashflow.POST("/items", cashflowHandler.CreateItem)
	cashflow.PUT("/items/:id", cashflowHandler.UpdateItem)
	cashflow.DELETE("/items/:id", cashflowHandler.DeleteItem)
	cashflow.POST("/items/:id/personalize", cashflowHandler.PersonalizeItem)
	cashflow.PUT("/values", cashflowHandler.UpsertValue)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("", portfolioHandler.GetPortfolio)
	portfolio.POST("/aporte", portfolioHandler.Aporte)
	portfolio.POST("/resgate", portfolioHandler.Resgate)
	portfolio.GET("/transactions", portfolioHandler.ListTransactions)
	portfolio.GET("/cash-summary", portfolioHandler.CashSummary)
	portfolio.GET("/targets", portfolioHandler.GetTargets)
	portfolio.PUT("/targets", portfolioHandler.SetTargets)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.GET("/institutions", catalogHandler.ListInstitutions)
	protected.POST("/institutions", middleware.RequireRole(models.RoleAdmin, models.RoleConsultant), catalogHandler.UpsertInstitution)
	protected.GET("/stocks", catalogHandler.SearchStocks)
	protected.GET("/stocks/:ticker", catalogHandler.GetStock)
	protected.GET("/assets", catalogHandler.ListAssets)
	protected.POST("/assets", catalogHandler.CreateAsset)
	protected.GET("/assets/:id", catalogHandler.GetAsset)

	protected.GET("/watchlist", watchlistHandler.List)
	protected.POST("/watchlist", watchlistHandler.Add)
	protected.DELETE("/watchlist/:id", watchlistHandler.Remove)

	protected.GET("/notifications", notificationHandler.List)
	protected.POST("/notifications/:id/read", notificationHandler.MarkRead)

	protected.GET("/indexes/:code", indexHandler.GetIndex)

	if syncer != nil {
		pipelineHandler := handlers.NewPipelineHandler(syncer)
		pipeline := v1.Group("/pipeline")
		pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
		pipeline.POST("/quotes/sync", pipelineHandler.SyncQuotes)
		pipeline.POST("/indexes/sync", pipelineHandler.SyncIndexes)
	}

	return router
}
