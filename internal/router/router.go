// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/cache"
	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/handlers"
	"github.com/javajoker/lease-backend/internal/metrics"
	"github.com/javajoker/lease-backend/internal/middleware"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
)

// Dependencies are the collaborators that differ between production and tests.
type Dependencies struct {
	Clock clock.Clock
	Cache cache.KV
	Store services.DocumentStore
}

type Services struct {
	Audit         *services.AuditService
	Notifications *services.NotificationService
	Leases        *services.LeaseService
	Queries       *services.LeaseQueryService
	Documents     *services.DocumentService
	Landlords     *services.LandlordService
	Sites         *services.SiteService
	Issues        *services.IssueService
	Reports       *services.ReportService
	Auth          *services.AuthService
	Users         *services.UserService
}

func NewServices(db *gorm.DB, cfg *config.Config, deps Dependencies) *Services {
	kv := deps.Cache
	if kv == nil {
		kv = cache.Nop{}
	}

	audit := services.NewAuditService(db)
	notifications := services.NewNotificationService(db, cfg)
	return &Services{
		Audit:         audit,
		Notifications: notifications,
		Leases:        services.NewLeaseService(db, deps.Clock, audit, notifications, kv),
		Queries:       services.NewLeaseQueryService(db, deps.Clock, kv, time.Duration(cfg.Redis.StatsTTL)*time.Second),
		Documents:     services.NewDocumentService(db, deps.Store, deps.Clock, audit, cfg.Storage.MaxFileSize),
		Landlords:     services.NewLandlordService(db),
		Sites:         services.NewSiteService(db),
		Issues:        services.NewIssueService(db),
		Reports:       services.NewReportService(db, deps.Clock),
		Auth:          services.NewAuthService(db, cfg),
		Users:         services.NewUserService(db),
	}
}

func Initialize(svc *Services, cfg *config.Config, limits middleware.RateLimits) *gin.Engine {
	leaseHandler := handlers.NewLeaseHandler(svc.Leases, svc.Queries, svc.Documents)
	documentHandler := handlers.NewDocumentHandler(svc.Documents)
	landlordHandler := handlers.NewLandlordHandler(svc.Landlords)
	siteHandler := handlers.NewSiteHandler(svc.Sites)
	issueHandler := handlers.NewIssueHandler(svc.Issues)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	adminHandler := handlers.NewAdminHandler(svc.Users, svc.Audit)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(limits.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Everything below needs a token; the audit trail sees the authenticated actor.
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditTrail(svc.Audit))

		staff := middleware.RequireRoles(models.RoleAdmin, models.RoleUser, models.RoleSiteAcquisition)
		admin := middleware.AdminRequired()

		leases := protected.Group("/leases", staff)
		{
			leases.POST("", leaseHandler.CreateLease)
			leases.GET("", leaseHandler.GetLeases)
			leases.GET("/search", leaseHandler.SearchLeases)
			leases.GET("/pending-approval", admin, leaseHandler.GetPendingLeases)
			leases.GET("/approved", leaseHandler.GetApprovedLeases)
			leases.GET("/status/:status", leaseHandler.GetLeasesByStatus)
			leases.GET("/operational-status/:status", leaseHandler.GetLeasesByOperationalStatus)
			leases.GET("/rental-type/:type", leaseHandler.GetLeasesByRentalType)
			leases.GET("/lease-type/:type", leaseHandler.GetLeasesByLeaseType)
			leases.GET("/landlord/:id", leaseHandler.GetLeasesByLandlord)
			leases.GET("/site/:id", leaseHandler.GetLeasesBySite)
			leases.GET("/category/:category", leaseHandler.GetLeasesByCategory)
			leases.GET("/category/:category/status/:status", leaseHandler.GetLeasesByCategoryAndStatus)
			leases.GET("/expiring", leaseHandler.GetExpiringLeases)
			leases.GET("/expiring-soon", leaseHandler.GetLeasesExpiringSoon)
			leases.GET("/due-for-renewal", leaseHandler.GetLeasesDueForRenewal)
			leases.GET("/expired", leaseHandler.GetExpiredLeases)
			leases.GET("/active", leaseHandler.GetActiveLeases)
			leases.GET("/with-documents", leaseHandler.GetLeasesWithDocuments)
			leases.GET("/without-documents", leaseHandler.GetLeasesWithoutDocuments)
			leases.GET("/auto-renewal/:enabled", leaseHandler.GetLeasesByAutoRenewal)
			leases.GET("/count/total", leaseHandler.CountLeases)
			leases.GET("/count/status/:status", leaseHandler.CountLeasesByStatus)
			leases.GET("/count/operational-status/:status", leaseHandler.CountLeasesByOperationalStatus)
			leases.GET("/statistics", leaseHandler.GetStatistics)
			leases.GET("/statistics/landlord/:id", leaseHandler.GetLandlordStatistics)
			leases.GET("/statistics/expiry", leaseHandler.GetExpiryStatistics)
			leases.GET("/:id", leaseHandler.GetLease)
			leases.PUT("/:id", leaseHandler.UpdateLease)
			leases.DELETE("/:id", admin, leaseHandler.DeleteLease)
			leases.POST("/:id/approve", admin, leaseHandler.ApproveLease)
			leases.POST("/:id/reject", admin, leaseHandler.RejectLease)
			leases.POST("/:id/renew", admin, leaseHandler.RenewLease)
			leases.GET("/:id/documents", leaseHandler.GetLeaseDocuments)
			leases.POST("/:id/documents", limits.Upload.Middleware(), leaseHandler.AddDocuments)
		}

		documents := protected.Group("/documents", staff)
		{
			documents.POST("/upload", limits.Upload.Middleware(), documentHandler.UploadDocument)
			documents.POST("/upload-multiple", limits.Upload.Middleware(), documentHandler.UploadDocuments)
			documents.GET("", documentHandler.GetDocuments)
			documents.DELETE("", documentHandler.DeleteDocuments)
			documents.GET("/search", documentHandler.GetDocuments)
			documents.GET("/latest", documentHandler.GetLatestDocuments)
			documents.GET("/statistics", documentHandler.GetStatistics)
			documents.GET("/types", documentHandler.GetDocumentTypes)
			documents.GET("/categories", documentHandler.GetCategories)
			documents.GET("/validate-upload/:leaseId", documentHandler.ValidateUpload)
			documents.GET("/lease/:leaseId", documentHandler.GetDocumentsByLease)
			documents.GET("/type/:type", documentHandler.GetDocumentsByType)
			documents.GET("/category/:category", documentHandler.GetDocumentsByCategory)
			documents.GET("/landlord/:id", documentHandler.GetDocumentsByLandlord)
			documents.GET("/site/:id", documentHandler.GetDocumentsBySite)
			documents.GET("/count/lease/:leaseId", documentHandler.CountByLease)
			documents.GET("/count/type/:type", documentHandler.CountByType)
			documents.GET("/count/category/:category", documentHandler.CountByCategory)
			documents.GET("/:id", documentHandler.GetDocument)
			documents.GET("/:id/file", documentHandler.DownloadDocument)
			documents.GET("/:id/url", documentHandler.GetDocumentURL)
			documents.PUT("/:id", documentHandler.UpdateDocument)
			documents.DELETE("/:id", documentHandler.DeleteDocument)
		}

		landlords := protected.Group("/landlords", staff)
		{
			landlords.POST("", landlordHandler.CreateLandlord)
			landlords.GET("", landlordHandler.GetLandlords)
			landlords.GET("/:id", landlordHandler.GetLandlord)
			landlords.PUT("/:id", landlordHandler.UpdateLandlord)
			landlords.DELETE("/:id", landlordHandler.DeleteLandlord)
			landlords.GET("/:id/bank-details", landlordHandler.GetLandlordBankDetails)
			landlords.GET("/:id/issues", issueHandler.GetIssuesByLandlord)
		}

		bankDetails := protected.Group("/bank-details", staff)
		{
			bankDetails.POST("", landlordHandler.CreateBankDetails)
			bankDetails.GET("", landlordHandler.GetBankDetailsList)
			bankDetails.GET("/landlord/:id", landlordHandler.GetLandlordBankDetails)
			bankDetails.GET("/:id", landlordHandler.GetBankDetails)
			bankDetails.PUT("/:id", landlordHandler.UpdateBankDetails)
			bankDetails.DELETE("/:id", landlordHandler.DeleteBankDetails)
		}

		sites := protected.Group("/sites", staff)
		{
			sites.POST("", siteHandler.CreateSite)
			sites.GET("", siteHandler.GetSites)
			sites.GET("/:id", siteHandler.GetSite)
			sites.PUT("/:id", siteHandler.UpdateSite)
			sites.DELETE("/:id", siteHandler.DeleteSite)
		}

		issues := protected.Group("/issues", staff)
		{
			issues.POST("", issueHandler.CreateIssue)
			issues.GET("", issueHandler.GetIssues)
			issues.GET("/landlord/:id", issueHandler.GetIssuesByLandlord)
			issues.GET("/:id", issueHandler.GetIssue)
			issues.PUT("/:id", issueHandler.UpdateIssue)
			issues.PATCH("/:id/status", issueHandler.UpdateIssueStatus)
			issues.DELETE("/:id", issueHandler.DeleteIssue)
		}

		reports := protected.Group("/reports", middleware.RequireRoles(models.RoleAdmin, models.RoleUser))
		{
			reports.POST("/generate", reportHandler.GenerateReport)
			reports.GET("", reportHandler.GetReports)
			reports.GET("/export", reportHandler.ExportReport)
			reports.GET("/consolidated", reportHandler.GetConsolidated)
			reports.GET("/expired", reportHandler.GetExpired)
			reports.GET("/upcoming", reportHandler.GetUpcoming)
			reports.GET("/category-summary", reportHandler.GetCategorySummary)
			reports.GET("/by-status", reportHandler.GroupedBy("status"))
			reports.GET("/by-rental-type", reportHandler.GroupedBy("rental_type"))
			reports.GET("/by-lease-type", reportHandler.GroupedBy("lease_type"))
			reports.GET("/status-summary", reportHandler.Summary("status"))
			reports.GET("/rental-type-summary", reportHandler.Summary("rental_type"))
			reports.GET("/lease-type-summary", reportHandler.Summary("lease_type"))
			reports.GET("/:id", reportHandler.GetReport)
			reports.DELETE("/:id", reportHandler.DeleteReport)
		}

		notifications := protected.Group("/notifications", staff)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		users := protected.Group("/users", admin)
		{
			users.GET("", adminHandler.GetUsers)
			users.GET("/:id", adminHandler.GetUser)
			users.PUT("/:id/status", adminHandler.UpdateUserStatus)
			users.PUT("/:id/role", adminHandler.UpdateUserRole)
		}

		roles := protected.Group("/roles", admin)
		{
			roles.GET("", adminHandler.GetRoles)
			roles.GET("/:id", adminHandler.GetRole)
			roles.POST("", adminHandler.CreateRole)
			roles.PUT("/:id", adminHandler.UpdateRole)
			roles.DELETE("/:id", adminHandler.DeleteRole)
		}

		protected.GET("/audit-logs", admin, adminHandler.GetAuditLogs)
	}

	return r
}
