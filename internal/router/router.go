package router

import (
	"time"

	"komisi/config"
	"komisi/internal/commission"
	"komisi/internal/domain"
	"komisi/internal/handler"
	"komisi/internal/middleware"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup builds the engine, services and handlers and returns the configured
// gin engine. Settings rows present in the database override the env-level
// commission defaults; both are read once at boot, so a settings change to
// the placeholder rate or tolerance takes effect on the next restart.
func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	unprocessedRepo := repository.NewUnprocessedRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// engine core
	placeholderRate := settingRepo.GetFloat64(domain.SettingDefaultRatePercent, cfg.Commission.PlaceholderRatePercent)
	tolerance := settingRepo.GetInt64(domain.SettingReconcileToleranceIDR, cfg.Commission.ReconcileTolerance)
	rates := commission.NewRateResolver(productRepo, placeholderRate)
	attribution := commission.NewAttributionResolver(affiliateRepo)
	ledger := commission.NewLedgerWriter(commissionRepo)
	engine := commission.NewEngine(rates, attribution, ledger, unprocessedRepo)
	reconciler := commission.NewReconciler(commissionRepo, rates, tolerance)

	// services
	authSvc := service.NewAuthService(cfg, userRepo)
	orderSvc := service.NewOrderService(orderRepo, engine)
	payoutSvc := service.NewPayoutService(payoutRepo, commissionRepo, settingRepo, walletRepo, ledger)
	reconcileSvc := service.NewReconcileService(reconciler, engine, orderRepo, walletRepo, affiliateRepo)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	eventHandler := handler.NewEventHandler(orderSvc, auditRepo, cfg)
	adminHandler := handler.NewAdminHandler(productRepo, mappingRepo, unprocessedRepo, settingRepo, affiliateRepo, auditRepo, reconcileSvc)
	affiliateHandler := handler.NewAffiliateHandler(affiliateRepo, commissionRepo, reconcileSvc)
	walletHandler := handler.NewWalletHandler(affiliateRepo, walletRepo)
	payoutHandler := handler.NewPayoutHandler(affiliateRepo, payoutRepo, payoutSvc, auditRepo)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(300, time.Minute)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/change-password", middleware.AuthRequired(&cfg.JWT), authHandler.ChangePassword)
	}

	// Order events from the payment/order collaborator. Authenticated by HMAC
	// signature, not JWT.
	events := api.Group("/events")
	{
		events.POST("/order-success", eventHandler.OrderSuccess)
		events.POST("/order-refund", eventHandler.OrderRefund)
	}

	me := api.Group("/me", middleware.AuthRequired(&cfg.JWT))
	{
		me.GET("/affiliate", affiliateHandler.MyProfile)
		me.GET("/commissions", affiliateHandler.MyCommissions)
		me.GET("/reconciliation", affiliateHandler.MyReconciliation)
		me.GET("/wallet", walletHandler.Balance)
		me.GET("/wallet/transactions", walletHandler.Transactions)
		me.POST("/payouts", payoutHandler.Initiate)
		me.GET("/payouts", payoutHandler.List)
	}

	admin := api.Group("/admin", middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
	{
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.GET("/products", adminHandler.ListProducts)

		admin.POST("/affiliates", adminHandler.EnrollAffiliate)
		admin.GET("/affiliates", adminHandler.ListAffiliates)

		admin.POST("/mappings", adminHandler.UpsertMapping)
		admin.GET("/mappings", adminHandler.ListMappings)
		admin.DELETE("/mappings/:legacyID", adminHandler.DeleteMapping)

		admin.GET("/unprocessed", adminHandler.ListUnprocessed)
		admin.POST("/unprocessed/:id/resolve", adminHandler.ResolveUnprocessed)

		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.SetSetting)

		admin.GET("/reconcile/:affiliateID", adminHandler.Reconcile)
		admin.POST("/reconcile/:affiliateID/repair", adminHandler.Repair)
	}

	return r
}
