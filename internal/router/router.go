package router

import (
	"time"

	"lanepos/internal/config"
	"lanepos/internal/handler"
	"lanepos/internal/middleware"
	"lanepos/internal/repository"
	"lanepos/internal/service"
	"lanepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// ledger service, which the caller also hands to the stale-open sweeper:
// both paths must share one per-transaction lock map.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, service.LedgerService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(itemRepo, movementRepo)
	catalogSvc := service.NewCatalogService(itemRepo, inventorySvc, rdb)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	locks := service.NewTxLocks()
	ledgerSvc := service.NewLedgerService(txRepo, refundRepo, paymentRepo, catalogSvc, inventorySvc, locks, dispatcher)
	refundSvc := service.NewRefundService(txRepo, refundRepo, paymentRepo, inventorySvc, locks)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	itemsH := handler.NewItemsHandler(catalogSvc)
	txH := handler.NewTransactionsHandler(ledgerSvc, refundSvc)
	priceH := handler.NewPriceCheckHandler(itemRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check, no auth required
	r.GET("/v1/price/:barcode", priceH.GetPriceByBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")

		// Transaction lifecycle: all staff run sales; refunding or cancelling
		// requires a supervisor key.
		v1.POST("/transactions", anyStaff, txH.Open)
		v1.GET("/transactions", anyStaff, txH.List)
		v1.GET("/transactions/:id", anyStaff, txH.Get)
		v1.POST("/transactions/:id/lines", anyStaff, txH.AddLine)
		v1.POST("/transactions/:id/finalize", anyStaff, txH.Finalize)
		v1.DELETE("/transactions/:id", anyStaff, txH.Cancel)
		v1.POST("/transactions/:id/refund", middleware.RequireRole("supervisor", "admin"), txH.Refund)

		// Catalog: all staff can read, supervisors adjust stock, admins write.
		v1.GET("/items", anyStaff, itemsH.List)
		v1.GET("/items/:id", anyStaff, itemsH.Get)
		v1.POST("/items/:id/stock", middleware.RequireRole("supervisor", "admin"), itemsH.AdjustStock)
		items := v1.Group("/items", middleware.RequireRole("admin"))
		{
			items.POST("", itemsH.Create)
			items.PUT("/:id", itemsH.Update)
			items.DELETE("/:id", itemsH.Deactivate)
			items.POST("/:id/reactivate", itemsH.Reactivate)
			items.POST("/:id/barcodes", itemsH.AddBarcode)
			items.DELETE("/:id/barcodes/:code", itemsH.RemoveBarcode)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, ledgerSvc
}
