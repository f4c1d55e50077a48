package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/krosit/flota-api/docs" // Swagger docs
	"github.com/krosit/flota-api/internal/config"
	"github.com/krosit/flota-api/internal/database"
	"github.com/krosit/flota-api/internal/handlers"
	"github.com/krosit/flota-api/internal/jobs"
	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/repository"
	"github.com/krosit/flota-api/internal/services"
	"github.com/krosit/flota-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Flota API
// @version 1.0
// @description REST API for fleet, inventory and expense administration

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, repos)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			protected.POST("/auth/logout", h.Auth.Logout)
			protected.POST("/auth/change_password", h.Auth.ChangePassword)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.PUT("/users/:user_id", h.User.Update)
				admin.DELETE("/users/:user_id", h.User.Discard)
				admin.POST("/users/:user_id/restore", h.User.Restore)

				admin.POST("/budget_adjustments", h.Budget.CreateAdjustment)

				admin.GET("/reports/audit/export", h.Report.ExportAudit)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Staff + Admin routes (day-to-day ledger operations)
			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			{
				staff.POST("/employees", h.Employee.Create)
				staff.PUT("/employees/:employee_id", h.Employee.Update)
				staff.GET("/employees", h.Employee.Index)
				staff.GET("/employees/with_budget", h.Employee.WithBudget)

				staff.POST("/vehicles", h.Vehicle.Create)
				staff.PUT("/vehicles/:vehicle_id", h.Vehicle.Update)
				staff.GET("/vehicles/document_alerts", h.Vehicle.DocumentAlerts)

				staff.POST("/depots", h.Depot.Create)
				staff.PUT("/depots/:depot_id", h.Depot.Update)
				staff.POST("/depots/:depot_id/products", h.Depot.CreateProduct)
				staff.PUT("/products/:product_id", h.Depot.UpdateProduct)
				staff.DELETE("/products/:product_id", h.Depot.DeleteProduct)
				staff.POST("/products/:product_id/add_stock", h.Depot.AddStock)
				staff.GET("/products/:product_id/holders", h.Stock.ProductHolders)

				staff.POST("/withdrawals", h.Stock.CreateWithdrawal)
				staff.GET("/withdrawals", h.Stock.IndexWithdrawals)
				staff.POST("/returns", h.Stock.CreateReturn)
				staff.GET("/returns", h.Stock.IndexReturns)

				staff.POST("/expenses", h.Budget.CreateExpense)

				staff.POST("/fuel/tanks", h.Fuel.CreateTank)
				staff.PUT("/fuel/tanks/:tank_id", h.Fuel.UpdateTank)
				staff.POST("/fuel/refills", h.Fuel.CreateRefill)
				staff.POST("/fuel/refills/:refill_id/close", h.Fuel.CloseRefill)
				staff.POST("/fuel/usages", h.Fuel.CreateUsage)
				staff.GET("/fuel/vehicles/:vehicle_id/report", h.Fuel.VehicleReport)

				staff.GET("/audit_logs", h.Audit.Index)

				staff.GET("/reports/withdrawals/export", h.Report.ExportWithdrawals)
				staff.GET("/reports/fuel/usages/export", h.Report.ExportFuelUsages)
				staff.GET("/reports/employees/:employee_id/expenses/export", h.Report.ExportExpenses)
				staff.GET("/reports/depots/:depot_id/inventory", h.Report.DepotInventory)
			}

			// All authenticated users. Services enforce staff-or-owner on
			// employee-scoped reads.
			protected.GET("/employees/me", h.Employee.Me)
			protected.GET("/employees/:employee_id", h.Employee.Show)
			protected.GET("/employees/:employee_id/outstanding", h.Employee.Outstanding)
			protected.GET("/employees/:employee_id/budget", h.Employee.Budget)
			protected.GET("/employees/:employee_id/expenses", h.Budget.IndexExpenses)
			protected.GET("/employees/:employee_id/budget_adjustments", h.Budget.IndexAdjustments)

			protected.GET("/vehicles", h.Vehicle.Index)
			protected.GET("/vehicles/:vehicle_id", h.Vehicle.Show)

			protected.GET("/depots", h.Depot.Index)
			protected.GET("/depots/:depot_id", h.Depot.Show)
			protected.GET("/depots/:depot_id/products", h.Depot.Products)
			protected.GET("/products", h.Depot.SearchProducts)
			protected.GET("/products/:product_id", h.Depot.ShowProduct)

			protected.GET("/withdrawals/:withdrawal_id", h.Stock.ShowWithdrawal)
			protected.GET("/returns/:return_id", h.Stock.ShowReturn)

			protected.GET("/fuel/tanks", h.Fuel.IndexTanks)
			protected.GET("/fuel/tanks/:tank_id", h.Fuel.ShowTank)
			protected.GET("/fuel/refills", h.Fuel.IndexRefills)
			protected.GET("/fuel/refills/:refill_id", h.Fuel.ShowRefill)
			protected.GET("/fuel/usages", h.Fuel.IndexUsages)

			protected.GET("/reports/withdrawals/:withdrawal_id/slip", h.Report.WithdrawalSlip)
			protected.GET("/reports/employees/:employee_id/budget", h.Report.BudgetStatement)
			protected.GET("/reports/fuel/tanks/:tank_id", h.Report.TankReport)

			// Notifications (users manage their own)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.GET("/unread_count", h.Notification.UnreadCount)
				notifications.PUT("/read_all", h.Notification.MarkAllRead)
				notifications.PUT("/:notification_id/read", h.Notification.MarkRead)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, repos *repository.Repositories) {
	// Vehicle document expiry alerts, once a day starting now
	worker.ScheduleEveryImmediate(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking vehicle document expiries...")
		return svcs.Vehicle.NotifyDocumentAlerts(ctx)
	})

	// Purge expired refresh tokens daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		deleted, err := repos.RefreshToken.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		if deleted > 0 {
			logger.Info("[Job] Purged expired refresh tokens", "count", deleted)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
