package router

import (
	"time"

	"commissionflow/internal/config"
	"commissionflow/internal/handler"
	"commissionflow/internal/infra"
	"commissionflow/internal/middleware"
	"commissionflow/internal/repository"
	"commissionflow/internal/service"
	"commissionflow/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers for the async pool.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, worker.Handlers) {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	statements := infra.NewStatementPDF(cfg.StatementStoragePath)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	planRepo := repository.NewPlanRepository(db)
	calcRepo := repository.NewCalculationRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	calcSvc := service.NewCalculationService(calcRepo, txRepo, planRepo)
	txSvc := service.NewTransactionService(txRepo, clientRepo, calcSvc)
	planSvc := service.NewPlanService(planRepo, dispatcher)
	approvalSvc := service.NewApprovalService(calcRepo, dispatcher)
	payoutSvc := service.NewPayoutService(payoutRepo, calcRepo, statements)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientRepo, projectRepo)
	transactionsH := handler.NewTransactionsHandler(txSvc, calcSvc)
	plansH := handler.NewPlansHandler(planSvc)
	calculationsH := handler.NewCalculationsHandler(calcSvc, approvalSvc)
	payoutsH := handler.NewPayoutsHandler(payoutSvc)
	dashboardH := handler.NewDashboardHandler(calcRepo, txRepo, rdb, cfg.DashboardCacheTTL)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: viewer, manager, admin — declared per-endpoint
		anyRole := middleware.RequireRole("viewer", "manager", "admin")
		managers := middleware.RequireRole("manager", "admin")
		admins := middleware.RequireRole("admin")

		// Transactions — managers record, everyone reads
		v1.POST("/transactions", managers, transactionsH.Create)
		v1.GET("/transactions", anyRole, transactionsH.List)
		v1.GET("/transactions/:id", anyRole, transactionsH.Get)
		v1.GET("/transactions/:id/calculations", anyRole, transactionsH.Calculations)
		v1.POST("/transactions/:id/recalculate", managers, transactionsH.Recalculate)

		// Plans and rules — admin writes, everyone reads
		v1.GET("/plans", anyRole, plansH.List)
		v1.GET("/plans/:id", anyRole, plansH.Get)
		plans := v1.Group("/plans", admins)
		{
			plans.POST("", plansH.Create)
			plans.PUT("/:id", plansH.Update)
			plans.DELETE("/:id", plansH.Deactivate)
			plans.POST("/:id/rules", plansH.AddRule)
			plans.DELETE("/:id/rules/:ruleId", plansH.DeactivateRule)
		}

		// Calculations — approval workflow is manager+
		v1.GET("/calculations", anyRole, calculationsH.List)
		v1.GET("/calculations/:id/trace", anyRole, calculationsH.Explain)
		v1.POST("/calculations/:id/approve", managers, calculationsH.Approve)
		v1.POST("/calculations/:id/reject", managers, calculationsH.Reject)
		v1.POST("/calculations/:id/adjustments", managers, calculationsH.Adjust)
		v1.POST("/calculations/backfill", managers, calculationsH.Backfill)

		// Clients and projects
		v1.GET("/clients", anyRole, clientsH.List)
		clients := v1.Group("/clients", managers)
		{
			clients.POST("", clientsH.Create)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Deactivate)
		}
		v1.GET("/projects", anyRole, clientsH.ListProjects)
		projects := v1.Group("/projects", managers)
		{
			projects.POST("", clientsH.CreateProject)
			projects.DELETE("/:id", clientsH.DeactivateProject)
		}

		// Payouts — admin only
		payouts := v1.Group("/payouts", admins)
		{
			payouts.POST("", payoutsH.Create)
			payouts.GET("", payoutsH.List)
			payouts.GET("/:id", payoutsH.Get)
			payouts.GET("/:id/statement", payoutsH.Statement)
		}

		// Dashboard
		v1.GET("/dashboard/summary", anyRole, dashboardH.Summary)

		// Users — admin only
		users := v1.Group("/users", admins)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := worker.Handlers{
		Recalc: worker.NewRecalcWorker(calcSvc),
		Email:  worker.NewEmailWorker(mailer),
	}
	return r, handlers
}
