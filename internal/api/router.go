// Package api assembles the gin engine: middleware, routes and the operational endpoints.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"khaja/internal/api/controllers"
	"khaja/internal/config"
	"khaja/internal/models/db_models"
	"khaja/pkg/middleware"
	"khaja/pkg/utils"
)

type Handlers struct {
	fx.In

	Account      *controllers.AccountController
	Plan         *controllers.PlanController
	Subscription *controllers.SubscriptionController
	Quote        *controllers.QuoteController
	Project      *controllers.ProjectController
	Professional *controllers.ProfessionalController
	Dispute      *controllers.DisputeController
	Dashboard    *controllers.DashboardController
}

// NewRouter builds the engine. registry may be nil, in which case /metrics is not mounted.
func NewRouter(cfg config.Config, h Handlers, jwtManager *utils.JWTManager, registry *prometheus.Registry, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		utils.RespondSuccess(c, gin.H{"status": "ok"}, "")
	})
	if cfg.Metrics.Enabled && registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}

	RegisterRoutes(r, h, jwtManager)
	return r
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtManager *utils.JWTManager) {
	accounts := r.Group("/accounts")
	accounts.POST("/register", h.Account.Register)
	accounts.POST("/login", h.Account.Login)
	accounts.POST("/forgot-password", h.Account.ForgotPassword)
	accounts.POST("/verify-otp", h.Account.VerifyOtpToken)
	accounts.POST("/reset-password", h.Account.ResetPasswordWithOtp)

	r.GET("/plans", h.Plan.ListPlans)
	r.GET("/professionals", h.Professional.List)
	r.GET("/professionals/:id", h.Professional.Get)
	r.GET("/professionals/:id/reviews", h.Professional.Reviews)

	auth := r.Group("", middleware.JWTAuthMiddleware(jwtManager))
	auth.GET("/accounts/me", h.Account.Me)

	subs := auth.Group("/subscriptions")
	subs.POST("", h.Subscription.Create)
	subs.GET("/me", h.Subscription.GetMine)
	subs.POST("/usage", h.Subscription.ConsumeUsage)
	subs.GET("/:id", h.Subscription.Get)
	subs.PATCH("/:id", h.Subscription.Update)
	subs.POST("/:id/cancel", h.Subscription.Cancel)
	subs.GET("/:id/usage", h.Subscription.GetUsage)

	pros := auth.Group("/professionals/me", middleware.RoleMiddleware(string(db_models.RoleProfessional)))
	pros.PUT("/rates", h.Professional.UpdateMyRates)
	pros.POST("/verification", h.Professional.SubmitVerification)

	projects := auth.Group("/projects")
	projects.POST("", h.Project.Create)
	projects.GET("", h.Project.List)
	projects.GET("/:id", h.Project.Get)
	projects.POST("/:id/publish", h.Project.Publish)
	projects.POST("/:id/start", h.Project.Start)
	projects.POST("/:id/complete", h.Project.Complete)
	projects.POST("/:id/validate", h.Project.Validate)
	projects.POST("/:id/cancel", h.Project.Cancel)
	projects.POST("/:id/review", h.Project.Review)
	projects.POST("/:id/disputes", h.Project.OpenDispute)
	projects.POST("/:id/auto-quotes", h.Quote.GenerateForProject)
	projects.POST("/:id/quotes", h.Quote.Submit)
	projects.GET("/:id/quotes", h.Quote.ListForProject)

	quotes := auth.Group("/quotes")
	quotes.POST("/automatic", h.Quote.Automatic)
	quotes.POST("/:id/counter", h.Quote.Counter)
	quotes.POST("/:id/accept", h.Quote.Accept)
	quotes.POST("/:id/reject", h.Quote.Reject)

	admin := auth.Group("/admin", middleware.RoleMiddleware(string(db_models.RoleAdmin)))
	admin.GET("/dashboard", h.Dashboard.GetDashboard)
	admin.GET("/accounts", h.Account.GetAllAccounts)
	admin.GET("/transactions/export", h.Dashboard.ExportTransactions)
	admin.GET("/subscriptions", h.Subscription.AdminList)
	admin.PATCH("/subscriptions/:id", h.Subscription.Update)
	admin.PUT("/professionals/:id/rates", h.Professional.AdminUpdateRates)
	admin.POST("/professionals/:id/verify", h.Professional.Verify)
	admin.GET("/disputes", h.Dispute.List)
	admin.POST("/disputes/:id/resolve", h.Dispute.Resolve)
}
