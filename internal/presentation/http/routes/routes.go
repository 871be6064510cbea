package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/pos-api/internal/config"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/metrics"
	"github.com/sangkips/pos-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth    *handler.AuthHandler
	Order   *handler.PosOrderHandler
	Stock   *handler.StockHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.RateLimiter
	Logger          *logger.Logger
	HTTPMetrics     *metrics.HTTPMetrics
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	// Ready reports whether backing stores are reachable.
	Ready func() error
}

// NewRateLimiter builds the limiter from RATE_LIMIT_REQUESTS per
// RATE_LIMIT_DURATION seconds.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.RateLimiter {
	rps := 0.0
	if cfg.Duration > 0 {
		rps = float64(cfg.Requests) / float64(cfg.Duration)
	}
	return middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rps,
		BurstSize:         cfg.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware(deps.HTTPMetrics))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.Cfg.App.Name,
		})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	{
		registerAuthRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager, deps.Logger))
		protected.Use(middleware.BranchMiddleware())

		protected.GET("/auth/me", h.Auth.Me)
		registerPosRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
	}
}

func registerPosRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotent := middleware.IdempotencyRequired(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		TTL:  deps.Cfg.Idempotency.TTL,
		Log:  deps.Logger,
	})

	pos := protected.Group("/pos")

	orders := pos.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", idempotent, h.Order.Create)
		orders.POST("/bulk", h.Order.Bulk)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id", h.Order.Update)
		orders.DELETE("/:id", h.Order.Destroy)
		orders.POST("/:id/complete", idempotent, h.Order.Complete)
		orders.POST("/:id/payments", idempotent, h.Order.AddPayments)
		orders.POST("/:id/void", h.Order.Void)
		orders.POST("/:id/restore", h.Order.Restore)
		orders.DELETE("/:id/force", h.Order.ForceDelete)
		orders.POST("/:id/print", h.Printer.PrintOrder)
	}

	pos.GET("/printer/status", h.Printer.GetStatus)

	stock := pos.Group("/stock")
	{
		stock.GET("", h.Stock.Level)
		stock.POST("/adjust", h.Stock.Adjust)
		stock.GET("/movements", h.Stock.Movements)
	}
}
