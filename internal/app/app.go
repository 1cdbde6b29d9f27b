package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/ceylonmart/server/cmd/server/docs" // swagger docs
	"github.com/ceylonmart/server/internal/module/order"
	"github.com/ceylonmart/server/internal/module/payment"
	paymentprovider "github.com/ceylonmart/server/internal/module/payment/provider"
	sharedcache "github.com/ceylonmart/server/internal/shared/cache"
	"github.com/ceylonmart/server/internal/shared/config"
	"github.com/ceylonmart/server/internal/shared/database"
	"github.com/ceylonmart/server/internal/shared/logger"
	"github.com/ceylonmart/server/internal/shared/metrics"
	"github.com/ceylonmart/server/internal/shared/middleware"
)

// App represents the application.
type App struct {
	config *config.Config
	log    *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine

	metrics *metrics.Metrics

	orderHandler   *order.Handler
	paymentHandler *payment.Handler

	orderRepo      order.Repository
	orderService   *order.Service
	paymentService *payment.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		log:     log,
		metrics: metrics.New(""),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(&order.Order{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	app.db = db

	// Redis is optional; without it the rate limiter passes everything
	// through.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, continuing without rate limiting", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	app.initModules()
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules wires the order and payment modules.
func (a *App) initModules() {
	a.orderRepo = order.NewRepository(a.db)
	a.orderService = order.NewService(a.orderRepo, a.log)
	a.orderHandler = order.NewHandler(a.orderService)

	httpClient := &http.Client{Timeout: a.config.Payment.GatewayTimeout}

	// All gateways register eagerly; an unconfigured gateway degrades at
	// call time instead of disappearing from the provider list.
	registry := payment.DefaultRegistry(
		&paymentprovider.BankConfig{
			APIURL:       a.config.Payment.Bank.APIURL,
			APIUsername:  a.config.Payment.Bank.APIUsername,
			APIPassword:  a.config.Payment.Bank.APIPassword,
			MerchantID:   a.config.Payment.Bank.MerchantID,
			MerchantName: a.config.Payment.Bank.MerchantName,
			ReturnURL:    a.config.Payment.Bank.ReturnURL,
			Currency:     a.config.Payment.Currency,
		},
		&paymentprovider.PaypalConfig{
			BaseURL:   a.config.Payment.Paypal.BaseURL,
			ClientID:  a.config.Payment.Paypal.ClientID,
			Secret:    a.config.Payment.Paypal.Secret,
			ReturnURL: a.config.Payment.Paypal.ReturnURL,
			CancelURL: a.config.Payment.Paypal.CancelURL,
			BrandName: a.config.Payment.Paypal.BrandName,
			Currency:  a.config.Payment.Currency,
		},
		&paymentprovider.StripeConfig{
			SecretKey:  a.config.Payment.Stripe.SecretKey,
			SuccessURL: a.config.Payment.Stripe.SuccessURL,
			CancelURL:  a.config.Payment.Stripe.CancelURL,
			Currency:   a.config.Payment.Currency,
		},
		httpClient,
	)

	a.paymentService = payment.NewService(
		a.orderRepo,
		registry,
		a.config.Payment.DefaultProvider,
		a.log,
		a.metrics,
	)
	a.paymentHandler = payment.NewHandler(a.paymentService)
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.log))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(a.config.Server.AllowedOrigins))
	if a.redis != nil {
		r.Use(middleware.RateLimit(a.redis, middleware.DefaultRateLimitConfig()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")
	auth := middleware.Auth(a.config.Auth.JWTSecret)

	a.orderHandler.RegisterRoutes(v1, auth)
	a.paymentHandler.RegisterRoutes(v1, auth)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}
