package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agencia-digital/app-leads/internal/channels"
	"github.com/agencia-digital/app-leads/internal/config"
	"github.com/agencia-digital/app-leads/internal/handlers"
	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/middleware"
	"github.com/agencia-digital/app-leads/internal/notify"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/agencia-digital/app-leads/docs"
)

// @title           Leads API
// @version         1.0
// @description     API de captação de leads: formulário do site, webhooks de anúncios (Meta e Google Ads) e verificação de telefone para downloads.

// @contact.name   Agência Digital
// @contact.email  dev@agencia.digital

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Leads
// @tag.description Submissão e gestão de leads

// @tag.name Webhooks
// @tag.description Recebimento de leads das plataformas de anúncios

// @tag.name Downloads
// @tag.description Verificação de telefone para materiais restritos

// @tag.name Health
// @tag.description Verificação de saúde

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	if err := config.InitMongoDB(); err != nil {
		logging.Logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	config.InitRedis()

	appCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Lead pipeline
	leadRepo := services.NewLeadRepository(config.MongoDB, cfg.LeadCollection, logging.Logger)
	notifiers, closeNotifiers := buildNotifiers(cfg)
	defer closeNotifiers()
	leadService := services.NewLeadService(leadRepo, notifiers, cfg.WebhookConcurrency, logging.Logger)

	// Phone verification
	verificationService := services.NewVerificationService(
		buildChallengeStore(cfg),
		channels.FromConfig(cfg, config.Redis, logging.Logger),
		services.NewDownloadLogRepository(config.MongoDB, cfg.DownloadLogCollection),
		services.VerificationOptions{
			TTL:             cfg.VerificationTTL,
			CodeLength:      cfg.VerificationCodeLength,
			MaxAttempts:     cfg.VerificationMaxAttempts,
			MessageTemplate: cfg.VerificationMessage,
			DefaultRegion:   cfg.DefaultPhoneRegion,
			Production:      cfg.IsProduction(),
		},
		logging.Logger,
	).WithIssueLimiter(services.NewIssueRateLimiter(
		cfg.VerificationIssueLimit,
		cfg.VerificationIssueWindow,
		cfg.VerificationGlobalLimit,
		logging.Logger,
	))
	go verificationService.StartSweeper(appCtx, cfg.VerificationSweepInterval)

	// Handlers
	leadHandlers := handlers.NewLeadHandlers(logging.Logger, leadService)
	webhookHandlers := handlers.NewWebhookHandlers(logging.Logger, leadService, handlers.WebhookConfig{
		VerifyToken:   cfg.WebhookVerifyToken,
		MetaAppSecret: cfg.MetaAppSecret,
		GoogleKey:     cfg.GoogleWebhookKey,
	})
	verificationHandlers := handlers.NewVerificationHandlers(logging.Logger, verificationService)
	healthHandlers := handlers.NewHealthHandlers(logging.Logger, healthChecks())

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestTracing(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", healthHandlers.HealthCheck)

		// Public lead capture
		v1.POST("/leads", leadHandlers.CreateLead)
		v1.GET("/webhooks/leads", webhookHandlers.VerifySubscription)
		v1.POST("/webhooks/leads", webhookHandlers.ReceiveLeads)

		// Download gating
		v1.POST("/downloads/otp", verificationHandlers.IssueCode)
		v1.POST("/downloads/otp/verify", verificationHandlers.VerifyCode)

		// Operator routes
		admin := v1.Group("/leads",
			middleware.AuthMiddleware(cfg.JWTSecret),
			middleware.RequireAdmin(cfg.AdminRole),
			middleware.OperatorAudit("lead"),
		)
		{
			admin.GET("", leadHandlers.ListLeads)
			admin.PATCH("/:id", leadHandlers.UpdateLead)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("verification_store", cfg.VerificationStore),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("server forced to shutdown", zap.Error(err))
	}

	stopBackground()
	leadService.Close()

	if err := config.MongoDB.Client().Disconnect(ctx); err != nil {
		logging.Logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
	}
	if config.Redis != nil {
		if err := config.Redis.Close(); err != nil {
			logging.Logger.Warn("failed to close Redis", zap.Error(err))
		}
	}

	logging.Logger.Info("server exited gracefully")
}

// buildChallengeStore picks the verification store. Redis is required for
// multi-instance deployments; without a reachable Redis the process falls
// back to local memory.
func buildChallengeStore(cfg *config.Config) services.ChallengeStore {
	if cfg.VerificationStore == config.VerificationStoreRedis {
		if config.Redis != nil {
			return services.NewRedisChallengeStore(config.Redis)
		}
		logging.Logger.Error("redis verification store requested but Redis is unavailable, using memory store")
	}
	return services.NewMemoryChallengeStore()
}

// buildNotifiers creates the configured lead notifiers and a function that
// releases their connections.
func buildNotifiers(cfg *config.Config) ([]services.LeadNotifier, func()) {
	var notifiers []services.LeadNotifier
	closers := []func() error{}

	if cfg.SMTPHost != "" && len(cfg.LeadNotifyEmails) > 0 {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.LeadNotifyEmails,
		}))
		logging.Logger.Info("lead e-mail notifications enabled", zap.Int("recipients", len(cfg.LeadNotifyEmails)))
	}

	if cfg.AMQPURL != "" {
		publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logging.Logger.Error("failed to connect to AMQP broker, lead events disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, publisher)
			closers = append(closers, publisher.Close)
			logging.Logger.Info("lead events enabled", zap.String("exchange", cfg.AMQPExchange))
		}
	}

	return notifiers, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logging.Logger.Warn("failed to close notifier", zap.Error(err))
			}
		}
	}
}

func healthChecks() map[string]handlers.HealthCheckFunc {
	checks := map[string]handlers.HealthCheckFunc{
		"mongodb": func(ctx context.Context) error {
			return config.MongoDB.Client().Ping(ctx, readpref.Primary())
		},
	}
	if config.AppConfig.VerificationStore == config.VerificationStoreRedis {
		checks["redis"] = func(ctx context.Context) error {
			if config.Redis == nil {
				return fmt.Errorf("redis not connected")
			}
			return config.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID", "X-Lead-Source")
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
