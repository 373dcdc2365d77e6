package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/audit"
	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/config"
	"github.com/ekaya-inc/ekaya-counsel/pkg/database"
	"github.com/ekaya-inc/ekaya-counsel/pkg/handlers"
	"github.com/ekaya-inc/ekaya-counsel/pkg/llm"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
	"github.com/ekaya-inc/ekaya-counsel/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-counsel/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-counsel/pkg/middleware"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/repositories"
	"github.com/ekaya-inc/ekaya-counsel/pkg/retry"
	"github.com/ekaya-inc/ekaya-counsel/pkg/seed"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		// Logger depends on config, so fall back to a default one here
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("ai_available", cfg.AI.IsAvailable()),
		zap.Bool("ai_hints_enabled", cfg.Intake.AIHintsEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres may still be starting when the service comes up under compose.
	var db *database.DB
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		var connErr error
		db, connErr = database.NewConnection(ctx, &database.Config{
			URL:              cfg.Database.ConnectionString(),
			MaxConnections:   cfg.Database.MaxConnections,
			StatementTimeout: cfg.Database.StatementTimeout,
		})
		return connErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := database.MigrateURL(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	lookupRepo := repositories.NewLookupRepository()
	caseRepo := repositories.NewCaseRepository()

	// Services
	defaults, err := seed.Load()
	if err != nil {
		logger.Fatal("Failed to load default lookups", zap.Error(err))
	}
	lookupService := services.NewLookupService(lookupRepo, defaults, logger)
	caseService := services.NewCaseService(caseRepo, logger)

	var hintService services.CaseHintService
	if cfg.AI.IsAvailable() && cfg.Intake.AIHintsEnabled {
		client, err := llm.NewClientForProvider(cfg.AI.Provider, &llm.Config{
			Endpoint:  cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			APIKey:    cfg.AI.APIKey,
			MaxTokens: cfg.AI.MaxTokens,
			JSONMode:  cfg.AI.JSONMode,
			Timeout:   cfg.AI.Timeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
		hintService = services.NewCaseHintService(client, lookupRepo, nil, cfg.AI.Temperature, logger)
		logger.Info("AI case hints enabled",
			zap.String("provider", cfg.AI.Provider),
			zap.String("model", client.GetModel()))
	} else {
		logger.Info("AI case hints disabled; intake uses prompt patterns only")
	}

	intakeConfig := services.DefaultIntakeConfig()
	intakeConfig.AIHintsEnabled = hintService != nil
	intakeConfig.CandidateLimits = intakeLimits(cfg.Intake)

	securityAuditor := audit.NewSecurityAuditor(logger)
	intakeService := services.NewCaseIntakeService(
		lookupRepo,
		lookupService,
		caseService,
		hintService,
		securityAuditor,
		intakeConfig,
		logger,
	)

	// Auth
	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	tenantMiddleware := handlers.TenantMiddleware(database.WithTenantContext(db, logger))

	// MCP
	mcpAudit := mcp.NewAuditLogger(logger)
	mcpServer := mcp.NewServer("ekaya-counsel", cfg.Version, mcpAudit, logger)
	getTenantCtx := services.NewTenantContextFunc(db)

	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, hintService != nil)
	tools.RegisterCaseIntakeTools(mcpServer.MCP(), &tools.CaseIntakeToolDeps{
		IntakeService:    intakeService,
		GetTenantContext: getTenantCtx,
		Logger:           logger,
	})
	tools.RegisterLookupTools(mcpServer.MCP(), &tools.LookupToolDeps{
		LookupService:    lookupService,
		GetTenantContext: getTenantCtx,
		Logger:           logger,
	})

	// HTTP routes
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewCaseIntakeHandler(intakeService, caseService, logger).
		RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewLookupHandler(lookupService, logger).
		RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewMCPHandler(mcpServer, logger, cfg.MCP).
		RegisterRoutes(mux, mcpauth.NewMiddleware(authService, mcpAudit, logger))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting ekaya-counsel",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func intakeLimits(cfg config.IntakeConfig) map[models.EntityType]int {
	return map[models.EntityType]int{
		models.EntityClient:     cfg.ClientCandidateLimit,
		models.EntityCourt:      cfg.CourtCandidateLimit,
		models.EntityCaseType:   cfg.CaseTypeCandidateLimit,
		models.EntityCaseStatus: cfg.StatusCandidateLimit,
	}
}
