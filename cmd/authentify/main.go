package main

import (
	"context"
	"time"

	"github.com/MohamedAshiq09/authentify/internal/handlers"
	"github.com/MohamedAshiq09/authentify/internal/identity"
	"github.com/MohamedAshiq09/authentify/internal/sdkclients"
	"github.com/MohamedAshiq09/authentify/internal/store"
	"github.com/MohamedAshiq09/authentify/internal/tokens"
	"github.com/MohamedAshiq09/authentify/pkg/clients/chainproof"
	"github.com/MohamedAshiq09/authentify/pkg/config"
	"github.com/MohamedAshiq09/authentify/pkg/database"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/monitoring"
	"github.com/MohamedAshiq09/authentify/pkg/server"
	"github.com/MohamedAshiq09/authentify/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("authentify")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Authentify (Authentication Engine)")

	dbURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := config.RequireEnv("JWT_SECRET")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.ApplySchema(schemaCtx, db, logger); err != nil {
		cancel()
		logger.WithError(err).Fatal("Schema bootstrap failed")
	}
	cancel()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("authentify", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("authentify", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
		"JWT_SECRET":   jwtSecret,
	}))

	identityStore := store.NewPostgresStore(db, logger)

	// Wallet proof verification: delegate to an external verifier service
	// when one is configured, otherwise verify personal-sign proofs in
	// process.
	var verifier identity.ProofVerifier
	if verifierURL := config.GetEnv("PROOF_VERIFIER_URL", ""); verifierURL != "" {
		verifier = chainproof.NewClient(verifierURL)
		healthChecker.AddCheck("proof_verifier", monitoring.HTTPServiceHealthCheck("proof verifier", verifierURL+"/health"))
		logger.WithField("url", verifierURL).Info("Using remote proof verifier")
	} else {
		verifier = identity.EVMVerifier{}
		logger.Info("Using built-in proof verifier")
	}

	identitySvc := identity.NewService(identityStore, verifier, logger)
	tokenSvc := tokens.NewService(identityStore, tokens.Config{
		JWTSecret:  []byte(jwtSecret),
		AccessTTL:  config.GetEnvDuration("ACCESS_TOKEN_TTL", tokens.DefaultAccessTTL),
		RefreshTTL: config.GetEnvDuration("REFRESH_TOKEN_TTL", tokens.DefaultRefreshTTL),
	}, logger)
	clientRegistry := sdkclients.NewRegistry(identityStore, []byte(jwtSecret), logger)

	// Setup router with unified monitoring
	app := server.SetupRouter(logger, "authentify", healthChecker, metricsCollector)

	h := handlers.NewHandlers(identitySvc, tokenSvc, clientRegistry, []byte(jwtSecret), logger, metricsCollector)
	handlers.RegisterRoutes(app, h)
	if serviceToken := config.GetEnv("SERVICE_TOKEN", ""); serviceToken != "" {
		handlers.RegisterAdminRoutes(app, h, serviceToken)
	} else {
		logger.Warn("SERVICE_TOKEN not set - operator endpoints disabled")
	}

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("authentify", "18080")
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
