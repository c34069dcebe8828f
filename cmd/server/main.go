package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/mhenders/fieldflow/internal/application/service"
	"github.com/mhenders/fieldflow/internal/config"
	"github.com/mhenders/fieldflow/internal/infrastructure/notify"
	"github.com/mhenders/fieldflow/internal/infrastructure/persistence/repository"
	"github.com/mhenders/fieldflow/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/mhenders/fieldflow/internal/interfaces/http"
	"github.com/mhenders/fieldflow/pkg/database"
	"github.com/mhenders/fieldflow/pkg/utils"
)

func main() {
	// Local .env for development; ignored when absent.
	_ = gotenv.Load()

	configPath := os.Getenv("FIELDFLOW_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting fieldflow work-order server",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)
	formRepo := repository.NewFormRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	notifier := notify.NewWebhookDispatcher(notify.Config{
		SubmitURL:    cfg.Webhooks.SubmitURL,
		RejectURL:    cfg.Webhooks.RejectURL,
		ForwardURL:   cfg.Webhooks.ForwardURL,
		FormLinkBase: cfg.Webhooks.FormLinkBase,
		Timeout:      cfg.Webhooks.Timeout,
	}, logger)

	svcLogger := serviceLogger{sugar: logger.Sugar()}
	workflowService := service.NewWorkflowService(formRepo, historyRepo, txManager, notifier, nil, svcLogger)
	formService := service.NewFormService(formRepo, historyRepo, txManager, svcLogger)
	userService := service.NewUserService(userRepo, svcLogger)
	exportService := service.NewExportService(formRepo, svcLogger)

	tokens := httpiface.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	handlers := httpiface.NewHandlers(workflowService, formService, userService, exportService, tokens, svcLogger)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, tokens, svcLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// serviceLogger adapts zap's sugared logger to the narrow Logger interface
// the application layer depends on.
type serviceLogger struct {
	sugar *zap.SugaredLogger
}

func (l serviceLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l serviceLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
