package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/service"
	"github.com/jding/expense-approval/internal/config"
	"github.com/jding/expense-approval/internal/infrastructure/notification"
	"github.com/jding/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/jding/expense-approval/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/jding/expense-approval/internal/interfaces/http"
	"github.com/jding/expense-approval/pkg/database"
	"github.com/jding/expense-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
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

	logger.Info("Starting expense approval service",
		zap.String("version", "1.0.0"),
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
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	ruleRepo := repository.NewRuleRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	companyRepo := repository.NewCompanyRepository(db.DB, logger)

	sink := notification.NewLogSink(logger)
	serviceLogger := &zapLoggerAdapter{logger: logger}

	expenseService := service.NewExpenseService(
		expenseRepo, approvalRepo, ruleRepo, userRepo, companyRepo, txManager, sink, serviceLogger)
	decisionService := service.NewDecisionService(
		expenseRepo, approvalRepo, ruleRepo, userRepo, txManager, sink, serviceLogger)
	ruleService := service.NewRuleService(ruleRepo, serviceLogger)
	userService := service.NewUserService(userRepo, serviceLogger)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, expenseService, decisionService, ruleService, userService, serviceLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// zapLoggerAdapter adapts zap.Logger to the service and http Logger interfaces
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues...)...)
}

func toZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
