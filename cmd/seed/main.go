// Command seed populates a fresh database with a demo company, a small org
// directory, and a two-step approval rule, so the API can be exercised
// locally without any setup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jding/expense-approval/internal/application/service"
	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/jding/expense-approval/pkg/database"
	"github.com/jding/expense-approval/pkg/utils"
)

func main() {
	dbPath := flag.String("db", "data/expenses.db", "path to the SQLite database")
	migrationsDir := flag.String("migrations", "migrations", "path to the migrations directory")
	flag.Parse()

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", OutputPath: "stdout", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            *dbPath,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(*migrationsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	ruleRepo := repository.NewRuleRepository(db.DB, logger)

	serviceLogger := stdoutLogger{}
	userService := service.NewUserService(userRepo, serviceLogger)
	ruleService := service.NewRuleService(ruleRepo, serviceLogger)

	company := &entity.Company{
		ID:        uuid.NewString(),
		Name:      "Acme Corp",
		Currency:  "USD",
		Country:   "US",
		CreatedAt: time.Now(),
	}
	if err := companyRepo.Create(ctx, company); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create company: %v\n", err)
		os.Exit(1)
	}

	admin, err := userService.CreateUser(ctx, company.ID, "admin@acme.test", "Avery Admin", entity.RoleAdmin, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
		os.Exit(1)
	}
	manager, err := userService.CreateUser(ctx, company.ID, "manager@acme.test", "Morgan Manager", entity.RoleManager, admin.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create manager: %v\n", err)
		os.Exit(1)
	}
	employee, err := userService.CreateUser(ctx, company.ID, "employee@acme.test", "Emery Employee", entity.RoleEmployee, manager.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create employee: %v\n", err)
		os.Exit(1)
	}

	// Manager signs off on everything; admin only engages at 500+ in company
	// currency and then approves automatically.
	rule, err := ruleService.CreateRule(ctx, company.ID, "Default approval flow", []*entity.ApprovalStep{
		{ApproverRole: entity.RoleManager},
		{
			ApproverRole: entity.RoleAdmin,
			Condition:    &entity.StepCondition{Type: entity.ConditionAmount, Threshold: 500},
			AutoApprove:  true,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create rule: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded company %s\n", company.ID)
	fmt.Printf("  admin:    %s\n", admin.ID)
	fmt.Printf("  manager:  %s\n", manager.ID)
	fmt.Printf("  employee: %s\n", employee.ID)
	fmt.Printf("  rule:     %s (%d steps)\n", rule.ID, len(rule.Steps))
}

// stdoutLogger satisfies the service logger with plain prints; fine for a
// one-shot tool
type stdoutLogger struct{}

func (stdoutLogger) Info(msg string, keysAndValues ...interface{}) {
	fmt.Println(append([]interface{}{msg}, keysAndValues...)...)
}

func (stdoutLogger) Error(msg string, keysAndValues ...interface{}) {
	fmt.Fprintln(os.Stderr, append([]interface{}{msg}, keysAndValues...)...)
}
