package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/auth"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/config"
	pg "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/logging"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/server"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logging.New(config.LogConfig{Level: "info", Format: "json"}, version)
		bootLog.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	log := logging.New(cfg.Log, version)

	dbPool, err := pg.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database pool")
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool,
		pg.WithIsolationLevel(cfg.Database.IsolationLevel),
		pg.WithLogger(log),
	)

	timesheetRepo := postgres.NewTimesheetRepository(dbPool)
	entryRepo := postgres.NewTimesheetEntryRepository(dbPool)
	approvalRepo := postgres.NewApprovalRepository(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	departmentRepo := postgres.NewDepartmentRepository(dbPool)
	clientRepo := postgres.NewClientRepository(dbPool)
	projectRepo := postgres.NewProjectRepository(dbPool)
	userRepo := postgres.NewUserRepository(dbPool)

	entrySvc := timesheet.NewEntryService(entryRepo, timesheetRepo, projectRepo, nil, txManager, timesheet.WithLogger(log))
	timesheetSvc := timesheet.NewService(timesheetRepo, entrySvc, employeeRepo, approvalRepo, nil, txManager, timesheet.WithLogger(log))
	approvalSvc := approval.NewService(approvalRepo, postgres.ApprovalReferences{Timesheets: timesheetRepo, Employees: employeeRepo}, nil, txManager, approval.WithLogger(log))
	employeeSvc := employee.NewService(employeeRepo, departmentRepo, nil, txManager)
	departmentSvc := department.NewService(departmentRepo, nil, txManager)
	clientSvc := client.NewService(clientRepo, nil, txManager)
	projectSvc := project.NewService(projectRepo, employeeRepo, nil, txManager)
	userSvc := user.NewService(userRepo, employeeRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), nil, txManager, user.WithLogger(log))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handler.NewRouter(handler.Dependencies{
		Timesheets:  timesheetSvc,
		Entries:     entrySvc,
		Approvals:   approvalSvc,
		Employees:   employeeSvc,
		Departments: departmentSvc,
		Clients:     clientSvc,
		Projects:    projectSvc,
		Users:       userSvc,
		Tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Pinger:      dbPool,
		Metrics:     middleware.NewMetrics(registry),
		Logger:      log,
	})

	srv := server.New(cfg.Server, router, log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}
