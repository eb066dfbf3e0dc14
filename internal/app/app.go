package app

import (
	"policybook/config"
	"policybook/internal/database"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	"policybook/internal/repositories"
	"policybook/internal/services"

	adminController "policybook/internal/controllers/admin"
	contractController "policybook/internal/controllers/contract"
	importController "policybook/internal/controllers/importer"
	taskController "policybook/internal/controllers/task"
	userController "policybook/internal/controllers/users"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Config     config.Config

	// Services
	TransactionService *services.TransactionService
	AuditService       *services.AuditService
	SessionService     *services.SessionService
	SchedulerService   *services.SchedulerService

	// Repositories
	UserRepo     repositories.UserRepository
	ContractRepo repositories.ContractRepository
	HistoryRepo  repositories.HistoryRepository
	TaskRepo     repositories.TaskRepository

	// Controllers
	UserController     *userController.UserController
	ContractController *contractController.ContractController
	ImportController   *importController.ImportController
	TaskController     *taskController.TaskController
	AdminController    *adminController.AdminController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	return Build(config, db)
}

// Build wires every layer on top of an open database.
func Build(config config.Config, db database.DB) (*App, error) {
	log := logger.New("app").Function("Build")

	// Initialize services
	transactionService := services.NewTransactionService(db)
	sessionService := services.NewSessionService(db, config.SessionTTL())

	// Initialize repositories
	userRepo := repositories.New(db)
	contractRepo := repositories.NewContract(db)
	historyRepo := repositories.NewHistory(db)
	taskRepo := repositories.NewTask(db)

	auditService := services.NewAuditService(historyRepo)

	// Initialize controllers with repositories and services
	middleware := middleware.New(sessionService)
	userController := userController.New(userRepo, sessionService)
	contractController := contractController.New(contractRepo, historyRepo, auditService, transactionService)
	importController := importController.New(contractRepo, transactionService)
	taskController := taskController.New(taskRepo, config.TaskRetention())
	adminController := adminController.New(userRepo)

	schedulerService := services.NewSchedulerService(taskController)

	app := &App{
		Database:           db,
		Config:             config,
		Middleware:         middleware,
		TransactionService: transactionService,
		AuditService:       auditService,
		SessionService:     sessionService,
		SchedulerService:   schedulerService,
		UserRepo:           userRepo,
		ContractRepo:       contractRepo,
		HistoryRepo:        historyRepo,
		TaskRepo:           taskRepo,
		UserController:     userController,
		ContractController: contractController,
		ImportController:   importController,
		TaskController:     taskController,
		AdminController:    adminController,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]any{
		"TransactionService": a.TransactionService,
		"AuditService":       a.AuditService,
		"SessionService":     a.SessionService,
		"SchedulerService":   a.SchedulerService,
		"UserRepo":           a.UserRepo,
		"ContractRepo":       a.ContractRepo,
		"HistoryRepo":        a.HistoryRepo,
		"TaskRepo":           a.TaskRepo,
		"UserController":     a.UserController,
		"ContractController": a.ContractController,
		"ImportController":   a.ImportController,
		"TaskController":     a.TaskController,
		"AdminController":    a.AdminController,
	}

	for name, check := range nilChecks {
		if isNil(check) {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

func isNil(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case *services.TransactionService:
		return c == nil
	case *services.AuditService:
		return c == nil
	case *services.SessionService:
		return c == nil
	case *services.SchedulerService:
		return c == nil
	case *userController.UserController:
		return c == nil
	case *contractController.ContractController:
		return c == nil
	case *importController.ImportController:
		return c == nil
	case *taskController.TaskController:
		return c == nil
	case *adminController.AdminController:
		return c == nil
	default:
		return false
	}
}

func (a *App) Close() (err error) {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
