package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"policybook/cmd/migration/initialize"
	"policybook/cmd/migration/seed"
	"policybook/config"
	"policybook/internal/app"
	"policybook/internal/database"
	"policybook/internal/handlers"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/services"

	importController "policybook/internal/controllers/importer"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "policybook",
		Short:         "Insurance contract register with audit history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), importCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return config.Config{}, err
	}
	logger.Setup(cfg.Environment, cfg.LogLevel, os.Stdout)
	return cfg, nil
}

// flushCaches drops cached contracts and sessions after the command line
// changed rows underneath a running server. A missing cache is not an error.
func flushCaches(db *database.DB, cfg config.Config, log logger.Logger) {
	if err := db.AttachCache(cfg); err != nil {
		log.Warn("cache unavailable, skipping flush", "error", err)
		return
	}
	if err := db.FlushAllCaches(); err != nil {
		log.Er("failed to flush caches", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the task purge schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("main").Function("serve")

			application, err := app.New()
			if err != nil {
				return log.Err("failed to initialize app", err)
			}
			defer func() {
				if err := application.Close(); err != nil {
					log.Er("failed to close app", err)
				}
			}()
			logger.Setup(application.Config.Environment, application.Config.LogLevel, os.Stdout)

			if err := application.SchedulerService.Start(application.Config.TaskPurgeSchedule); err != nil {
				return log.Err("failed to start scheduler", err, "schedule", application.Config.TaskPurgeSchedule)
			}

			server := fiber.New(fiber.Config{
				AppName:      "policybook " + application.Config.GeneralVersion,
				BodyLimit:    application.Config.ImportMaxUploadMB * 1024 * 1024,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
			})

			if err := handlers.Router(server, application); err != nil {
				return log.Err("failed to register routes", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				address := fmt.Sprintf(":%d", application.Config.ServerPort)
				log.Info("Starting server", "address", address, "environment", application.Config.Environment)
				errs <- server.Listen(address)
			}()

			select {
			case err := <-errs:
				return log.Err("server stopped", err)
			case <-ctx.Done():
			}

			log.Info("Shutting down server")
			if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
				return log.Err("failed to shut down server", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and create the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("main").Function("migrate")

			cfg, err := loadConfig()
			if err != nil {
				return log.Err("failed to load config", err)
			}

			// opening the store applies pending migrations
			db, err := database.NewSQLOnly(cfg)
			if err != nil {
				return log.Err("failed to open database", err)
			}
			defer db.Close()

			if down > 0 {
				reverted, err := db.Rollback(down)
				if err != nil {
					return err
				}
				log.Info("Migrations reverted", "count", reverted)
				flushCaches(&db, cfg, log)
				return nil
			}

			return initialize.InitializeTables(db.SQL, cfg, log)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "revert the given number of migrations instead of applying")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load development users and sample contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("main").Function("seed")

			cfg, err := loadConfig()
			if err != nil {
				return log.Err("failed to load config", err)
			}
			if cfg.IsProduction() {
				return log.ErrMsg("refusing to seed a production database")
			}

			db, err := database.NewSQLOnly(cfg)
			if err != nil {
				return log.Err("failed to open database", err)
			}
			defer db.Close()

			if err := initialize.InitializeTables(db.SQL, cfg, log); err != nil {
				return err
			}
			if err := seed.Seed(db.SQL, cfg, log); err != nil {
				return err
			}
			flushCaches(&db, cfg, log)
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import contracts from a CSV or XLSX spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("main").Function("import")

			cfg, err := loadConfig()
			if err != nil {
				return log.Err("failed to load config", err)
			}

			db, err := database.NewSQLOnly(cfg)
			if err != nil {
				return log.Err("failed to open database", err)
			}
			defer db.Close()

			file, err := os.Open(args[0])
			if err != nil {
				return log.Err("failed to open spreadsheet", err, "file", args[0])
			}
			defer file.Close()

			importer := importController.New(repositories.NewContract(db), services.NewTransactionService(db))

			result, err := importer.ImportFile(cmd.Context(), SystemActor(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}

			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			return out.Encode(result)
		},
	}
}
