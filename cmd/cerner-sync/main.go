package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chargecap/cernersync/internal/config"
	"github.com/chargecap/cernersync/internal/domain/admin"
	"github.com/chargecap/cernersync/internal/domain/admission"
	"github.com/chargecap/cernersync/internal/domain/identity"
	"github.com/chargecap/cernersync/internal/domain/scheduling"
	"github.com/chargecap/cernersync/internal/integration/cerner"
	"github.com/chargecap/cernersync/internal/platform/db"
)

const httpClientTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "cerner-sync",
		Short: "Cerner FHIR appointment sync service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass over every synced location and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			stack := buildStack(pool, cfg, logger)
			report, err := stack.orch.Sync(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if report.Outcome == cerner.OutcomeNone && len(report.Locations) > 0 {
				return fmt.Errorf("sync failed for every location")
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// stack holds the wired services the commands share.
type stack struct {
	orch    *cerner.Orchestrator
	handler *cerner.Handler
}

func buildStack(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *stack {
	accountRepo := admin.NewAccountRepoPG(pool)
	locationRepo := admin.NewLocationRepoPG(pool)
	stateRepo := admin.NewStateRepoPG(pool)
	directory := admin.NewService(accountRepo, locationRepo, stateRepo)

	patientRepo := identity.NewPatientRepoPG(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	assistantRepo := identity.NewAssistantRepoPG(pool)
	userRepo := identity.NewSystemUserRepoPG(pool)
	identitySvc := identity.NewService(patientRepo, doctorRepo, assistantRepo, userRepo)

	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	scheduler := scheduling.NewService(apptRepo)

	admissionRepo := admission.NewAdmissionRepoPG(pool)
	assignmentRepo := admission.NewAssignmentRepoPG(pool)
	stays := admission.NewService(admissionRepo, assignmentRepo)

	stagingApptRepo := cerner.NewStagingAppointmentRepoPG(pool)
	stagingPatientRepo := cerner.NewStagingPatientRepoPG(pool)
	endpointRepo := cerner.NewEndpointRepoPG(pool)

	staging := cerner.NewStagingService(stagingApptRepo, stagingPatientRepo)
	tokens := cerner.NewLoginService(endpointRepo, httpClientTimeout, logger)
	client := cerner.NewClient(httpClientTimeout)
	fetcher := cerner.NewFetcher(client, tokens, endpointRepo, cfg.BackfillDays, cfg.FetchPageSize, logger)

	apptReconciler := cerner.NewAppointmentReconciler(staging, patientRepo, doctorRepo, locationRepo, scheduler, logger)
	patientReconciler := cerner.NewPatientReconciler(pool, staging, stagingPatientRepo, stagingApptRepo,
		patientRepo, doctorRepo, assistantRepo, userRepo, stateRepo, locationRepo,
		stays, apptReconciler, logger)

	orch := cerner.NewOrchestrator(pool, directory, fetcher, staging, apptReconciler, logger)
	search := cerner.NewSearchService(pool, stagingApptRepo, stagingPatientRepo, identitySvc,
		doctorRepo, assistantRepo, userRepo, patientReconciler, logger)

	return &stack{
		orch:    orch,
		handler: cerner.NewHandler(orch, search),
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s := buildStack(pool, cfg, logger)
	apiV1 := e.Group("/api/v1")
	s.handler.RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
