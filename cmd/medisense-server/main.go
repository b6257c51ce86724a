package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medisense/medisense/internal/config"
	"github.com/medisense/medisense/internal/domain/account"
	"github.com/medisense/medisense/internal/domain/admin"
	"github.com/medisense/medisense/internal/domain/patient"
	"github.com/medisense/medisense/internal/domain/prediction"
	"github.com/medisense/medisense/internal/platform/analytics"
	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/internal/platform/db"
	"github.com/medisense/medisense/internal/platform/httperr"
	"github.com/medisense/medisense/internal/platform/middleware"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medisense-server",
		Short: "Disease prediction API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")

			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

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

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			users := account.NewUserRepoPG(pool)
			u := &account.User{
				FirstName:    firstName,
				LastName:     lastName,
				Email:        email,
				PasswordHash: hash,
				Role:         auth.RoleAdmin,
				IsActive:     true,
			}
			if err := users.Create(ctx, u); err != nil {
				if errors.Is(err, account.ErrDuplicateEmail) {
					return fmt.Errorf("a user with email %s already exists", email)
				}
				return err
			}

			fmt.Printf("Admin account created: %s (%s)\n", email, u.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Admin email address")
	cmd.Flags().String("password", "", "Admin password")
	cmd.Flags().String("first-name", "Admin", "Admin first name")
	cmd.Flags().String("last-name", "User", "Admin last name")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Prediction engine. The default model artifact is compiled in; an
	// on-disk artifact can replace it for model updates without a rebuild.
	var engine *prediction.ModelEngine
	if cfg.ModelPath != "" {
		data, err := os.ReadFile(cfg.ModelPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("failed to read model artifact")
		}
		engine, err = prediction.NewModelEngineFromBytes(data)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("failed to load model artifact")
		}
	} else {
		engine, err = prediction.NewModelEngine()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load embedded model artifact")
		}
	}
	info := engine.Info()
	logger.Info().
		Str("model", info.Type).
		Str("version", info.Version).
		Int("symptoms", info.TotalSymptoms).
		Int("diseases", info.TotalDiseases).
		Msg("prediction engine loaded")

	// Repositories
	userRepo := account.NewUserRepoPG(pool)
	resetRepo := account.NewResetTokenRepoPG(pool)
	recordRepo := prediction.NewRecordRepoPG(pool)
	statsRepo := patient.NewStatsRepoPG(pool)
	adminRepo := admin.NewRepoPG(pool)

	// Services
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	accountSvc := account.NewService(userRepo, resetRepo, issuer, cfg.DemoLoginEnabled, logger)
	predictionSvc := prediction.NewService(engine, engine.Vocabulary(), engine.Catalog(),
		engine.Info(), recordRepo, cfg.EngineTimeout())
	patientSvc := patient.NewService(statsRepo, recordRepo, userRepo)
	adminSvc := admin.NewService(adminRepo, userRepo, logger)

	tracker := analytics.NewUsageTracker(10000)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.Handler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(analytics.UsageMiddleware(tracker))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	requireAuth := auth.BearerAuth(issuer, accountSvc)
	optionalAuth := auth.OptionalBearerAuth(issuer, accountSvc)

	// Health checks
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/api/health/db", db.HealthHandler(pool))

	// Route groups
	authGroup := e.Group("/api/auth", middleware.RateLimit(rateLimitCfg))
	account.NewHandler(accountSvc, cfg.IsDev()).RegisterRoutes(authGroup, requireAuth)

	mlGroup := e.Group("/api/ml", middleware.RateLimit(rateLimitCfg))
	prediction.NewHandler(predictionSvc).RegisterRoutes(mlGroup, optionalAuth, requireAuth)

	patientGroup := e.Group("/api/patient", middleware.RateLimit(rateLimitCfg),
		requireAuth, auth.RequireRole(auth.RolePatient, auth.RoleDoctor, auth.RoleAdmin))
	patient.NewHandler(patientSvc).RegisterRoutes(patientGroup)

	adminGroup := e.Group("/api/admin", middleware.RateLimit(rateLimitCfg),
		requireAuth, auth.RequireRole(auth.RoleAdmin))
	admin.NewHandler(adminSvc).RegisterRoutes(adminGroup)
	analytics.NewUsageHandler(tracker).RegisterRoutes(adminGroup)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
