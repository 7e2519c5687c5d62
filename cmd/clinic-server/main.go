package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicrecords/api/internal/config"
	"github.com/clinicrecords/api/internal/domain/account"
	"github.com/clinicrecords/api/internal/domain/clinical"
	"github.com/clinicrecords/api/internal/domain/identity"
	"github.com/clinicrecords/api/internal/domain/notification"
	"github.com/clinicrecords/api/internal/domain/scheduling"
	"github.com/clinicrecords/api/internal/platform/audit"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/db"
	"github.com/clinicrecords/api/internal/platform/middleware"
	"github.com/clinicrecords/api/internal/platform/policy"
	"github.com/clinicrecords/api/internal/platform/reporting"
	"github.com/clinicrecords/api/internal/platform/validate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

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

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.EmbeddedMigrations()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.EmbeddedMigrations()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(os.Stdout, statuses)
			return nil
		},
	})

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// userCmd bootstraps accounts from the shell. The first ADMIN has to come
// from here since the HTTP signup route is admin-only.
func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := createUserRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := validate.New().Validate(req); err != nil {
				return err
			}

			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := account.NewService(account.NewUserRepo(pool), nil, nil, cfg.BcryptCost)
			u, err := svc.CreateUser(ctx, req)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("Created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("role", string(auth.RoleAdmin), "ADMIN, PROFESSIONAL, PATIENT or CAREGIVER")
	createCmd.Flags().Int64("patient-id", 0, "Linked patient record (PATIENT role only)")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	cmd.AddCommand(createCmd)
	return cmd
}

func createUserRequestFromFlags(cmd *cobra.Command) (account.CreateUserRequest, error) {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")
	patientID, _ := cmd.Flags().GetInt64("patient-id")

	if name == "" {
		name = email
	}
	req := account.CreateUserRequest{Name: name, Email: email, Password: password, Role: role}
	if patientID != 0 {
		if patientID < 0 {
			return req, fmt.Errorf("--patient-id must be positive, got %d", patientID)
		}
		req.PatientID = &patientID
	}
	return req, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
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

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Validator = validate.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))

	// Health
	e.GET("/health", db.LivenessHandler)
	e.GET("/health/db", db.HealthHandler(pool))

	// Audit trail
	auditStore := audit.NewStore(pool)
	sink := audit.NewSink(auditStore, cfg.AuditQueueSize, logger)

	// Sessions
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTExpiresIn)
	revocations := auth.NewTokenRevocationStore(cfg.JWTExpiresIn, time.Minute)
	defer revocations.Close()

	// Repositories
	userRepo := account.NewUserRepo(pool)
	patientRepo := identity.NewPatientRepo(pool)
	linkRepo := identity.NewCaregiverLinkRepo(pool)
	apptRepo := scheduling.NewAppointmentRepo(pool)
	noteRepo := clinical.NewNoteRepo(pool)
	rxRepo := clinical.NewPrescriptionRepo(pool)
	notifRepo := notification.NewRepo(pool)

	// Services
	engine := policy.NewEngine(linkRepo.Exists, logger)
	accountSvc := account.NewService(userRepo, tokens, revocations, cfg.BcryptCost)
	identitySvc := identity.NewService(patientRepo, linkRepo, engine)
	schedulingSvc := scheduling.NewService(apptRepo, db.NewTransactor(pool), engine)
	clinicalSvc := clinical.NewService(noteRepo, rxRepo, apptRepo, engine)
	notificationSvc := notification.NewService(notifRepo, engine)

	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		Tokens:      tokens,
		Revocations: revocations,
		Sessions:    accountSvc,
		Skipper:     auth.AuthSkipper,
	}))

	account.NewHandler(accountSvc, sink).RegisterRoutes(api)
	identity.NewHandler(identitySvc, sink).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc, sink).RegisterRoutes(api)
	clinical.NewHandler(clinicalSvc, sink).RegisterRoutes(api)
	notification.NewHandler(notificationSvc, sink).RegisterRoutes(api)
	reporting.NewHandler(schedulingSvc, engine, sink).RegisterRoutes(api)
	audit.NewHandler(auditStore).RegisterRoutes(api)

	// Graceful shutdown
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
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := sink.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Int64("dropped", sink.Dropped()).Msg("audit sink did not drain")
	}
	logger.Info().Msg("server stopped")
	return nil
}
