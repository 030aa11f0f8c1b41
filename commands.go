package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"community-hub/config"
	"community-hub/handlers"
	"community-hub/middleware"
	"community-hub/services"
	"community-hub/utils"
	"community-hub/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "community-hub",
	Short:        "Member onboarding quest, daily loot and churn radar backend",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users, quest_progress and daily_loot tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := services.OpenDatabase(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := services.Migrate(db); err != nil {
			return err
		}
		log.Println("✅ Database migrated")
		return nil
	},
}

var syncMembersCmd = &cobra.Command{
	Use:   "sync-members",
	Short: "Pull changed profiles from the profile service once and exit",
	Long: `Pull changed profiles from the profile service once and exit.

Examples:
  community-hub sync-members
  PROFILE_SYNC_URL=http://localhost:8500 community-hub sync-members`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Sync.ProfileURL == "" {
			return fmt.Errorf("PROFILE_SYNC_URL is required for sync-members")
		}
		db, err := openAndMigrate(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		n, err := workers.NewMemberSyncWorker(db, cfg.Sync.ProfileURL, cfg.ServiceToken).SyncOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d member(s) upserted\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, syncMembersCmd)
}

func openAndMigrate(cfg config.Config) (*gorm.DB, error) {
	db, err := services.OpenDatabase(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := services.Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	utils.InitErrorReporting(cfg.RollbarToken, cfg.Env, version)
	defer utils.FlushErrorReports()

	db, err := openAndMigrate(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := services.NewGormStore(db)
	identities := services.NewIdentityProvider(store, clock, services.Identity{
		MemberID: cfg.Demo.ID,
		Name:     cfg.Demo.Name,
		Email:    cfg.Demo.Email,
	})
	sessions := services.NewSessionRegistry(store, identities, clock, cfg.Database.StoreTimeout)
	defer sessions.CloseAll()

	riskCache := services.NewRiskCache(services.StaticRiskSource{Data: services.DefaultRiskSnapshot})
	churn := services.NewChurnService(riskCache)

	var mailer services.Mailer = services.ConsoleMailer{}
	if cfg.Mail.SendgridKey != "" {
		mailer = services.NewSendgridMailer(cfg.Mail.SendgridKey, cfg.Mail.AppName, cfg.Mail.From)
	} else {
		log.Println("⚠️  SENDGRID_API_KEY not set, re-engagement mail goes to the log")
	}

	var uploader services.Uploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		uploader = r2
	} else {
		log.Println("⚠️  R2 not configured, churn report export disabled")
	}

	jobs := []services.ScheduledJob{services.SessionSweepJob(sessions, cfg.Session.IdleTTL)}
	if cfg.Sync.ProfileURL != "" {
		jobs = append(jobs, workers.NewMemberSyncWorker(db, cfg.Sync.ProfileURL, cfg.ServiceToken).Job(cfg.Sync.Interval))
	}
	if cfg.Sync.RiskURL != "" {
		jobs = append(jobs, workers.NewRiskFeedClient(cfg.Sync.RiskURL, cfg.ServiceToken, riskCache).Job(cfg.Sync.Interval))
	}
	sched, err := services.StartScheduler(ctx, clock, jobs...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown: %v", err)
		}
	}()

	app := newApp(cfg, sessions, handlers.AdminDeps{
		Churn:        churn,
		Reengage:     services.NewReengagementService(churn, mailer),
		Reports:      services.NewReportService(churn, uploader, clock),
		RequireAdmin: cfg.ServiceToken != "",
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%d", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.Origins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func newApp(cfg config.Config, sessions *services.SessionRegistry, admin handlers.AdminDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "community-hub " + version,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins, ","),
		AllowMethods:     "GET,POST,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: !slices.Contains(cfg.Origins, "*"), // fiber rejects credentials with a wildcard origin
		MaxAge:           86400,
	}))

	// liveness stays reachable without the gateway token
	handlers.SetupHealthRoutes(app, sessions)

	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	handlers.SetupQuestRoutes(app, sessions)
	handlers.SetupLootRoutes(app, sessions)
	handlers.SetupAdminRoutes(app, admin)
	return app
}
