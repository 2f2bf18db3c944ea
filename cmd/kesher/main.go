package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	corecfg "github.com/kesher-crm/kesher/internal/core/config"
	"github.com/kesher-crm/kesher/internal/core/storage/postgres"
	"github.com/kesher-crm/kesher/internal/engine"
	"github.com/kesher-crm/kesher/internal/events"
	"github.com/kesher-crm/kesher/internal/migrations"
	"github.com/kesher-crm/kesher/internal/notifications"
	"github.com/kesher-crm/kesher/internal/notify"
	"github.com/kesher-crm/kesher/internal/server"
	"github.com/kesher-crm/kesher/internal/session"
)

func main() {
	configPath := flag.String("config", "kesher.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration (including notification templates)
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"port", cfg.Server.Port,
		"poll_interval", cfg.Engine.PollInterval,
		"late_tolerance", cfg.Engine.LateTolerance,
		"desktop", cfg.Engine.Desktop)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	notificationStore := postgres.NewNotificationsAdapter(dbAdapter.DB())

	// 3. Initialize Sessions and Presentation Channels
	sessions := session.NewManager()
	feed := notify.NewFeed(cfg.Engine.ToastFeedSize)
	sessions.Subscribe(notify.NewJanitor(feed))
	center := notify.NewCenter(notificationStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Initialize the Reminder Engine (one scheduler per login)
	supervisor := engine.NewSupervisor(ctx, engine.SupervisorOptions{
		Interval:      cfg.Engine.PollIntervalDuration(),
		LateTolerance: cfg.Engine.LateToleranceDuration(),
		ToastDuration: cfg.Engine.ToastDurationDuration(),
		Source:        dbAdapter,
		Marker:        dbAdapter,
		Templates:     cfg.TemplateSet,
		Channels: func(ownerID string) engine.ChannelSet {
			set := engine.ChannelSet{
				Toast:  feed.ForOwner(ownerID),
				Center: center,
			}
			if cfg.Engine.Desktop {
				// Fresh permission state per session.
				set.Desktop = notify.NewDesktop(nil, notify.LogSender{}, notify.PermissionGranted)
			}
			return set
		},
	})
	if cfg.Engine.Enabled {
		sessions.Subscribe(supervisor)
	} else {
		slog.Info("Reminder engine disabled by config")
	}

	// 5. Initialize API Services
	eventsSvc := events.NewService(dbAdapter, cfg.Engine.LateToleranceDuration())
	notificationsSvc := notifications.NewService(notificationStore, feed)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	session.RegisterRoutes(srv.Engine, sessions)

	authed := srv.Engine.Group("/", session.Middleware(sessions))
	eventsSvc.RegisterRoutes(authed)
	notificationsSvc.RegisterRoutes(authed)

	// 7. Run until a signal lands
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("Signal received, shutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	supervisor.StopAll()
	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
