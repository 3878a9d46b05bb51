package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/config"
	"github.com/dimitrije/pluginhub-api/internal/connector"
	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/handlers"
	"github.com/dimitrije/pluginhub-api/internal/lock"
	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	authmw "github.com/dimitrije/pluginhub-api/internal/middleware"
	"github.com/dimitrije/pluginhub-api/internal/scheduler"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "pluginhub-api",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
		WarnStack:   cfg.Log.WarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	locker, closeLocker := newLocker(ctx, cfg.Redis, logg)
	defer closeLocker()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	jobMetrics := metrics.NewJobMetrics(registry)
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	siteConnector := connector.New(connector.WithTimeout(cfg.Connector.Timeout))

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	activityService := services.NewActivityService(db)
	userService := services.NewUserService(db, activityService)
	teamService := services.NewTeamService(db, activityService, reconcileMetrics)
	siteService := services.NewSiteService(db, activityService)
	pluginService := services.NewPluginService(db, activityService)
	ownershipService := services.NewOwnershipService(db, activityService)
	installService := services.NewInstallService(siteService, pluginService, activityService, siteConnector,
		cfg.Connector.InstallConcurrency, reconcileMetrics)
	syncService := services.NewSyncService(siteService, pluginService, teamService, siteConnector, cfg.Connector.InstallConcurrency)
	orphanService := services.NewOrphanService(db, siteService, pluginService, ownershipService, activityService,
		locker, cfg.Scheduler.LockTTL, reconcileMetrics)
	messageService := services.NewMessageService(db, userService, teamService, reconcileMetrics)
	notificationService := services.NewNotificationService(db)
	projectService := services.NewProjectService(db, activityService)
	emailService := services.NewEmailService(cfg.SMTP)

	hub := sse.NewHub()
	go hub.Run(ctx)

	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService, emailService, logg, cfg.BaseURL)
	inviteHandler := handlers.NewInviteHandler(teamService)
	siteHandler := handlers.NewSiteHandler(siteService, teamService, ownershipService, syncService)
	pluginHandler := handlers.NewPluginHandler(pluginService, siteService, teamService, ownershipService, installService)
	messageHandler := handlers.NewMessageHandler(messageService, teamService, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	activityHandler := handlers.NewActivityHandler(activityService)
	projectHandler := handlers.NewProjectHandler(projectService, teamService)
	adminHandler := handlers.NewAdminHandler(orphanService, syncService)
	eventsHandler := handlers.NewEventsHandler(hub, messageService, notificationService, teamService,
		cfg.Scheduler.UnreadPollInterval)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.RequestIDHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(logg))

	api := app.Group("/api/v1")
	api.Get("/health", handlers.Health)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(authmw.LoadUser(userService))

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Get("/teams", teamHandler.List)
	protected.Post("/teams", teamHandler.Create)
	protected.Get("/teams/:id", teamHandler.Get)
	protected.Patch("/teams/:id", teamHandler.Update)
	protected.Delete("/teams/:id", teamHandler.Delete)
	protected.Get("/teams/:id/members", teamHandler.GetMembers)
	protected.Delete("/teams/:id/members/:memberId", teamHandler.RemoveMember)
	protected.Post("/teams/:id/leave", teamHandler.Leave)
	protected.Post("/teams/:id/invites", teamHandler.Invite)
	protected.Get("/teams/:id/invites", teamHandler.GetTeamInvites)
	protected.Delete("/teams/:id/invites/:inviteId", teamHandler.CancelInvite)

	protected.Get("/invites", inviteHandler.List)
	protected.Post("/invites/:inviteId/accept", inviteHandler.Accept)
	protected.Post("/invites/:inviteId/decline", inviteHandler.Decline)

	protected.Get("/sites", siteHandler.List)
	protected.Post("/sites", siteHandler.Create)
	protected.Get("/sites/:id", siteHandler.Get)
	protected.Patch("/sites/:id", siteHandler.Update)
	protected.Delete("/sites/:id", siteHandler.Delete)
	protected.Post("/sites/:id/test-connection", siteHandler.TestConnection)
	protected.Post("/sites/:id/transfer", siteHandler.Transfer)

	protected.Get("/plugins", pluginHandler.List)
	protected.Post("/plugins", pluginHandler.Create)
	protected.Get("/plugins/:id", pluginHandler.Get)
	protected.Delete("/plugins/:id", pluginHandler.Delete)
	protected.Post("/plugins/:id/versions", pluginHandler.AddVersion)
	protected.Post("/plugins/:id/install", pluginHandler.Install)
	protected.Post("/plugins/:id/sites/:siteId/toggle", pluginHandler.Toggle)
	protected.Delete("/plugins/:id/sites/:siteId", pluginHandler.Uninstall)
	protected.Post("/plugins/:id/transfer", pluginHandler.Transfer)

	protected.Get("/messages", messageHandler.List)
	protected.Post("/messages", messageHandler.Send)
	protected.Get("/messages/unread-count", messageHandler.UnreadCount)
	protected.Get("/messages/:id", messageHandler.Get)
	protected.Post("/messages/:id/read", messageHandler.MarkRead)
	protected.Post("/messages/:id/replies", messageHandler.Reply)

	protected.Get("/notifications", notificationHandler.List)
	protected.Post("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	protected.Get("/activity", activityHandler.Mine)

	protected.Get("/project-templates", projectHandler.ListTemplates)
	protected.Post("/project-templates", projectHandler.CreateTemplate)
	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Delete("/projects/:id", projectHandler.Delete)

	protected.Get("/events", eventsHandler.Stream)

	admin := protected.Group("/admin")
	admin.Use(authmw.RequireAdmin())

	admin.Get("/users", userHandler.List)
	admin.Patch("/users/:id", userHandler.AdminUpdate)
	admin.Delete("/users/:id", userHandler.Delete)
	admin.Post("/teams/:id/block", teamHandler.Block)
	admin.Post("/teams/:id/unblock", teamHandler.Unblock)
	admin.Get("/activity", activityHandler.Recent)
	admin.Get("/orphans", adminHandler.Orphans)
	admin.Post("/orphans/delete", adminHandler.DeleteOrphans)
	admin.Post("/orphans/transfer", adminHandler.TransferOrphans)
	admin.Post("/orphans/versions/clean", adminHandler.CleanVersions)
	admin.Post("/sync", adminHandler.Sync)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(locker, cfg.Scheduler.LockTTL, jobMetrics, logg)
		if err := sched.RegisterDefaults(cfg.Scheduler, orphanService, syncService); err != nil {
			logg.Error(ctx, "failed to register scheduled jobs", err)
			os.Exit(1)
		}
		sched.Start()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.MetricsPort),
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go serve(ctx, logg, "api", server, stop)
	go serve(ctx, logg, "metrics", metricsServer, stop)

	<-ctx.Done()
	logg.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "api server shutdown failed", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "metrics server shutdown failed", err)
	}
}

func serve(ctx context.Context, logg *logger.Logger, name string, server *http.Server, stop context.CancelFunc) {
	logg.Info(logg.WithFields(ctx, map[string]any{"server": name, "addr": server.Addr}), "server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, name+" server failed", err)
		stop()
	}
}

// newLocker prefers Redis so that scheduled jobs and cleanups are exclusive
// across replicas. Without Redis the lock only covers this process.
func newLocker(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (lock.Locker, func()) {
	if cfg.URL == "" {
		logg.Warn(ctx, "redis not configured, using in-process locks")
		return lock.NewLocalLocker(), func() {}
	}
	client, err := lock.NewClient(ctx, cfg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, using in-process locks")
		return lock.NewLocalLocker(), func() {}
	}
	locker, err := lock.NewRedisLocker(client)
	if err != nil {
		_ = client.Close()
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis locker unavailable, using in-process locks")
		return lock.NewLocalLocker(), func() {}
	}
	return locker, func() { _ = client.Close() }
}
