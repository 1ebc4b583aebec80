package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callaback/callaback-dashboard/internal/audit"
	"github.com/callaback/callaback-dashboard/internal/auth"
	"github.com/callaback/callaback-dashboard/internal/config"
	"github.com/callaback/callaback-dashboard/internal/contact"
	"github.com/callaback/callaback-dashboard/internal/httpapi"
	"github.com/callaback/callaback-dashboard/internal/interaction"
	"github.com/callaback/callaback-dashboard/internal/lead"
	"github.com/callaback/callaback-dashboard/internal/messaging"
	"github.com/callaback/callaback-dashboard/internal/reporting"
	"github.com/callaback/callaback-dashboard/internal/tenant"
	"github.com/callaback/callaback-dashboard/internal/webhook"
	"github.com/callaback/callaback-dashboard/pkg/logger"
	"github.com/callaback/callaback-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Repositories and services.
	tenants := tenant.NewService(tenant.NewPGRepository(db))
	interactions := interaction.NewPGRepository(db)
	contacts := contact.NewPGRepository(db)
	leadRepo := lead.NewPGRepository(db)
	leads := lead.NewService(leadRepo)
	auditTrail := audit.NewService(audit.NewPGRepository(db))
	summary := reporting.NewService(reporting.Stores{
		Interactions: interactions,
		Leads:        leadRepo,
	})
	sender := messaging.NewTwilioSender(cfg.Twilio)

	webhooks := &webhook.Handler{
		Tenants:      tenants,
		Interactions: interactions,
		Contacts:     contacts,
		Leads:        leads,
		Sender:       sender,
		Guard:        webhook.NewRedisEventGuard(rdb),
		Callbacks: webhook.CallbackURLs{
			CallCompleted: cfg.CallbackURL("/webhooks/twilio/voice/completed"),
			SMSStatus:     cfg.CallbackURL("/webhooks/twilio/sms/status"),
			Voicemail:     cfg.CallbackURL("/webhooks/twilio/voice/voicemail"),
		},
	}

	api := httpapi.Handlers{
		Auth: authManager,
		Credentials: httpapi.Credentials{
			Username: cfg.Auth.AdminUser,
			Password: cfg.Auth.AdminPassword,
		},
		Clients:           tenants,
		Contacts:          contacts,
		Leads:             leads,
		Interactions:      interactions,
		Summary:           summary,
		Audit:             auditTrail,
		Sender:            sender,
		DefaultFrom:       cfg.Twilio.DefaultFromNumber,
		SMSStatusCallback: cfg.CallbackURL("/webhooks/twilio/sms/status"),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, db, webhooks, api, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
