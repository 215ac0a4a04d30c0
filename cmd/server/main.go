package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/givebridge/givebridge/internal/api"
	"github.com/givebridge/givebridge/internal/audit"
	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/config"
	"github.com/givebridge/givebridge/internal/mailer"
	"github.com/givebridge/givebridge/internal/pkg/logger"
	"github.com/givebridge/givebridge/internal/repository/postgres"
	"github.com/givebridge/givebridge/internal/service/analytics"
	"github.com/givebridge/givebridge/internal/service/contact"
	"github.com/givebridge/givebridge/internal/service/donation"
	"github.com/givebridge/givebridge/internal/service/emailevent"
	"github.com/givebridge/givebridge/internal/service/linktoken"
	"github.com/givebridge/givebridge/internal/service/outreach"
	"github.com/givebridge/givebridge/internal/tracking"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("load config", "error", err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err.Error())
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime())

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("ping database", "error", err.Error())
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	provider, err := mailer.New(context.Background(), cfg.Mailer)
	if err != nil {
		logger.Error("init mailer", "error", err.Error())
		os.Exit(1)
	}
	renderer := mailer.NewRenderer()

	links := tracking.Links{
		BaseURL:     cfg.Tracking.BaseURL,
		FrontendURL: cfg.Server.FrontendURL,
	}
	publisher := tracking.NewPublisher(rdb, cfg.Tracking.QueueKey)

	campaignRepo := postgres.NewCampaignRepo(db)
	linkTokenRepo := postgres.NewLinkTokenRepo(db)
	eventRepo := postgres.NewEmailEventRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	outreachRepo := postgres.NewOutreachRepo(db)
	donationRepo := postgres.NewDonationRepo(db)
	analyticsRepo := postgres.NewAnalyticsRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	tokenSvc := linktoken.NewService(linkTokenRepo)
	eventSvc := emailevent.NewService(eventRepo)
	contactSvc := contact.NewService(contactRepo)
	outreachSvc := outreach.NewService(
		outreachRepo, campaignRepo, contactSvc, tokenSvc, eventSvc,
		provider, renderer, links, publisher, cfg.Mailer.FromName)
	donationSvc := donation.NewService(donationRepo, tokenSvc, outreachRepo, publisher)
	analyticsSvc := analytics.NewService(analyticsRepo, campaignRepo, eventSvc, donationSvc)
	auditRec := audit.NewRecorder(auditRepo)

	trackingHandler := tracking.NewHandler(
		tokenSvc, eventSvc, contactSvc, outreachRepo, campaignRepo,
		publisher, links, cfg.Tracking.FallbackURL)

	var authManager *auth.Manager
	if cfg.Auth.Enabled {
		authManager = auth.NewManager(postgres.NewAPITokenRepo(db), cfg.Auth.CacheTTL())
	} else {
		logger.Warn("auth disabled; /api/v1 is open")
	}

	handlers := api.NewHandlers(
		tokenSvc, eventSvc, contactSvc, outreachSvc, donationSvc, analyticsSvc,
		auditRec, links, db, rdb)
	router := api.SetupRoutes(handlers, trackingHandler, authManager, []string{cfg.Server.FrontendURL})
	server := api.NewServer(router)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(cfg.Server.Addr()); err != nil {
			logger.Error("server stopped", "error", err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
}
