package main

import (
	"context"
	"time"

	"accountsvc/internal/config"
	"accountsvc/internal/database"
	"accountsvc/internal/domain"
	"accountsvc/internal/middleware"
	"accountsvc/internal/modules/account"
	"accountsvc/internal/modules/session"
	"accountsvc/internal/pkg/logger"
	"accountsvc/internal/pkg/mailer"
	"accountsvc/internal/pkg/signer"
	"accountsvc/internal/pkg/token"
	"accountsvc/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RevocationEntry{}); err != nil {
		log.WithError(err).Fatal("db migration failed")
	}

	userRepo := repository.NewUserRepository(db)
	revocationRepo := repository.NewRevocationRepository(db)

	codec := token.New(cfg.JWTSecret)
	verifySigner := signer.New(cfg.JWTSecret, cfg.VerificationSalt)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		mail = mailer.NewConsole(log)
	}

	sessionService := session.NewService(userRepo, revocationRepo, codec, cfg.AccessTTL, cfg.RefreshTTL, log)
	sessionHandler := session.NewHandler(sessionService)

	accountService := account.NewService(userRepo, mail, verifySigner, cfg.VerificationTTL, cfg.SiteURL, log)
	accountHandler := account.NewHandler(accountService)

	// Periodic sweep of revocation entries whose tokens have expired on
	// their own. Runs with no coordination against request traffic.
	c := cron.New()
	if _, err := c.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		deleted, sweepErr := revocationRepo.SweepExpired(context.Background(), time.Now())
		if sweepErr != nil {
			log.WithError(sweepErr).Error("scheduled revocation sweep failed")
			return
		}
		if deleted > 0 {
			log.WithField("deleted", deleted).Info("revocation sweep completed")
		}
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule revocation sweep")
	}
	c.Start()
	defer c.Stop()

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Authenticate(codec, revocationRepo, log))

	v1 := r.Group("/api/v1")
	{
		sessionHandler.RegisterPublicRoutes(v1)
		accountHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth())
		{
			sessionHandler.RegisterProtectedRoutes(protected)
			accountHandler.RegisterProtectedRoutes(protected)
		}
	}

	log.WithField("addr", cfg.HTTPAddr).Info("starting api server")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
