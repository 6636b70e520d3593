package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/config"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/httpapi"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/logger"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/period"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/report"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/service"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/settings"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store/memory"
	pgstore "github.com/31triplefirstfood-stack/nailsandbrows/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err := validateSecurityConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid security configuration")
	}

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("postgres migration failed")
		}
		if err := seedAdmin(ctx, pg, cfg.Seed.AdminPassword, log); err != nil {
			log.WithError(err).Fatal("seed admin account")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded(memory.Options{
			AdminPassword: cfg.Seed.AdminPassword,
			StaffPassword: cfg.Seed.StaffPassword,
			Logger:        log,
		}, time.Now())
		log.Info("repository: in-memory demo data")
	}

	fallback := settings.Defaults()
	fallback.StoreName = cfg.Business.StoreName
	fallback.DailyTarget = cfg.Business.DailyTarget
	fallback.MonthlyTarget = cfg.Business.MonthlyTarget

	var settingsStore settings.Store = settings.NewStatic(fallback)
	if cfg.RedisAddr != "" {
		redisSettings := settings.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, fallback)
		if err := redisSettings.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unavailable, keeping business settings in memory")
			_ = redisSettings.Close()
		} else {
			settingsStore = redisSettings
			closers = append(closers, redisSettings.Close)
			log.Info("settings: redis")
		}
	} else {
		log.Info("settings: in-memory")
	}

	calendar := period.New(cfg.Report.BusinessUTCOffset, cfg.Report.BEYearThreshold)
	composer := report.NewComposer(calendar, report.Options{
		TopN:            cfg.Report.TopServicesLimit,
		UnassignedLabel: cfg.Report.UnassignedEmployeeLabel,
	})
	svc := service.New(repo, settingsStore, composer, service.Options{Logger: log})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo, log)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Address()).Info("report server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Error("close error")
		}
	}

	log.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.Report.BusinessUTCOffset <= -24*time.Hour || cfg.Report.BusinessUTCOffset >= 24*time.Hour {
		return fmt.Errorf("BUSINESS_UTC_OFFSET must be within one day")
	}
	return nil
}

// seedAdmin creates the first admin account on an empty database. Without
// SEED_ADMIN_PASSWORD nobody could log in, so that case is an error.
func seedAdmin(ctx context.Context, users store.UserRepository, password string, log logrus.FieldLogger) error {
	existing, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if len(password) < 6 {
		return fmt.Errorf("no user accounts exist and SEED_ADMIN_PASSWORD is unset or shorter than 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := users.CreateUser(ctx, domain.UserAccount{
		Username:  "admin",
		Password:  string(hash),
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	log.Info("seeded initial admin account")
	return nil
}
