package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"form-shield/internal/apilog"
	"form-shield/internal/audit"
	"form-shield/internal/auth"
	"form-shield/internal/cache"
	"form-shield/internal/config"
	"form-shield/internal/credentials"
	"form-shield/internal/duplicate"
	"form-shield/internal/housekeeping"
	"form-shield/internal/httpapi"
	"form-shield/internal/lists"
	"form-shield/internal/notify"
	"form-shield/internal/provider"
	"form-shield/internal/ratelimit"
	"form-shield/internal/rbac"
	"form-shield/internal/regional"
	"form-shield/internal/reporting"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/internal/validation"
)

type app struct {
	handlers     httpapi.Handlers
	housekeeping *housekeeping.Job
}

// buildApp wires services over Postgres and Redis. Nothing here holds
// business logic.
func buildApp(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client) (*app, error) {
	seed := settings.Defaults()
	if cfg.SettingsFile != "" {
		s, err := settings.LoadFile(cfg.SettingsFile)
		if err != nil {
			return nil, fmt.Errorf("settings file: %w", err)
		}
		seed = s
	}
	settingsRepo := settings.NewPostgresRepo(db)
	settingsSvc := settings.NewService(settingsRepo, seed)

	cipher, err := credentials.NewKeyStore(settingsRepo).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, err
	}
	var accounts auth.Accounts
	if cfg.Admin.User != "" {
		accounts = append(accounts, auth.Account{
			Username:     cfg.Admin.User,
			PasswordHash: cfg.Admin.PasswordHash,
			Role:         rbac.RoleAdmin,
		})
	}

	submissionRepo := submission.NewPostgresRepo(db)
	submissions := submission.NewService(submissionRepo)
	callRepo := apilog.NewPostgresRepo(db)
	calls := apilog.NewService(callRepo)
	listSvc := lists.NewService(lists.NewPostgresRepo(db))
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	reports := reporting.NewService(reporting.StoreRepo{Submissions: submissionRepo, Calls: callRepo})

	verdicts := cache.New(cache.NewRedisStore(rdb))
	registry := provider.NewRegistry(cipher, calls)
	abnKey := func(ctx context.Context) string {
		cur, err := settingsSvc.Current(ctx)
		if err != nil {
			return ""
		}
		key, _ := cipher.Resolve(cur.ABNAPIKey)
		return key
	}

	engine := validation.NewEngine(
		duplicate.NewDetector(duplicate.NewRedisCounter(rdb)),
		listSvc,
		regional.NewValidator(regional.NewHTTPClient(), abnKey),
		verdicts,
		registry,
	)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTPEnabled() {
		notifier = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:          cfg.SMTP.Host,
			Port:          cfg.SMTP.Port,
			User:          cfg.SMTP.User,
			Password:      cfg.SMTP.Password,
			From:          cfg.SMTP.From,
			SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
		})
	}

	return &app{
		handlers: httpapi.Handlers{
			Auth:        authManager,
			Accounts:    accounts,
			Screener:    validation.NewScreener(engine, settingsSvc, submissions, notifier, verdicts),
			Submissions: submissions,
			Lists:       listSvc,
			Settings:    settingsSvc,
			Reporting:   reports,
			Providers:   registry,
			Cache:       verdicts,
			Cipher:      cipher,
			Audit:       auditSvc,
		},
		housekeeping: &housekeeping.Job{
			Settings:    settingsSvc,
			Submissions: submissions,
			APILogs:     calls,
			Cache:       verdicts,
			Analytics:   reports,
			Notifier:    notifier,
		},
	}, nil
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, a *app, cfg config.Config) {
	a.handlers.Register(r, httpapi.RouteOptions{
		PublicAPIKey: cfg.Public.APIKey,
		Limiter:      ratelimit.PerMinute(cfg.Public.RatePerMinute),
	})
}
