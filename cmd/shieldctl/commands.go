package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"form-shield/internal/apilog"
	"form-shield/internal/auth"
	"form-shield/internal/config"
	"form-shield/internal/credentials"
	"form-shield/internal/provider"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/migrations"
	"form-shield/pkg/logger"
	"form-shield/pkg/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shieldctl",
		Short:         "Operate a form-shield deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newCleanupCmd(),
		newSetCredentialCmd(),
		newTestProviderCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// env is what database-backed commands share.
type env struct {
	cfg config.Config
	db  *sql.DB
	log *slog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.App.Env)
	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, log: log}, nil
}

func (e *env) settings() (*settings.Service, *settings.PostgresRepo) {
	repo := settings.NewPostgresRepo(e.db)
	seed := settings.Defaults()
	if e.cfg.SettingsFile != "" {
		if s, err := settings.LoadFile(e.cfg.SettingsFile); err == nil {
			seed = s
		} else {
			e.log.Warn("settings file ignored", "path", e.cfg.SettingsFile, "err", err)
		}
	}
	return settings.NewService(repo, seed), repo
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := utils.MigrateUp(migrations.FS, cfg.PostgresURL()); err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), cfg)
		},
	}
	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := utils.MigrateDown(migrations.FS, cfg.PostgresURL(), steps); err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), cfg)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(up, down)
	return cmd
}

func loadConfig() (config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func printVersion(w io.Writer, cfg config.Config) error {
	v, dirty, err := utils.MigrationVersion(migrations.FS, cfg.PostgresURL())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema version %d (dirty=%t)\n", v, dirty)
	return nil
}

func newCleanupCmd() *cobra.Command {
	var days, logDays int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete submissions and API logs past retention",
		Long:  "Delete submissions and API logs older than the given number of days. Flags default to the stored retention settings; 0 skips that table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()

			svc, _ := e.settings()
			cur, err := svc.Current(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = cur.RetentionDays
			}
			if !cmd.Flags().Changed("log-days") {
				logDays = cur.APILogRetentionDays
			}

			subs, err := submission.NewService(submission.NewPostgresRepo(e.db)).Cleanup(ctx, days)
			if err != nil {
				return err
			}
			logs, err := apilog.NewService(apilog.NewPostgresRepo(e.db)).Cleanup(ctx, logDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d submissions, %d api logs\n", subs, logs)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "submission retention in days")
	cmd.Flags().IntVar(&logDays, "log-days", 0, "API log retention in days")
	return cmd
}

func newSetCredentialCmd() *cobra.Command {
	var name, key string
	var enable bool
	cmd := &cobra.Command{
		Use:   "set-credential",
		Short: "Encrypt and store a provider API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()

			svc, repo := e.settings()
			cipher, err := credentials.NewKeyStore(repo).Open(ctx)
			if err != nil {
				return err
			}
			if err := setCredential(ctx, svc, cipher, name, key, enable); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored key for %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "provider", "", "provider name (openai, claude, gemini, abn)")
	cmd.Flags().StringVar(&key, "key", "", "API key")
	cmd.Flags().BoolVar(&enable, "enable", false, "also enable the provider")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// setCredential encrypts key into settings. The name "abn" targets the
// business register key.
func setCredential(ctx context.Context, svc *settings.Service, cipher *credentials.Cipher, name, key string, enable bool) error {
	if key == "" {
		return errors.New("key must not be empty")
	}
	sealed, err := cipher.Encrypt(key)
	if err != nil {
		return err
	}
	_, err = svc.Update(ctx, func(s *settings.Settings) error {
		if name == "abn" {
			s.ABNAPIKey = sealed
			return nil
		}
		switch name {
		case provider.NameOpenAI, provider.NameClaude, provider.NameGemini:
		default:
			return fmt.Errorf("%w: %s", provider.ErrUnknownProvider, name)
		}
		p := s.Providers[name]
		p.APIKey = sealed
		if enable {
			p.Enabled = true
		}
		s.Providers[name] = p
		return nil
	})
	return err
}

func newTestProviderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-provider <name>",
		Short: "Check connectivity to a configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()

			svc, repo := e.settings()
			cipher, err := credentials.NewKeyStore(repo).Open(ctx)
			if err != nil {
				return err
			}
			cur, err := svc.Current(ctx)
			if err != nil {
				return err
			}
			reg := provider.NewRegistry(cipher, apilog.NewService(apilog.NewPostgresRepo(e.db)))
			p, err := reg.Build(args[0], cur.Providers)
			if err != nil {
				return err
			}

			tctx, cancel := context.WithTimeout(ctx, provider.TestTimeout)
			defer cancel()
			start := time.Now()
			if err := p.TestConnection(tctx); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok (model %s, %s)\n", p.Name(), p.CurrentModel(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
