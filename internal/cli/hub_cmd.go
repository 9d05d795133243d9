package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/soyeahso/medbridge/internal/config"
	"github.com/soyeahso/medbridge/internal/gateway"
	"github.com/soyeahso/medbridge/internal/relay"
	"github.com/soyeahso/medbridge/internal/session"
	"github.com/soyeahso/medbridge/internal/store"
	"github.com/soyeahso/medbridge/internal/translate"
	"github.com/spf13/cobra"
)

func newHubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Manage the medbridge hub server",
	}

	cmd.AddCommand(newHubRunCmd())
	return cmd
}

func newHubRunCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the hub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Hub.Port = port
			}
			if bind != "" {
				cfg.Hub.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// Translator: primary endpoint plus fallbacks, each bounded by
			// the configured per-attempt timeout.
			backends := []translate.Client{
				translate.NewHTTPClient(cfg.Translator.Endpoint, cfg.Translator.APIKey),
			}
			for _, ep := range cfg.Translator.FallbackEndpoints {
				backends = append(backends, translate.NewHTTPClient(ep, cfg.Translator.APIKey))
			}
			translator := translate.NewChain(backends, time.Duration(cfg.Translator.TimeoutMs)*time.Millisecond, log)

			// Transcript archive (best-effort durability side effect).
			var archive store.Archive
			switch cfg.Store.Backend {
			case "sqlite":
				dbPath := cfg.Store.Path
				if dbPath == "" {
					if err := paths.EnsureDirs(); err != nil {
						return err
					}
					dbPath = filepath.Join(paths.Data, "medbridge.db")
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				archive = store.NewSQLiteArchive(db)
				log.Info().Str("path", dbPath).Msg("using SQLite transcript archive")
			case "memory":
				archive = store.NewMemoryArchive()
				log.Info().Msg("using in-memory transcript archive")
			default:
				log.Info().Msg("transcript archive disabled")
			}

			registry := session.NewRegistry(cfg.Languages.Doctor, cfg.Languages.Patient, log)
			hub := relay.New(registry, translator, archive, log)

			srv := gateway.New(cfg, hub, log, gateway.WithArchive(archive))

			log.Info().
				Str("doctorLang", cfg.Languages.Doctor).
				Str("patientLang", cfg.Languages.Patient).
				Msg("role language table loaded")

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override hub port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
