package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taylorhuo194-ai/Newspaper/internal/app"
	"github.com/taylorhuo194-ai/Newspaper/internal/config"
	"github.com/taylorhuo194-ai/Newspaper/internal/ledger"
	"github.com/taylorhuo194-ai/Newspaper/internal/notify"
	"github.com/taylorhuo194-ai/Newspaper/internal/settlement"
	"github.com/taylorhuo194-ai/Newspaper/internal/source"
	"github.com/taylorhuo194-ai/Newspaper/internal/state"
)

const defaultMarkerPath = "state/last_notified.json"

var (
	configPath string
	forceFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsboy",
	Short: "CLS telegraph archiver: business-day ledgers with daily mail settlement",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/newsboy.yaml", "path to the YAML config file")
	settleCmd.Flags().BoolVar(&forceFlag, "force", false, "bypass the settlement window check")
	rootCmd.AddCommand(runCmd, settleCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the latest telegraph batch, update the ledgers, then check settlement",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWiring()
		if err != nil {
			return err
		}
		return w.pipeline.Run(cmd.Context())
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Run only the settlement check for the previous business day",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWiring()
		if err != nil {
			return err
		}
		d, err := w.scheduler.Check(cmd.Context(), forceFlag || w.forceSettle)
		if err != nil {
			// Ledgers are already durable; report and exit clean.
			if errors.Is(err, notify.ErrNoCredentials) {
				w.log.Info().Msg("mail credentials not configured, delivery skipped")
			} else {
				w.log.Error().Err(err).Msg("delivery failed")
			}
			return nil
		}
		w.log.Info().
			Str("state", d.State.String()).
			Str("reason", d.Reason).
			Bool("sent", d.Sent).
			Msg("settlement check done")
		return nil
	},
}

type wiring struct {
	log         zerolog.Logger
	pipeline    *app.Pipeline
	scheduler   *settlement.Scheduler
	forceSettle bool
}

// newWiring loads config and assembles the concrete stages. Only a bad
// config is fatal; everything downstream degrades per stage.
func newWiring() (*wiring, error) {
	// Local development convenience; the scheduler environment sets real
	// variables and has no .env file.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("run_id", uuid.NewString()).Logger()

	cfg, err := config.LoadRoot(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("cannot load config")
		return nil, err
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		logger.Error().Err(err).Msg("cannot load env config")
		return nil, err
	}

	ledgers := ledger.NewFileStore(cfg.Ledger.Dir, cfg.Ledger.Prefix)
	mailer := notify.NewMailer(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort,
		envCfg.SMTPUser, envCfg.SMTPPassword, cfg.Notify.To)

	var marker settlement.MarkerStore
	if cfg.Settlement.OnceGuard {
		path := cfg.Settlement.MarkerPath
		if path == "" {
			path = defaultMarkerPath
		}
		marker = state.NewFileStore(path)
	}
	scheduler := settlement.NewScheduler(ledgers, mailer, marker, nil, logger)

	timeout := cfg.Source.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	fetcher := source.NewClient(cfg.Source.APIURL, cfg.Source.BatchSize,
		&http.Client{Timeout: time.Duration(timeout) * time.Second}, nil)

	pipeline := app.NewPipeline(app.PipelineDeps{
		Fetcher:     fetcher,
		Ledgers:     ledgers,
		Settler:     scheduler,
		Log:         logger,
		ForceSettle: envCfg.ForceSettle,
	})

	return &wiring{
		log:         logger,
		pipeline:    pipeline,
		scheduler:   scheduler,
		forceSettle: envCfg.ForceSettle,
	}, nil
}
