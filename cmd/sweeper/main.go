package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profitsweeper/config"
	"profitsweeper/internal/ledger"
	"profitsweeper/internal/scheduler"
	"profitsweeper/internal/sweep"
	"profitsweeper/logger"
	"profitsweeper/pkg/bybit"
	"profitsweeper/pkg/httpserver"
	"profitsweeper/pkg/storage/postgres"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configDir  string
	percentage float64
	once       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "sweeper",
		Short: "Move a share of realized Bybit profit to the funding account every hour",
		Long: `sweeper queries Bybit for closed P&L over the trailing hour, transfers the
given percentage of that profit from the UNIFIED account to the FUND account,
and appends every observed trade and every acknowledged transfer to CSV logs.

It runs one cycle at startup and then one per interval until terminated.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.percentage, "percentage", "p", 20, "Percentage of profit to transfer (e.g., 20 for 20%)")
	cmd.Flags().StringVar(&opts.configDir, "config", "", "Directory holding config.yaml")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single cycle and exit")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	// .env is optional; real environment variables still apply
	_ = godotenv.Load()

	// viper config
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("percentage") {
		cfg.Sweep.Percentage = opts.percentage
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := config.LoadCredentials(ctx, cfg.Credentials)
	if err != nil {
		log.Error("failed to load credentials", zap.Error(err))
		return err
	}

	book, err := ledger.Open(cfg.Files.TradeLog, cfg.Files.TransferLog)
	if err != nil {
		log.Error("failed to open ledgers", zap.Error(err))
		return err
	}
	if n, err := book.Transfers.Count(); err == nil {
		log.Info("ledgers ready",
			zap.String("trade_log", book.Trades.Path()),
			zap.String("transfer_log", book.Transfers.Path()),
			zap.Int("transfers_recorded", n),
		)
	}

	var recorder ledger.Recorder = book
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, true)
		if err != nil {
			log.Error("failed to initialize postgres mirror", zap.Error(err))
			return err
		}
		defer pg.Close()
		recorder = &ledger.Mirror{Primary: book, Secondary: pg, Logger: log}
	}

	client := bybit.NewRESTClient(cfg.Bybit.REST.BaseURL, creds.APIKey, creds.APISecret,
		cfg.Bybit.REST.Timeout, cfg.Bybit.REST.RecvWindow)

	cycle := &sweep.Cycle{
		Window: &sweep.WindowTracker{
			Source:   book,
			Lookback: cfg.Sweep.Lookback,
			Logger:   log,
		},
		Aggregator: &sweep.Aggregator{
			Venue:    client,
			Trades:   recorder,
			Category: bybit.Category(cfg.Sweep.Category),
			Lookback: cfg.Sweep.Lookback,
			Logger:   log,
		},
		Issuer: &sweep.Issuer{
			Venue:       client,
			Transfers:   recorder,
			Coin:        cfg.Sweep.Coin,
			FromAccount: bybit.AccountType(cfg.Sweep.FromAccount),
			ToAccount:   bybit.AccountType(cfg.Sweep.ToAccount),
			Logger:      log,
		},
		Percentage: cfg.Sweep.Percentage,
		Out:        cmd.OutOrStdout(),
		Logger:     log,
	}

	var srv *httpserver.Server
	if cfg.Metrics.Addr != "" {
		srv = httpserver.New(cfg.Metrics.Addr, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// A signal stops the schedule but never a cycle already talking to the venue.
	job := func(ctx context.Context) {
		report := cycle.Run(context.WithoutCancel(ctx))
		if srv != nil {
			srv.MarkCycle(report.StartedAt)
		}
	}

	log.Info("sweeper started",
		zap.Float64("percentage", cfg.Sweep.Percentage),
		zap.Duration("interval", cfg.Sweep.Interval),
		zap.Duration("lookback", cfg.Sweep.Lookback),
		zap.Bool("postgres_mirror", cfg.Postgres.Enabled),
	)

	if opts.once {
		job(ctx)
		return nil
	}

	p := &scheduler.Periodic{Interval: cfg.Sweep.Interval, Job: job, Logger: log}
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
