package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/trogers1052/fox-valley-engine/internal/api"
	"github.com/trogers1052/fox-valley-engine/internal/cache"
	"github.com/trogers1052/fox-valley-engine/internal/config"
	"github.com/trogers1052/fox-valley-engine/internal/database"
	"github.com/trogers1052/fox-valley-engine/internal/kafka"
	"github.com/trogers1052/fox-valley-engine/internal/logger"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
	"github.com/trogers1052/fox-valley-engine/internal/scheduler"
	"github.com/trogers1052/fox-valley-engine/internal/service"
)

const briefJobTimeout = 2 * time.Minute

type serveCmd struct {
	briefNow bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API, Kafka consumers and the daily brief scheduler" }
func (*serveCmd) Usage() string {
	return `foxvalley serve [-brief-now]

  Configuration is read from the environment and an optional .env file.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.briefNow, "brief-now", false, "record a brief immediately on startup")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return subcommands.ExitUsageError
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	if err := c.serve(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Service stopped with error")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Database.MigrationsPath).Msg("Database migrations applied")

	opts := []service.Option{}
	if cfg.Journal.CSVPath != "" {
		opts = append(opts, service.WithJournalCSV(cfg.Journal.CSVPath))
	}

	if cfg.Redis.Enabled {
		rc, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Report cache unavailable, continuing without it")
		} else {
			defer rc.Close()
			opts = append(opts, service.WithCache(rc))
		}
	}

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		opts = append(opts, service.WithPublisher(producer))

		positions := kafka.NewPositionsConsumer(cfg.Kafka.Brokers, cfg.Kafka.PositionsTopic, cfg.Kafka.GroupID, cfg.Kafka.CashTicker, db, log)
		screens := kafka.NewScreensConsumer(cfg.Kafka.Brokers, cfg.Kafka.ScreensTopic, cfg.Kafka.GroupID, db, log)
		for _, consumer := range []interface {
			Start(context.Context) error
			Close() error
		}{positions, screens} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer consumer.Close()
				if err := consumer.Start(ctx); err != nil {
					log.Error().Err(err).Msg("Kafka consumer stopped")
				}
			}()
		}
	}

	svc := service.New(db, pipeline.New(cfg.Rules), log, opts...)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log, cfg.Scheduler.Location())
		job := scheduler.NewBriefJob(svc, briefJobTimeout, log)
		if err := sched.Schedule(cfg.Scheduler.BriefSchedule, job); err != nil {
			return fmt.Errorf("failed to schedule daily brief: %w", err)
		}
		if c.briefNow {
			if err := sched.Trigger(job); err != nil {
				log.Warn().Err(err).Msg("Startup brief failed")
			}
		}
		sched.Start()
		defer sched.Stop()
		if next, ok := sched.NextRun(job.Name()); ok {
			log.Info().Time("next_brief", next).Msg("Daily brief scheduled")
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           api.SetupRoutes(api.NewHandler(svc, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		stop()
		wg.Wait()
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}
	wg.Wait()
	return nil
}
