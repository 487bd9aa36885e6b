// Command flappyd runs the two-context game server: a base ledger with
// snapshot persistence, an ephemeral rollup ledger, the game program
// registered on both, and a websocket gateway in front.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"flappy/internal/app"
	"flappy/internal/config"
	"flappy/internal/delegation"
	"flappy/internal/ledger"
	"flappy/internal/ports/gateway"
	"flappy/internal/ports/program"
	"flappy/internal/session"
	"flappy/internal/storage"
)

const programID ledger.ProgramID = "flappy"

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	envPath := flag.String("env", "", "path to an optional .env file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(*configPath, *envPath, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(configPath, envPath string, log *logrus.Logger) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return err
		}
	} else {
		// A .env in the working directory is optional.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnv(&cfg)

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}
	if cfg.SessionSecret == "" {
		return errors.New("session secret is required (FLAPPY_SESSION_SECRET or config)")
	}

	// The base ledger is durable; the rollup starts empty every boot and is
	// repopulated by delegation.
	baseLedger := ledger.NewLedger(ledger.Base)
	rollupLedger := ledger.NewLedger(ledger.Rollup)
	store := storage.NewStore(cfg.SnapshotPath, log)
	if err := store.Load(baseLedger); err != nil {
		return err
	}

	coord := delegation.NewCoordinator(programID, baseLedger, rollupLedger, nil, log)
	sessions := session.NewService([]byte(cfg.SessionSecret), cfg.SessionIssuer, string(programID))
	svc := app.NewService(cfg.Tuning, nil)
	prog := program.New(programID, svc, sessions, coord, log)

	baseRT := ledger.NewRuntime(baseLedger, log)
	baseRT.Register(prog)
	rollupRT := ledger.NewRuntime(rollupLedger, log)
	rollupRT.Register(prog)

	gw := gateway.New(programID, baseRT, rollupRT, log)
	prog.SetEventSink(gw.EventSink())

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: gw.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		interval := time.Duration(cfg.SnapshotIntervalSeconds) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := store.Save(baseLedger); err != nil {
					log.WithError(err).Error("periodic snapshot failed")
				}
			case <-gctx.Done():
				// Final snapshot on the way out.
				return store.Save(baseLedger)
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}
