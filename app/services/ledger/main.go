package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers"
	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/cache"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/database/memory"
	"github.com/ardanlabs/ledger/foundation/ledger/database/sqldb"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			CorsOrigins     []string      `conf:"default:*"`
		}
		Store struct {
			Driver        string        `conf:"default:memory,help:memory or sqlite"`
			DSN           string        `conf:"default:zblock/ledger.db"`
			SlowThreshold time.Duration `conf:"default:200ms"`
		}
		Ledger struct {
			NameCost            uint64        `conf:"default:500"`
			QueueWorkers        int           `conf:"default:4"`
			QueueDepth          int           `conf:"default:1024"`
			QueueTimeout        time.Duration `conf:"default:5s"`
			MiningEnabled       bool          `conf:"default:true"`
			TransactionsEnabled bool          `conf:"default:true"`
			AllowLegacyAuth     bool          `conf:"default:false"`
		}
		Mining struct {
			SecondsPerBlock float64 `conf:"default:300"`
			WorkFactor      float64 `conf:"default:0.025"`
			MinWork         uint64  `conf:"default:1"`
			MaxWork         uint64  `conf:"default:100000"`
			InitialWork     uint64  `conf:"default:100000"`
		}
		Cache struct {
			Size int           `conf:"default:64"`
			TTL  time.Duration `conf:"default:10s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger and mining service",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Store Support

	log.Infow("startup", "status", "initializing store", "driver", cfg.Store.Driver)

	var store database.Store
	switch cfg.Store.Driver {
	case "memory":
		store = memory.New()

	case "sqlite":
		db, err := sqldb.Open(sqldb.Config{
			DSN:           cfg.Store.DSN,
			SlowThreshold: cfg.Store.SlowThreshold,
			Log:           log,
		})
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		store = db

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	defer func() {
		log.Infow("shutdown", "status", "closing store")
		store.Close()
	}()

	// =========================================================================
	// Ledger Support

	// Committed changes are fanned out to any websocket client that is
	// connected into the system through the events package.
	evts := events.New[state.Event]()

	st, err := state.New(state.Config{
		Store:     store,
		Publisher: publisher{log: log, evts: evts},
		Cache:     cache.New(cfg.Cache.Size, cfg.Cache.TTL),
		Observer:  metrics.Ledger{},
		Log:       log,
		Difficulty: state.Difficulty{
			SecondsPerBlock: cfg.Mining.SecondsPerBlock,
			WorkFactor:      cfg.Mining.WorkFactor,
			MinWork:         cfg.Mining.MinWork,
			MaxWork:         cfg.Mining.MaxWork,
			InitialWork:     cfg.Mining.InitialWork,
		},
		NameCost:            cfg.Ledger.NameCost,
		QueueWorkers:        cfg.Ledger.QueueWorkers,
		QueueDepth:          cfg.Ledger.QueueDepth,
		QueueTimeout:        cfg.Ledger.QueueTimeout,
		MiningEnabled:       cfg.Ledger.MiningEnabled,
		TransactionsEnabled: cfg.Ledger.TransactionsEnabled,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig{
		Shutdown:        shutdown,
		Log:             log,
		State:           st,
		Evts:            evts,
		CorsOrigins:     cfg.Web.CorsOrigins,
		AllowLegacyAuth: cfg.Ledger.AllowLegacyAuth,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// =============================================================================

// publisher hands committed ledger events to the websocket fan-out.
type publisher struct {
	log  *zap.SugaredLogger
	evts *events.Events[state.Event]
}

func (p publisher) Publish(evt state.Event) {
	p.log.Debugw("event", "kind", evt.Kind())
	p.evts.Send(evt)
}
