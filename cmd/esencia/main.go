package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Spok95/esencia/internal/config"
	"github.com/Spok95/esencia/internal/domain/inventory"
	"github.com/Spok95/esencia/internal/domain/pricing"
	"github.com/Spok95/esencia/internal/infra/db"
	httpx "github.com/Spok95/esencia/internal/infra/http"
	"github.com/Spok95/esencia/internal/infra/logger"
	"github.com/Spok95/esencia/internal/infra/metrics"
)

const saveTimeout = 5 * time.Second

// openStorage returns the collections for the configured driver, or nil for
// the in-memory driver, and a close func.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (db.Collections, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(sqlDB, db.DialectSQLite, cfg.Migrations.Dir); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		log.Info("sqlite ready", "path", cfg.SQLite.Path)
		return db.NewSQLiteCollections(sqlDB), func() { _ = sqlDB.Close() }, nil

	case config.StoragePostgres:
		if err := db.MigratePostgres(cfg.Postgres.DSN, cfg.Migrations.Dir); err != nil {
			return nil, nil, err
		}
		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("postgres ready")
		return db.NewPGCollections(pool), pool.Close, nil

	default:
		log.Warn("in-memory storage: state is lost on exit")
		return nil, func() {}, nil
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.App.Timezone, err)
	}
	log := logger.NewWriter(cfg.App.Env, os.Stdout, loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coll, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStorage()

	var snap inventory.Snapshot
	if coll != nil {
		if snap, err = coll.Load(ctx); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}
	clock := func() time.Time { return time.Now().In(loc) }
	store := inventory.NewStore(snap, log, inventory.WithClock(clock))
	log.Info("state loaded",
		"materials", len(snap.Materials),
		"packaging", len(snap.Packaging),
		"recipes", len(snap.Recipes),
		"sales", len(snap.Sales),
	)
	if coll != nil {
		store.OnCommit(db.SaveHook(coll, log, saveTimeout))
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		store.OnCommit(m.Hook())
		gatherer = reg
	}

	srv := httpx.New(cfg.HTTP.Addr, httpx.Router(httpx.Deps{
		Store:             store,
		Log:               log,
		Gatherer:          gatherer,
		ReportTitle:       cfg.Report.Title,
		ReportRowsPerPage: cfg.Report.RowsPerPage,
		DefaultOverheads: pricing.Overheads{
			Labor:       cfg.Pricing.DefaultLaborPercent,
			Utilities:   cfg.Pricing.DefaultUtilitiesPercent,
			Disposables: cfg.Pricing.DefaultDisposablesPercent,
		},
		Now: clock,
	}))
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	log.Info("graceful shutdown complete")
	return nil
}

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "esencia:", err)
		os.Exit(1)
	}
}
