package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres stdlib driver, used for migrations.
	"github.com/redis/go-redis/v9"
	"github.com/vbrandao/bank/internal/core/account"
	"github.com/vbrandao/bank/internal/core/account/store/accountdb"
	"github.com/vbrandao/bank/internal/core/catalog"
	"github.com/vbrandao/bank/internal/core/catalog/store/catalogdb"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/ledger/store/ledgerdb"
	"github.com/vbrandao/bank/internal/core/principal"
	"github.com/vbrandao/bank/internal/core/principal/store/principaldb"
	"github.com/vbrandao/bank/internal/core/report"
	"github.com/vbrandao/bank/internal/core/report/store/reportdb"
	"github.com/vbrandao/bank/internal/data/dbschema"
	db "github.com/vbrandao/bank/internal/data/dbsql/pgx"
	"github.com/vbrandao/bank/internal/handlers"
	"github.com/vbrandao/bank/internal/logger"
	"github.com/vbrandao/bank/internal/trace"
)

var build = "develop"

func main() {
	log := logger.New("Bank")

	if err := run(log); err != nil {
		log.Error("startup", "ERROR", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Env string `conf:"default:DEV"`
		Web struct {
			Port            int           `conf:"default:8080"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		DB struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,mask"`
			Host       string `conf:"default:0.0.0.0:5432"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Redis struct {
			Host    string `conf:"default:0.0.0.0:6379"`
			Disable bool   `conf:"default:false"`
		}
		Trace struct {
			Endpoint       string  `conf:"default:0.0.0.0:4317"`
			SampleFraction float64 `conf:"default:1"`
			Discard        bool    `conf:"default:true"`
		}
	}{
		Version: conf.Version{
			Build: build,
		},
	}

	const prefix = "BANK"
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

	log.Info("starting service", "version", build)
	defer log.Info("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Info("startup", "config", out)

	// =========================================================================
	// Database Support

	log.Info("startup", "status", "initializing database support", "host", cfg.DB.Host)

	dbCfg := db.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	}
	database, err := db.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Info("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		database.Close()
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.StatusCheck(ctxWithTimeout, database); err != nil {
		return fmt.Errorf("database not health: %w", err)
	}

	stdDB, err := sql.Open("pgx", db.ConnString(dbCfg))
	if err != nil {
		return fmt.Errorf("failed to open DB for migration: %w", err)
	}

	if err := dbschema.Migrate(stdDB); err != nil {
		stdDB.Close()
		return fmt.Errorf("migrating error: %w", err)
	}
	stdDB.Close()

	// =========================================================================
	// Redis Support

	var cache *redis.Client
	var locker *redsync.Redsync
	if !cfg.Redis.Disable {
		log.Info("startup", "status", "initializing redis support", "host", cfg.Redis.Host)

		cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host})
		defer cache.Close()

		locker = redsync.New(goredis.NewPool(cache))
	}

	// =========================================================================
	// Trace Support

	traceProvider, err := trace.NewProvider(ctx, trace.Config{
		Env:            cfg.Env,
		Endpoint:       cfg.Trace.Endpoint,
		Service:        "bank",
		SampleFraction: cfg.Trace.SampleFraction,
		DiscardTraces:  cfg.Trace.Discard,
	})
	if err != nil {
		return fmt.Errorf("starting trace provider: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())
	tracer := traceProvider.Tracer("bank")

	// =========================================================================
	// Start API Service

	log.Info("startup", "status", "initializing BANK API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	ledgerCore := ledger.NewCore(ledgerdb.NewStore(log, database))
	accountCore := account.NewCore(accountdb.NewStore(log, database))
	principalCore := principal.NewCore(principaldb.NewStore(log, database))
	catalogCore := catalog.NewCore(catalogdb.NewStore(log, database), ledgerCore, locker)
	reportCore := report.NewCore(log, reportdb.NewStore(log, database), cache)

	srv := handlers.NewServer(log, ledgerCore, accountCore, principalCore, catalogCore, reportCore)
	mux := handlers.APIMux(srv, tracer)

	api := http.Server{
		Addr:     fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:  mux,
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelInfo),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
