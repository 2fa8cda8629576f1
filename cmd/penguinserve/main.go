// penguinserve - Palmer Penguins explorer over a Snowflake warehouse.
//
// Usage:
//
//	penguinserve [--config path] [--port 8080]
//
// Flags:
//
//	--config  Optional YAML with server, cache and redis sections
//	--port    Override server.port from config
//
// Environment:
//
//	DEPLOYMENT_ENV                AWS / DOCKER / LOCAL (default LOCAL)
//	SNOWFLAKE_CONNECTION_TIMEOUT  login and request timeout, seconds (default 15)
//	SNOWFLAKE_ACCOUNT, SNOWFLAKE_USER, SNOWFLAKE_PASSWORD,
//	SNOWFLAKE_WAREHOUSE, SNOWFLAKE_ROLE, DEMO_DATABASE
//	SNOWFLAKE_SECRETS_FILE        LOCAL secrets (default .secrets/secrets.yaml)
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB  optional shared table cache
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/penguinserve/pkg/cache"
	"github.com/ruslano69/penguinserve/pkg/dashboard"
	"github.com/ruslano69/penguinserve/pkg/penguins"
	"github.com/ruslano69/penguinserve/pkg/warehouse"
)

func main() {
	configPath := flag.String("config", "", "path to server config YAML (optional)")
	port := flag.Int("port", 0, "HTTP port, overrides config value")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := loadConfig(*configPath, os.LookupEnv)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("config load failed")
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	settings, err := warehouse.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("warehouse settings invalid")
	}
	if !settings.Mode.Known() {
		log.Warn().Str("mode", string(settings.Mode)).Msg("unrecognized DEPLOYMENT_ENV, using LOCAL credentials")
	}

	store := cache.New()
	provider := warehouse.NewProvider(settings, store)
	defer func() {
		if err := provider.Close(); err != nil {
			log.Error().Err(err).Msg("warehouse close error")
		}
	}()

	loaderOpts := []penguins.LoaderOption{
		penguins.WithTable(penguins.TableName(settings.Database)),
		penguins.WithTTL(cfg.Cache.TableTTL),
	}

	var mirror pinger
	if cfg.Redis.Addr != "" {
		dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		m, err := cache.DialRedisMirror(dialCtx, cfg.Redis)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis mirror setup failed")
		}
		defer m.Close()
		loaderOpts = append(loaderOpts, penguins.WithMirror(m))
		mirror = m
	}

	loader := penguins.NewLoader(provider, store, loaderOpts...)
	svc := dashboard.NewService(loader, settings.Mode)
	app := newServer(cfg, svc, provider, mirror)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("mode", string(settings.Mode)).
			Str("table", loader.Table()).
			Dur("table_ttl", cfg.Cache.TableTTL).
			Bool("redis", mirror != nil).
			Msg("penguinserve started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
}
