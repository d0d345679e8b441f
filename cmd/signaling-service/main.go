package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwrk-planet/signaling-service/config"
	"github.com/cwrk-planet/signaling-service/internal/auth"
	"github.com/cwrk-planet/signaling-service/internal/events"
	"github.com/cwrk-planet/signaling-service/internal/metrics"
	"github.com/cwrk-planet/signaling-service/internal/ratelimit"
	"github.com/cwrk-planet/signaling-service/internal/repository"
	"github.com/cwrk-planet/signaling-service/internal/seal"
	httpserver "github.com/cwrk-planet/signaling-service/internal/server/http"
	"github.com/cwrk-planet/signaling-service/internal/service"
	"github.com/cwrk-planet/signaling-service/internal/storage"
	"github.com/cwrk-planet/signaling-service/internal/storage/memstore"
	"github.com/cwrk-planet/signaling-service/internal/storage/redisstore"
	httpx "github.com/cwrk-planet/signaling-service/internal/transport/http"
	"github.com/cwrk-planet/signaling-service/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("signaling-service stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("signaling-service stopped")
}

func run() error {
	// --- env & config ---
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting signaling-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.New()

	// --- store ---
	var (
		store storage.Store
		mem   *memstore.Store
	)
	switch cfg.Store.Driver {
	case "memory":
		mem = memstore.New(clk)
		store = mem
	default:
		rs, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			PoolSize: cfg.Store.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		store = rs
	}
	defer func() { _ = store.Close() }()

	keys := storage.NewKeys(cfg.Store.KeyPrefix)

	// --- repos ---
	roomRepo := repository.NewRoomRepository(store, keys, cfg.Rooms.TTL)
	indexRepo := repository.NewIndexRepository(store, keys)
	mailboxRepo := repository.NewMailboxRepository(store, keys, cfg.Rooms.MailboxTTL)

	// --- metrics & events ---
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var pub events.Publisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  cfg.Events.Brokers,
			Topic:    cfg.Events.Topic,
			ClientID: cfg.Events.ClientID,
			Metrics:  m,
		})
		if err != nil {
			return err
		}
		pub = kp
		slog.Info("room events enabled", "topic", cfg.Events.Topic, "brokers", cfg.Events.Brokers)
	}
	defer func() { _ = pub.Close() }()

	// --- services ---
	deps := service.Deps{
		Rooms:      roomRepo,
		Index:      indexRepo,
		Mailbox:    mailboxRepo,
		Events:     pub,
		Metrics:    m,
		Clock:      clk,
		StaleAfter: cfg.Rooms.StaleAfter,
	}
	roomSvc := service.NewRoomService(deps)
	partySvc := service.NewPartyService(deps)
	mailboxSvc := service.NewMailboxService(deps)

	// --- HTTP ---
	var sealer *seal.Sealer
	if cfg.Encryption.Enabled {
		sealer = seal.New(cfg.Encryption.Salt)
	}

	router := httpx.NewRouter(httpx.Deps{
		Handler: httpx.NewHandler(roomSvc, partySvc, mailboxSvc, store),
		Auth: auth.NewAuthenticator(auth.Config{
			Secret:    []byte(cfg.Auth.JWTSecret),
			Issuer:    cfg.Auth.Issuer,
			Audience:  cfg.Auth.Audience,
			ClockSkew: cfg.Auth.ClockSkew,
		}),
		Limiter: ratelimit.New(store, keys),
		Limits: httpx.Limits{
			Create:    limitSpec(cfg.RateLimits.Create),
			Join:      limitSpec(cfg.RateLimits.Join),
			Signal:    limitSpec(cfg.RateLimits.Signal),
			Heartbeat: limitSpec(cfg.RateLimits.Heartbeat),
		},
		Sealer:         sealer,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.HTTP.HandlerTimeout,
	})

	srv := httpserver.New(httpserver.Config{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, router)

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if mem != nil {
		g.Go(func() error { return mem.Run(gctx, cfg.Store.SweepInterval) })
	}

	return g.Wait()
}

func limitSpec(l config.Limit) ratelimit.Spec {
	return ratelimit.Spec{Limit: l.Limit, Window: l.Window}
}
