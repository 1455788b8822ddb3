package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/acmecommerce/shopflow/internal/config"
	"github.com/acmecommerce/shopflow/internal/integration"
	orderapp "github.com/acmecommerce/shopflow/internal/order/application"
	orderhttp "github.com/acmecommerce/shopflow/internal/order/infrastructure/http"
	orderpg "github.com/acmecommerce/shopflow/internal/order/infrastructure/postgres"
	"github.com/acmecommerce/shopflow/internal/postgres"
	productapp "github.com/acmecommerce/shopflow/internal/product/application"
	producthttp "github.com/acmecommerce/shopflow/internal/product/infrastructure/http"
	productpg "github.com/acmecommerce/shopflow/internal/product/infrastructure/postgres"
	"github.com/acmecommerce/shopflow/pkg/httpx"
	"github.com/acmecommerce/shopflow/pkg/idempotency"
	"github.com/acmecommerce/shopflow/pkg/logging"
	"github.com/acmecommerce/shopflow/pkg/outbox"
	"github.com/acmecommerce/shopflow/pkg/shutdown"
	"github.com/acmecommerce/shopflow/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("shopflow-api").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.ServiceName)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("tracing init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = tp.Shutdown(shCtx)
	}()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idemStore := idempotency.NewStore(rdb, 24*time.Hour)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	defer writer.Close()

	dispatcher := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, postgres.NewOutboxStore(pool), dispatcher, uuid.NewString())
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("outbox relay stopped", "err", err)
		}
	}()

	productSvc := productapp.NewService(productpg.NewRepository(log, pool))
	orderSvc := orderapp.NewService(orderpg.NewUnitOfWork(pool), orderpg.NewRepository(log, pool))
	extClient := integration.NewClient(cfg.ExternalAPIURL)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Mount("/products", producthttp.NewHandler(log, productSvc).Routes())
		r.Mount("/orders", orderhttp.NewHandler(log, orderSvc, idemStore).Routes())
		r.Mount("/integration", integration.NewHandler(log, extClient, productSvc).Routes())
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error("http shutdown error", "err", err)
		}
	}()

	log.Info("http server starting", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server error", "err", err)
		os.Exit(1)
	}
	log.Info("http server stopped")
}
