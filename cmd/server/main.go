// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Cart semantics live in the internal packages.
//
// Every external backend is optional: without Redis the engine runs with
// in-memory snapshots, without Postgres it uses inline tier/rule config,
// without Kafka audit events stay in process. Correctness of in-session cart
// state never depends on a backend being up.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"trolley/internal/audit"
	auditkafka "trolley/internal/audit/kafka"
	auditmemory "trolley/internal/audit/memory"
	"trolley/internal/cart"
	carthandler "trolley/internal/cart/handler"
	"trolley/internal/cart/snapshot"
	"trolley/internal/coupon"
	couponservice "trolley/internal/coupon/service"
	couponstore "trolley/internal/coupon/store"
	"trolley/internal/platform/config"
	"trolley/internal/platform/httpserver"
	"trolley/internal/platform/logger"
	"trolley/internal/platform/metrics"
	"trolley/internal/platform/middleware"
	"trolley/internal/platform/postgres"
	platformredis "trolley/internal/platform/redis"
	"trolley/internal/pricing"
	pricingstore "trolley/internal/pricing/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Snapshot persistence: Redis when configured, memory otherwise.
	var snapStore snapshot.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable; falling back to in-memory snapshots", "error", err.Error())
	}
	if redisClient != nil {
		defer redisClient.Close()
		snapStore = snapshot.NewRedis(redisClient.Client)
	} else {
		snapStore = snapshot.NewMemory()
	}
	writer := snapshot.NewWriter(snapStore,
		snapshot.WithLogger(log),
		snapshot.WithMetrics(m),
	)

	// Promotions data: Postgres when configured, inline config otherwise.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Warn("postgres unavailable; falling back to inline promotions config", "error", err.Error())
	}
	if db != nil {
		defer db.Close()
	}

	var tierSource pricingstore.TierSource
	if db != nil {
		tierSource = pricingstore.NewPostgres(db)
	} else {
		tiers, err := pricing.ParseTiers(cfg.DiscountTiersJSON)
		if err != nil {
			log.Error("invalid DISCOUNT_TIERS", "error", err.Error())
			os.Exit(1)
		}
		tierSource = pricingstore.NewMemory(tiers)
	}
	tiers, err := tierSource.Tiers(context.Background())
	if err != nil {
		log.Warn("tier table unavailable; carts start without tier discounts", "error", err.Error())
	}

	// Coupon validation: remote promotions service when configured, else the
	// in-process validator over the rule store.
	var validator coupon.Validator
	if cfg.CouponValidatorURL != "" {
		validator = coupon.NewHTTPValidator(cfg.CouponValidatorURL)
	} else {
		var ruleStore couponstore.RuleStore
		if db != nil {
			ruleStore = couponstore.NewPostgres(db)
		} else {
			ruleStore = couponstore.NewMemory()
		}
		validator, err = couponservice.New(ruleStore, couponservice.WithLogger(log))
		if err != nil {
			log.Error("coupon validator setup failed", "error", err.Error())
			os.Exit(1)
		}
	}

	// Audit events: Kafka when configured, in-process sink otherwise.
	var publisher audit.Publisher
	kafkaPublisher, err := auditkafka.New(cfg.Kafka, auditkafka.WithLogger(log))
	if err != nil {
		log.Warn("kafka unavailable; audit events stay in process", "error", err.Error())
	}
	if kafkaPublisher != nil {
		publisher = kafkaPublisher
	} else {
		publisher = auditmemory.New()
	}
	defer publisher.Close()

	carts := cart.NewManager(snapStore, log, m,
		cart.WithTiers(tiers),
		cart.WithValidator(validator),
		cart.WithSnapshotWriter(writer),
		cart.WithAuditPublisher(publisher),
		cart.WithChannelResolver(func(ctx context.Context) string {
			return string(middleware.GetChannel(ctx))
		}),
		cart.WithLogger(log),
		cart.WithMetrics(m),
	)

	handler := carthandler.New(carts, []byte(cfg.CartTokenKey), log, m)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Drains pending snapshot writes after ctx is cancelled.
		return writer.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting trolley", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}
