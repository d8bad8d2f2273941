// Command server runs the veilpay HTTP service: confidential balance
// accounts, the transfer engine, and the event relay. Wiring lives here;
// business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	balancesvc "veilpay/internal/balance/service"
	balancestore "veilpay/internal/balance/store"
	"veilpay/internal/cspl"
	"veilpay/internal/event/feed"
	"veilpay/internal/event/publisher"
	eventstore "veilpay/internal/event/store"
	"veilpay/internal/event/worker"
	mintsvc "veilpay/internal/mint/service"
	mintstore "veilpay/internal/mint/store"
	"veilpay/internal/platform/config"
	"veilpay/internal/platform/httpserver"
	"veilpay/internal/platform/logger"
	"veilpay/internal/platform/metrics"
	"veilpay/internal/platform/postgres"
	platformredis "veilpay/internal/platform/redis"
	transfersvc "veilpay/internal/transfer/service"
	httptransport "veilpay/internal/transport/http"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	backend := cspl.NewKeccakBackend()

	stores, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	mintOpts := []mintsvc.Option{mintsvc.WithLogger(log), mintsvc.WithTxRunner(stores.runner)}
	if cfg.MintAuthority != "" {
		authority, err := domain.ParseIdentity(cfg.MintAuthority)
		if err != nil {
			return err
		}
		mintOpts = append(mintOpts, mintsvc.WithAuthority(authority))
	}

	handlers := httptransport.NewHandlers(
		mintsvc.New(stores.mints, mintOpts...),
		balancesvc.New(stores.accounts, stores.events, backend,
			balancesvc.WithLogger(log),
			balancesvc.WithTxRunner(stores.runner),
			balancesvc.WithMetrics(m),
		),
		transfersvc.New(stores.accounts, stores.events, backend,
			transfersvc.WithLogger(log),
			transfersvc.WithTxRunner(stores.runner),
			transfersvc.WithMetrics(m),
		),
		stores.events,
		log,
	)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handlers))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if relay := buildRelay(ctx, cfg, stores, m, log); relay != nil {
		group.Go(func() error {
			if err := relay.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			// Flush what committed before shutdown.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return relay.Drain(flushCtx)
		})
	}

	return group.Wait()
}

type storeSet struct {
	accounts accountStore
	mints    mintsvc.RegistryStore
	events   eventOutbox
	runner   transfersvc.TxRunner
	redis    *platformredis.Client
	kafka    *publisher.Kafka
	db       interface{ Close() error }
}

// accountStore joins the lifecycle side with the transfer engine's pair
// primitive; both store implementations provide all of it.
type accountStore interface {
	balancesvc.AccountStore
	transfersvc.AccountStore
}

// eventOutbox joins the append side used by services with the relay side.
type eventOutbox interface {
	balancesvc.EventLog
	worker.Source
	httptransport.EventSource
}

func (s *storeSet) close() {
	if s.kafka != nil {
		s.kafka.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// buildStores selects Postgres-backed stores when a DSN is configured and
// in-memory stores otherwise.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*storeSet, error) {
	s := &storeSet{runner: tx.NopRunner{}}

	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, using in-memory stores")
		s.accounts = balancestore.NewInMemory()
		s.mints = mintstore.NewInMemory()
		s.events = eventstore.NewInMemory()
		return s, nil
	}

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	s.accounts = balancestore.NewPostgres(db)
	s.mints = mintstore.NewPostgres(db)
	s.events = eventstore.NewPostgres(db)
	s.runner = tx.NewRunner(db)
	return s, nil
}

// buildRelay wires the event relay when at least one sink is configured.
func buildRelay(ctx context.Context, cfg config.Server, stores *storeSet, m *metrics.Metrics, log *slog.Logger) *worker.Relay {
	opts := []worker.Option{worker.WithLogger(log), worker.WithMetrics(m)}

	kafka, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Error("kafka publisher unavailable", "error", err)
	} else if kafka != nil {
		stores.kafka = kafka
		opts = append(opts, worker.WithPublisher(kafka))
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis feed unavailable", "error", err)
	} else if redisClient != nil {
		stores.redis = redisClient
		opts = append(opts, worker.WithFeed(feed.NewRedis(redisClient, cfg.FeedLimit)))
	}

	if stores.kafka == nil && stores.redis == nil {
		return nil
	}
	return worker.NewRelay(stores.events, cfg.RelayInterval, opts...)
}
