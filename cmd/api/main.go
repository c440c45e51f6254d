package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/httpapi"
	memclientrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/clientrepo"
	memenrollmentrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/enrollmentrepo"
	memidempotency "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/triprepo"
	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
	pgclientrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/clientrepo"
	pgenrollmentrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/enrollmentrepo"
	pgidempotency "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/idempotency"
	pgtriprepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/triprepo"
	redistriplock "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/redis/triplock"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/clients"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/clock"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/config"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/logging"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/metrics"
	clientrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	enrollmentrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	idempotencyport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
	triprepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

const idempotencyPruneInterval = time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auth configuration:
	// - Production: AUTH_MODE=jwt enforces bearer auth
	// - Local dev: AUTH_MODE=dev bypasses JWT verification and uses X-Debug-Subject
	var (
		authMW     func(http.Handler) http.Handler
		authIssuer string
	)
	switch cfg.Auth.Mode {
	case "dev":
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevSubject)
		authIssuer = "dev"
		logger.Warn("dev auth enabled; do not use in production")
	default:
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(cfg.Auth.JWT))
		authIssuer = cfg.Auth.JWT.Issuer
	}

	clk := platformclock.NewSystemClockIn(cfg.Location())
	g, gctx := errgroup.WithContext(ctx)

	var (
		tripRepo   triprepoport.Repository
		clientRepo clientrepoport.Repository
		store      enrollmentrepoport.Store
		idemStore  idempotencyport.Store
		health     httpapi.Pinger
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database.URL, postgres.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}

		tripRepo = pgtriprepo.NewRepo(pool)
		clientRepo = pgclientrepo.NewRepo(pool)
		pgStore := pgenrollmentrepo.NewStore(pool)
		store = pgStore
		health = pgStore
		pgIdem := pgidempotency.NewStore(pool, authIssuer, cfg.IdempotencyTTL)
		idemStore = pgIdem
		if cfg.IdempotencyTTL > 0 {
			g.Go(func() error {
				pruneIdempotency(gctx, logger, pgIdem)
				return nil
			})
		}
	default:
		memTrips := memtriprepo.NewRepo()
		if cfg.SeedTripsFile != "" {
			n, err := memtriprepo.LoadSeedFile(ctx, memTrips, cfg.SeedTripsFile)
			if err != nil {
				return fmt.Errorf("seed trips: %w", err)
			}
			logger.Info("seeded trips", slog.Int("count", n), slog.String("file", cfg.SeedTripsFile))
		}
		memClients := memclientrepo.NewRepo()
		tripRepo = memTrips
		clientRepo = memClients
		store = memenrollmentrepo.NewStore(memTrips, memClients, memenrollmentrepo.NewRepo())
		idemStore = memidempotency.NewStore(memidempotency.WithTTL(cfg.IdempotencyTTL, clk))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	enrollOpts := []enrollments.Option{
		enrollments.WithLogger(logger),
		enrollments.WithMetrics(m),
	}
	if cfg.TripLock.Backend == "redis" {
		rdb, err := redistriplock.Dial(ctx, cfg.TripLock.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		enrollOpts = append(enrollOpts, enrollments.WithTripLocker(
			redistriplock.New(rdb, redistriplock.WithTTL(cfg.TripLock.TTL)),
		))
		logger.Info("redis trip lock enabled", slog.Duration("ttl", cfg.TripLock.TTL))
	}

	api := httpapi.NewServer(
		enrollments.NewService(store, clk, enrollOpts...),
		clients.NewService(clientRepo, tripRepo, store.Ledger()),
		trips.NewService(tripRepo, store.Ledger()),
		idemStore,
	)
	api.Health = health
	api.Logger = logger

	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware:     authMW,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Gatherer:           prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("api listening",
			slog.String("addr", srv.Addr),
			slog.String("storage", cfg.StorageBackend),
			slog.String("trip_lock", cfg.TripLock.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func pruneIdempotency(ctx context.Context, logger *slog.Logger, s *pgidempotency.Store) {
	t := time.NewTicker(idempotencyPruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Prune(ctx)
			if err != nil {
				logger.Warn("idempotency prune failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("idempotency records pruned", slog.Int64("count", n))
		}
	}
}
