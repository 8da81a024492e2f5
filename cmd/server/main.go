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

	"golang.org/x/sync/errgroup"

	"xup/internal/company"
	companyMetrics "xup/internal/company/metrics"
	companyService "xup/internal/company/service"
	companyStore "xup/internal/company/store"
	"xup/internal/identity"
	identityMetrics "xup/internal/identity/metrics"
	identityService "xup/internal/identity/service"
	identityStore "xup/internal/identity/store"
	"xup/internal/identity/sweeper"
	"xup/internal/platform/config"
	"xup/internal/platform/httpserver"
	"xup/internal/platform/logger"
	"xup/internal/platform/metrics"
	"xup/internal/platform/middleware"
	"xup/internal/platform/postgres"
	platformredis "xup/internal/platform/redis"
	httptransport "xup/internal/transport/http"
	"xup/pkg/platform/audit/publisher"
	"xup/pkg/platform/audit/store/kafka"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and runs the HTTP server and the credential sweeper
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	companies   companyService.Store
	credentials identityService.Store
	health      map[string]httptransport.Pinger
	selfExpiry  bool
	close       func()
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	companyOpts := []companyService.Option{
		companyService.WithLogger(log),
		companyService.WithMetrics(companyMetrics.New(m.Registry)),
		companyService.WithTelegramAuthBaseURL(cfg.TelegramAuthBaseURL),
	}
	identityOpts := []identityService.Option{
		identityService.WithLogger(log),
		identityService.WithMetrics(identityMetrics.New(m.Registry)),
		identityService.WithTTL(cfg.CredentialTTL),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("kafka audit sink: %w", err)
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		auditPublisher := publisher.NewPublisher(sink, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
		defer auditPublisher.Close()
		st.health["kafka"] = sink

		companyOpts = append(companyOpts, companyService.WithAuditPublisher(auditPublisher))
		identityOpts = append(identityOpts, identityService.WithAuditPublisher(auditPublisher))
		log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	companies := company.NewService(st.companies, companyOpts...)
	broker := identity.NewService(st.credentials, companies, cfg.JWT.Secret, cfg.JWT.Issuer, identityOpts...)

	clientIP := middleware.NewClientIPResolver(cfg.Server.TrustedProxies)
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		ClientIP: clientIP,
	}, log, m.IncrementRateLimited)
	defer limiter.Stop()

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:        log,
		ClientIP:      clientIP,
		Metrics:       m,
		RateLimiter:   limiter,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Resources: []httptransport.Registrar{
			company.NewHandler(companies, log),
			identity.NewHandler(broker, log),
		},
		HealthChecks: st.health,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting xup", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if !st.selfExpiry {
		g.Go(func() error {
			return sweeper.New(broker, log, cfg.SweepInterval).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStores selects the company and credential stores. A configured Redis
// takes over credential storage and expires records natively.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{health: map[string]httptransport.Pinger{}, close: func() {}}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if cfg.Store.AutoMigrate {
			if err := postgres.Migrate(cfg.Store.DatabaseURL); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := companyStore.NewPostgres(db)
		st.companies = pg
		st.credentials = identityStore.NewPostgres(db)
		st.health["database"] = pg
		st.close = func() { _ = db.Close() }
	default:
		log.Warn("using in-memory stores; data is lost on restart")
		st.companies = companyStore.NewInMemory()
		st.credentials = identityStore.NewInMemory()
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		st.close()
		return nil, err
	}
	if rc != nil {
		redisStore := identityStore.NewRedis(rc.Client)
		st.credentials = redisStore
		st.health["redis"] = redisStore
		st.selfExpiry = true
		closeDB := st.close
		st.close = func() {
			_ = rc.Close()
			closeDB()
		}
	}
	return st, nil
}
