// Command server runs the symposium registration portal: public
// registration and payment-proof upload plus the session-gated admin
// dashboard API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"technoreg/internal/access"
	accesshandler "technoreg/internal/access/handler"
	"technoreg/internal/audit"
	"technoreg/internal/payment/blob"
	paymenthandler "technoreg/internal/payment/handler"
	paymetrics "technoreg/internal/payment/metrics"
	payservice "technoreg/internal/payment/service"
	"technoreg/internal/platform/config"
	"technoreg/internal/platform/httpserver"
	"technoreg/internal/platform/logger"
	"technoreg/internal/platform/metrics"
	platformredis "technoreg/internal/platform/redis"
	reghandler "technoreg/internal/registration/handler"
	regmetrics "technoreg/internal/registration/metrics"
	regservice "technoreg/internal/registration/service"
	regstore "technoreg/internal/registration/store"
	rosterhandler "technoreg/internal/roster/handler"
	httptransport "technoreg/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.AdminPassword == "" || cfg.ViewerPassword == "" {
		log.Error("TECHNOREG_ADMIN_PASSWORD and TECHNOREG_VIEWER_PASSWORD must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httptransport.HealthChecker{}

	// Registration store: postgres when configured, in-memory otherwise.
	var store regservice.Store
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := regstore.NewPostgres(db)
		if err := pg.InitSchema(ctx); err != nil {
			log.Error("init postgres schema", "error", err)
			os.Exit(1)
		}
		store = pg
		checks["postgres"] = healthFunc(db.PingContext)
		log.Info("using postgres registration store")
	} else {
		store = regstore.NewInMemory()
		log.Warn("no TECHNOREG_POSTGRES_URL set, registrations are in-memory only")
	}

	blobs, err := blob.NewFilesystem(cfg.BlobRoot)
	if err != nil {
		log.Error("init blob store", "error", err, "root", cfg.BlobRoot)
		os.Exit(1)
	}

	// Session revocation: shared via Redis when configured.
	var revocation access.RevocationList
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocation = access.NewRedisRevocationList(redisClient.Client)
		checks["redis"] = redisClient
	} else {
		revocation = access.NewMemoryRevocationList()
	}

	// Audit trail: persisted in process, streamed to Kafka when brokers
	// are configured, consumed off the request path by a worker.
	auditSinks := []audit.Sink{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSinks = append(auditSinks, kafkaSink)
		log.Info("audit events streaming to kafka", "topic", cfg.AuditTopic)
	}
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), auditSinks...)
	inbox, events := audit.NewInbox(256)
	auditWorker := audit.NewWorker(publisher, events)

	tokens := access.NewTokenService(cfg.JWTSigningKey, "technoreg", cfg.SessionTTL)
	accessSvc, err := access.NewService(tokens, revocation, cfg.AdminPassword, cfg.ViewerPassword,
		access.WithLogger(log),
		access.WithAuditPublisher(inbox),
	)
	if err != nil {
		log.Error("init access service", "error", err)
		os.Exit(1)
	}

	regSvc := regservice.New(store,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(inbox),
		regservice.WithMetrics(regmetrics.New()),
	)
	paySvc := payservice.New(store, blobs,
		payservice.WithLogger(log),
		payservice.WithAuditPublisher(inbox),
		payservice.WithMetrics(paymetrics.New()),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Registrations: reghandler.New(regSvc, log),
		Payments:      paymenthandler.New(paySvc, log),
		Roster:        rosterhandler.New(regSvc, log),
		Access:        accesshandler.New(accessSvc, log),
		Auth:          accessSvc,
		Metrics:       metrics.New(),
		Logger:        log,
		Checks:        checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting technoreg server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := auditWorker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
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

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }
