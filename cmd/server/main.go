package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"cetrack/internal/benchmark/batch"
	benchhandler "cetrack/internal/benchmark/handler"
	benchmetrics "cetrack/internal/benchmark/metrics"
	benchservice "cetrack/internal/benchmark/service"
	benchstore "cetrack/internal/benchmark/store"
	memberstore "cetrack/internal/member/store"
	"cetrack/internal/platform/config"
	"cetrack/internal/platform/httpserver"
	"cetrack/internal/platform/logger"
	"cetrack/internal/platform/metrics"
	platformredis "cetrack/internal/platform/redis"
	riskhandler "cetrack/internal/risk/handler"
	riskmetrics "cetrack/internal/risk/metrics"
	riskservice "cetrack/internal/risk/service"
	ruleshandler "cetrack/internal/rules/handler"
	rulesmetrics "cetrack/internal/rules/metrics"
	rulesservice "cetrack/internal/rules/service"
	rulesstore "cetrack/internal/rules/store"
	httptransport "cetrack/internal/transport/http"
	"cetrack/pkg/platform/audit"
	auditpublisher "cetrack/pkg/platform/audit/publisher"
	auditmemory "cetrack/pkg/platform/audit/store/memory"
	auditpostgres "cetrack/pkg/platform/audit/store/postgres"
)

// memberStore is the union of the member-row views the services consume.
type memberStore interface {
	benchservice.MemberReader
	riskservice.MemberReader
	batch.JurisdictionLister
}

// credentialStore is the union of the credential views the services consume.
type credentialStore interface {
	rulesservice.CredentialStore
	batch.CredentialLister
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var db *sql.DB
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			fatal(log, "failed to open postgres", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		if err := db.Ping(); err != nil {
			fatal(log, "postgres ping failed", err)
		}
		defer db.Close()
	}

	var (
		credentials credentialStore
		packs       rulesservice.RulePackStore
		members     memberStore
		snapshots   benchservice.SnapshotStore
		auditStore  audit.Store
	)
	if db != nil {
		credentials = rulesstore.NewPostgresCredentialStore(db)
		packs = rulesstore.NewPostgresRulePackStore(db)
		members = memberstore.NewPostgresUserCredentialStore(db)
		snapshots = benchstore.NewPostgresSnapshotStore(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("no postgres URL configured, running on in-memory stores")
		credentials = rulesstore.NewInMemoryCredentialStore()
		packs = rulesstore.NewInMemoryRulePackStore()
		members = memberstore.NewInMemoryUserCredentialStore()
		snapshots = benchstore.NewInMemorySnapshotStore()
		auditStore = auditmemory.NewInMemoryStore()
	}

	auditor := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithLogger(log),
		auditpublisher.WithAsyncBuffer(64),
	)
	defer auditor.Close()

	rulesSvc := rulesservice.New(credentials, packs,
		rulesservice.WithLogger(log),
		rulesservice.WithMetrics(rulesmetrics.New()),
		rulesservice.WithAuditPublisher(auditor),
	)
	benchMetrics := benchmetrics.New()
	benchSvc := benchservice.New(credentials, members, snapshots,
		benchservice.WithLogger(log),
		benchservice.WithMetrics(benchMetrics),
		benchservice.WithAuditPublisher(auditor),
	)
	riskSvc, err := riskservice.New(rulesSvc, credentials, members,
		riskservice.WithLogger(log),
		riskservice.WithMetrics(riskmetrics.New()),
	)
	if err != nil {
		fatal(log, "failed to build risk service", err)
	}

	runnerOpts := []batch.Option{
		batch.WithLogger(log),
		batch.WithMetrics(benchMetrics),
		batch.WithAuditPublisher(auditor),
	}
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		fatal(log, "failed to connect to redis", err)
	}
	if rdb != nil {
		defer rdb.Close()
		runnerOpts = append(runnerOpts, batch.WithLocker(batch.NewRedisLocker(rdb.Client)))
	}
	runner := batch.New(benchSvc, credentials, members, runnerOpts...)

	router := httptransport.NewRouter(log, metrics.New(),
		ruleshandler.New(rulesSvc, log, cfg.AdminToken),
		benchhandler.New(benchSvc, runner, log, cfg.AdminToken),
		riskhandler.New(riskSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting cetrack", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fatal(log, "graceful shutdown failed", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
