package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/mertakgul/depscope/internal/config"
	"github.com/mertakgul/depscope/internal/graphstore"
	neo4jstore "github.com/mertakgul/depscope/internal/graphstore/neo4j"
	"github.com/mertakgul/depscope/internal/logging"
	"github.com/mertakgul/depscope/internal/observability"
	"github.com/mertakgul/depscope/internal/server"
	temporalmod "github.com/mertakgul/depscope/internal/temporal"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logging.New(cfg.Log)
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "depscope-worker",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	// Graph store is optional; the worker runs without persistence when
	// no URI is configured.
	var repo graphstore.Repository
	if cfg.Graph.URI != "" {
		neoRepo, err := neo4jstore.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			log.Fatalf("graph store: %v", err)
		}
		repo = neoRepo
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Config: cfg,
		Log:    log,
		Store:  repo,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	srv := server.NewGracefulServer(&server.HealthConfig{
		Version: "0.1.0",
		Addr:    cfg.Temporal.HealthAddr,
	}, nil)
	srv.Health.SetMetricsHandler(observability.Metrics().Handler())
	srv.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))
	if repo != nil {
		srv.Health.RegisterCheck("graph-store", server.GraphStoreHealthChecker(func(ctx context.Context) error {
			_, err := repo.QueryImporters(ctx, "health", "health")
			return err
		}))
	}

	srv.RegisterHook("temporal-worker", 20, func(ctx context.Context) error {
		w.Stop()
		return nil
	})
	srv.RegisterHook("temporal-client", 30, func(ctx context.Context) error {
		c.Close()
		return nil
	})
	if repo != nil {
		srv.RegisterHook("graph-store", 90, repo.Close)
	}
	srv.RegisterHook("tracing", 80, tp.Shutdown)

	if err := srv.Start(cfg.Temporal.HealthAddr); err != nil {
		log.Fatalf("health server: %v", err)
	}

	log.WithFields(logrus.Fields{
		"task_queue":  cfg.Temporal.TaskQueue,
		"health_addr": cfg.Temporal.HealthAddr,
	}).Info("worker started")

	srv.Wait()
	log.Info("worker stopped")
}
