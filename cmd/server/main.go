package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health/grpc_health_v1"

	"topbook/api/grpcserver"
	"topbook/config"
	"topbook/domain/orderbook"
	"topbook/infra/codec"
	"topbook/infra/health"
	"topbook/infra/kafka"
	"topbook/infra/log"
	"topbook/infra/metrics"
	"topbook/infra/sequence"
	"topbook/jobs/broadcaster"
	"topbook/jobs/feed"
	"topbook/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $TOPBOOK_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	logger := log.NewLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Metrics / health ----------------

	registry := metrics.Init(logger)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	httpServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// ---------------- Book ----------------

	book := orderbook.New(cfg.Book.Capacity)
	seq := sequence.New(0)

	var rejects service.RejectSink
	if cfg.Rejects.Enabled {
		producer := kafka.NewProducer(cfg.Feed.Brokers, cfg.Rejects.Topic, true)
		defer producer.Close()
		rejects = service.NewRejectPublisher(cfg.Book.Symbol, producer, codec.JSONSerializer{})
	}
	svc := service.NewBookService(cfg.Book.Symbol, cfg.Book.Depth, book, seq, logger, rejects)

	// ---------------- gRPC ----------------

	grpcServer, grpcHealth := grpcserver.New(svc, logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("grpc listen")
	}

	// ---------------- Workers ----------------

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(tracked("grpc", func() error {
		return grpcServer.Serve(lis)
	}))

	if cfg.Feed.Enabled {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  cfg.Feed.Brokers,
			Topic:    cfg.Feed.Topic,
			GroupID:  cfg.Feed.GroupID,
			MinBytes: cfg.Feed.MinBytes,
			MaxBytes: cfg.Feed.MaxBytes,
			MaxWait:  time.Duration(cfg.Feed.MaxWaitMs) * time.Millisecond,
		})
		defer consumer.Close()
		ingestor := feed.New(consumer, svc, feed.Config{
			RingSize:    cfg.Feed.RingSize,
			CommitBatch: cfg.Feed.CommitBatch,
		}, logger)
		g.Go(tracked("feed", func() error { return ingestor.Run(gctx) }))
	}

	if cfg.Broadcast.Enabled {
		ser, err := codec.ForFormat(cfg.Broadcast.Format)
		if err != nil {
			logger.Fatal().Err(err).Msg("broadcast format")
		}
		producer, err := broadcaster.NewProducer(cfg.Broadcast.Brokers)
		if err != nil {
			logger.Fatal().Err(err).Msg("broadcast producer")
		}
		b := broadcaster.New(svc, producer, cfg.Broadcast.Topic, ser,
			time.Duration(cfg.Broadcast.IntervalMs)*time.Millisecond, logger)
		defer b.Close()
		g.Go(tracked("broadcaster", func() error {
			b.Run(gctx)
			return nil
		}))
	}

	grpcHealth.SetServingStatus(grpcserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	logger.Info().
		Str("symbol", cfg.Book.Symbol).
		Int("capacity", cfg.Book.Capacity).
		Str("grpc", cfg.Server.GRPCAddr).
		Str("metrics", cfg.Server.MetricsAddr).
		Bool("feed", cfg.Feed.Enabled).
		Bool("broadcast", cfg.Broadcast.Enabled).
		Msg("topbook started")

	// ---------------- Shutdown ----------------

	<-gctx.Done()
	if ctx.Err() != nil {
		logger.Info().Msg("shutdown signal received")
	}

	health.Reset()
	grpcHealth.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown")
	}
	grpcServer.GracefulStop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker failed")
	}
	logger.Info().Uint64("seq", svc.Seq()).Msg("shutdown complete")
}

// tracked reports name as ready to /readyz for as long as fn runs.
func tracked(name string, fn func() error) func() error {
	health.Expect(name)
	return func() error {
		health.SetReady(name, true)
		defer health.SetReady(name, false)
		return fn()
	}
}
