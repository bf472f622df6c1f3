// @title        Ordenes Order Service API
// @version      1.0
// @description  Checkout, payment confirmation and order reads.
// @BasePath     /
package main

import (
	"context"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	_ "github.com/MikeMC777/ordenes-ecom/docs"
	"github.com/MikeMC777/ordenes-ecom/internal/cart"
	"github.com/MikeMC777/ordenes-ecom/internal/config"
	"github.com/MikeMC777/ordenes-ecom/internal/health"
	"github.com/MikeMC777/ordenes-ecom/internal/logging"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/order"
	"github.com/MikeMC777/ordenes-ecom/internal/outbox"
	"github.com/MikeMC777/ordenes-ecom/internal/payment/klarna"
	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

func main() {
	cfg := config.Load()
	log, err := logging.New("order-service", cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("order-service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := cfg.ValidatePayments(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := store.Migrate(ctx, pool); err != nil {
		return err
	}

	m := metrics.New()
	opts := klarna.FromConfig(cfg.Klarna)
	opts.Log = log
	opts.Observe = m.ObserveGateway
	svc := order.NewService(cart.NewPGRepo(pool), order.NewPGRepo(pool), klarna.New(opts), log, m)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.OrderSvcAddr,
		Handler:           newRouter(svc, log, m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	checker := health.NewChecker(pool, log, 5*time.Second, "ordenes.OrderService")
	grpcSrv := grpc.NewServer()
	checker.Register(grpcSrv)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.OrderSvcAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.OrderGRPCAddr)
		if err != nil {
			return err
		}
		log.Info("grpc listening", zap.String("addr", cfg.OrderGRPCAddr))
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error { return checker.Run(gctx) })

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := outbox.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OutboxTopic)
		if err != nil {
			return err
		}
		defer pub.Close()
		relay := outbox.NewRelay(outbox.NewPGSource(pool), pub, log, cfg.OutboxPollInterval)
		relay.OnResult = func(result string, n int) {
			m.OutboxEvents.WithLabelValues(result).Add(float64(n))
		}
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		log.Warn("KAFKA_BROKERS empty, outbox relay disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcSrv.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
