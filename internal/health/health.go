// Package health exposes the standard gRPC health service, kept in sync with
// the reachability of the database.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Checker struct {
	srv      *health.Server
	db       Pinger
	services []string
	interval time.Duration
	log      *zap.Logger
}

// NewChecker reports services (and the overall "" entry) as NOT_SERVING until
// the first successful ping.
func NewChecker(db Pinger, log *zap.Logger, interval time.Duration, services ...string) *Checker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Checker{
		srv:      health.NewServer(),
		db:       db,
		services: append([]string{""}, services...),
		interval: interval,
		log:      log,
	}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Register adds the health and reflection services to s.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.srv)
	reflection.Register(s)
}

func (c *Checker) Server() healthpb.HealthServer { return c.srv }

// Check pings once and publishes the result.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.db.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		c.log.Warn("database ping failed", zap.Error(err))
	}
	c.set(status)
	return status
}

// Run checks on every tick until ctx is done, then marks everything NOT_SERVING.
func (c *Checker) Run(ctx context.Context) error {
	c.Check(ctx)
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return nil
		case <-t.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) set(status healthpb.HealthCheckResponse_ServingStatus) {
	for _, svc := range c.services {
		c.srv.SetServingStatus(svc, status)
	}
}
