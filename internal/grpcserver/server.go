// Package grpcserver exposes the standard gRPC health service for the
// recommender, with a serving status that follows catalog reachability.
package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name clients probe for the recommender.
const ServiceName = "recommender.v1.StoreRecommender"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the health refresh loop.
type Options struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// Server wraps a grpc.Server carrying the health and reflection services.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	catalog Pinger
	opts    Options
	logger  zerolog.Logger
}

// New builds a server whose health follows catalog.Ping. It starts out
// NOT_SERVING until the first check passes.
func New(catalog Pinger, opts Options, serverOpts ...grpc.ServerOption) *Server {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 10 * time.Second
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}

	s := &Server{
		grpc:    grpc.NewServer(serverOpts...),
		health:  health.NewServer(),
		catalog: catalog,
		opts:    opts,
		logger:  log.With().Str("component", "grpc").Logger(),
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// GRPC returns the underlying server for registering more services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server listening")
	return s.grpc.Serve(lis)
}

// Check pings the catalog once and publishes the resulting status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.catalog.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn().Err(err).Msg("Catalog health check failed")
	}
	s.setStatus(status)
	return status
}

// Watch re-checks the catalog every CheckInterval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.Check(ctx)

	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains connections. If ctx
// expires first the remaining connections are closed.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("gRPC graceful stop timed out, forcing")
		s.grpc.Stop()
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
