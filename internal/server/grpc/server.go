// Package grpc serves the standard gRPC health protocol so orchestrators
// can probe the API process and its database.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/vat/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service reported alongside the overall "".
const ServiceName = "vat.api"

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type HealthServer struct {
	address  string
	logger   logging.Logger
	health   *health.Server
	check    Check
	interval time.Duration

	mu      sync.Mutex
	serving bool
}

// NewHealthServer builds the server. check may be nil, in which case the
// process reports SERVING for as long as it runs.
func NewHealthServer(address string, check Check, interval time.Duration, l logging.Logger) *HealthServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthServer{
		address:  address,
		logger:   l.With("module", "grpc_health"),
		health:   health.NewServer(),
		check:    check,
		interval: interval,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (s *HealthServer) watch(ctx context.Context) {
	if s.check == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

// probe runs the check once and publishes the result.
func (s *HealthServer) probe(ctx context.Context) {
	ok := true
	if s.check != nil {
		cctx, cancel := context.WithTimeout(ctx, s.interval)
		err := s.check(cctx)
		cancel()
		if err != nil {
			ok = false
			s.logger.Warn(ctx, "health check failed", "error", err)
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)

	s.mu.Lock()
	changed := s.serving != ok
	s.serving = ok
	s.mu.Unlock()
	if changed {
		s.logger.Info(ctx, "serving status changed", "status", status.String())
	}
}
