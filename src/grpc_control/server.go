package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") health status.
const ServiceName = "stockdash.Dashboard"

// DefaultPort is used when grpc_port is unset.
const DefaultPort = 50051

// ControlServer exposes grpc.health.v1 and server reflection.
type ControlServer struct {
	Config *models.MConfig
	Store  interfaces.IStockStore
	Logger *logger.Logger
	server *grpc.Server
	health *health.Server
}

// -----------------------------------------------------------------------------

func NewControlServer(cfg *models.MConfig, store interfaces.IStockStore, log *logger.Logger) *ControlServer {
	srv := grpc.NewServer()
	hs := health.NewServer()

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	cs := &ControlServer{
		Config: cfg,
		Store:  store,
		Logger: log,
		server: srv,
		health: hs,
	}
	cs.SetNotServing()
	return cs
}

// -----------------------------------------------------------------------------

func (cs *ControlServer) Addr() string {
	port := cs.Config.GrpcPort
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", cs.Config.GrpcHost, port)
}

// -----------------------------------------------------------------------------

func (cs *ControlServer) SetServing() {
	cs.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	cs.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (cs *ControlServer) SetNotServing() {
	cs.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	cs.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

// -----------------------------------------------------------------------------

// Serve listens on Addr and blocks until Stop.
func (cs *ControlServer) Serve() error {
	lis, err := net.Listen("tcp", cs.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return cs.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (cs *ControlServer) ServeListener(lis net.Listener) error {
	cs.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	if err := cs.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// WatchStore pings the store every interval and mirrors the result in the
// health status until ctx ends.
func (cs *ControlServer) WatchStore(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := cs.Store.Ping(pingCtx)
			cancel()

			switch {
			case err != nil && serving:
				cs.Logger.Warning("Store ping failed, reporting NOT_SERVING: %v", err)
				cs.SetNotServing()
				serving = false
			case err == nil && !serving:
				cs.Logger.Info("Store reachable again, reporting SERVING")
				cs.SetServing()
				serving = true
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Stop flips health to NOT_SERVING and drains in-flight RPCs.
func (cs *ControlServer) Stop() {
	cs.SetNotServing()
	cs.server.GracefulStop()
}
