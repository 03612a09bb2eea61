package grpc_control

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingStore struct {
	interfaces.IStockStore
	err error
}

func (p *pingStore) Ping(ctx context.Context) error { return p.err }

func startControl(t *testing.T, store interfaces.IStockStore) (*ControlServer, healthpb.HealthClient) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cs := NewControlServer(&models.MConfig{GrpcHost: "127.0.0.1"}, store, logger.NewLogger("test"))
	go cs.ServeListener(lis)
	t.Cleanup(cs.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return cs, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthStatusTransitions(t *testing.T) {
	cs, client := startControl(t, &pingStore{})

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))

	cs.SetServing()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName))

	cs.SetNotServing()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))
}

func TestWatchStoreMirrorsPing(t *testing.T) {
	store := &pingStore{err: errors.New("database is locked")}
	cs, client := startControl(t, store)
	cs.SetServing()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cs.WatchStore(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return check(t, client, "") == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAddrDefaultsPort(t *testing.T) {
	cs := NewControlServer(&models.MConfig{GrpcHost: "0.0.0.0"}, &pingStore{}, logger.NewLogger("test"))
	assert.Equal(t, "0.0.0.0:50051", cs.Addr())
}
