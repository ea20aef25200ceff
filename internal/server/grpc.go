package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/snapdeck/internal/trace"
)

// NewGRPC builds the control-plane server. It carries only the standard
// health service: the overall status is SERVING, HealthService follows
// window attachment.
func NewGRPC() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(trace.UnaryServerInterceptor()))
	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}
