package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"health-reminder-api/internal/middleware"
	"health-reminder-api/internal/model"
	"health-reminder-api/internal/reminder"
)

// Runner triggers a registered job; satisfied by *reminder.Scheduler.
type Runner interface {
	RunNow(ctx context.Context, name string) error
}

type Server struct {
	jobs      Runner
	job       string
	dashboard *reminder.DashboardService
	log       zerolog.Logger
	now       func() time.Time
}

var _ ReminderOpsServer = (*Server)(nil)

func NewServer(jobs Runner, job string, dash *reminder.DashboardService, log zerolog.Logger) *Server {
	return &Server{
		jobs:      jobs,
		job:       job,
		dashboard: dash,
		log:       log.With().Str("component", "grpc").Logger(),
		now:       time.Now,
	}
}

func (s *Server) RunReminders(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.log.Info().Str("job", s.job).Msg("manual reminder run requested")
	err := s.jobs.RunNow(ctx, s.job)
	switch {
	case err == nil:
		return &emptypb.Empty{}, nil
	case errors.Is(err, reminder.ErrAlreadyRunning):
		return nil, status.Error(codes.FailedPrecondition, "a reminder run is already in progress")
	case errors.Is(err, reminder.ErrStopped):
		return nil, status.Error(codes.Unavailable, "scheduler is shutting down")
	default:
		s.log.Error().Err(err).Msg("manual reminder run")
		return nil, status.Error(codes.Internal, "internal error")
	}
}

func (s *Server) GetDashboard(ctx context.Context, asOf *timestamppb.Timestamp) (*structpb.Struct, error) {
	uid, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, middleware.CredentialsError)
	}

	now := s.now()
	if asOf != nil && (asOf.GetSeconds() != 0 || asOf.GetNanos() != 0) {
		if err := asOf.CheckValid(); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		now = asOf.AsTime()
	}

	d, err := s.dashboard.Dashboard(ctx, uid, now)
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "User not found")
	}
	if err != nil {
		s.log.Error().Err(err).Str("user_id", uid).Msg("dashboard")
		return nil, status.Error(codes.Internal, "internal error")
	}
	return toStruct(d)
}

// toStruct reuses the REST JSON shape for the gRPC response.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

type Options struct {
	Secret  string
	OpsKey  string
	Limiter *middleware.RateLimiter
}

// NewGRPCServer builds the server with the ops and health services
// registered. Interceptors run rate limit first, then auth.
func NewGRPCServer(srv ReminderOpsServer, o Options) (*grpc.Server, *health.Server) {
	var ics []grpc.UnaryServerInterceptor
	if o.Limiter != nil {
		ics = append(ics, middleware.UnaryRateLimit(o.Limiter))
	}
	ics = append(ics, middleware.Auth(o.Secret, o.OpsKey))

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(ics...))
	RegisterReminderOpsServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

// Shutdown drains gs, then closes whatever is still open once ctx ends.
func Shutdown(ctx context.Context, gs *grpc.Server) error {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		gs.Stop()
		return ctx.Err()
	}
}
