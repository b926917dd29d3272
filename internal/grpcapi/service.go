// Package grpcapi is the operator-facing gRPC service. There is no .proto
// codegen: messages are protobuf well-known types and the service
// descriptor below is maintained by hand.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const ServiceName = "healthreminder.ops.v1.ReminderOps"

const (
	MethodRunReminders = "/" + ServiceName + "/RunReminders"
	MethodGetDashboard = "/" + ServiceName + "/GetDashboard"
)

type ReminderOpsServer interface {
	// RunReminders runs the daily batch now and returns when it finishes.
	RunReminders(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	// GetDashboard returns the caller's dashboard as of the given instant,
	// or now when it is unset.
	GetDashboard(context.Context, *timestamppb.Timestamp) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReminderOpsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunReminders", Handler: runRemindersHandler},
		{MethodName: "GetDashboard", Handler: getDashboardHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "healthreminder/ops/v1/ops.proto",
}

func RegisterReminderOpsServer(s grpc.ServiceRegistrar, srv ReminderOpsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func runRemindersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReminderOpsServer).RunReminders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRunReminders}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReminderOpsServer).RunReminders(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getDashboardHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(timestamppb.Timestamp)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReminderOpsServer).GetDashboard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetDashboard}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReminderOpsServer).GetDashboard(ctx, req.(*timestamppb.Timestamp))
	}
	return interceptor(ctx, in, info, handler)
}
