package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service exposed by the daemon
const ServiceName = "shipman.daemon.v1.Autopilot"

// Method names as they appear on the wire
const (
	methodStatus       = "Status"
	methodStart        = "Start"
	methodStop         = "Stop"
	methodRunNow       = "RunNow"
	methodResetSession = "ResetSession"
	methodRefresh      = "Refresh"
	methodSubscribe    = "Subscribe"
)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AutopilotServiceServer is the server side of the daemon service.
// Payloads are generic structs so the CLI and daemon share no generated code;
// the field layout is defined by the view types in views.go.
type AutopilotServiceServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Start(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RunNow(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ResetSession(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Refresh(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Subscribe(*emptypb.Empty, EventStream) error
}

// EventStream is the server end of Subscribe
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

// RegisterAutopilotServiceServer attaches srv to a grpc.Server
func RegisterAutopilotServiceServer(s grpc.ServiceRegistrar, srv AutopilotServiceServer) {
	s.RegisterService(&autopilotServiceDesc, srv)
}

func unaryHandler(name string, call func(AutopilotServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl := srv.(AutopilotServiceServer)
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(impl, ctx, req.(*emptypb.Empty))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AutopilotServiceServer).Subscribe(in, &eventStream{stream})
}

var autopilotServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AutopilotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(methodStatus, AutopilotServiceServer.Status),
		unaryHandler(methodStart, AutopilotServiceServer.Start),
		unaryHandler(methodStop, AutopilotServiceServer.Stop),
		unaryHandler(methodRunNow, AutopilotServiceServer.RunNow),
		unaryHandler(methodResetSession, AutopilotServiceServer.ResetSession),
		unaryHandler(methodRefresh, AutopilotServiceServer.Refresh),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    methodSubscribe,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "shipman/daemon/v1/autopilot",
}
