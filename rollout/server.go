package rollout

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The server side of the rollout service
type Service interface {
	Handle(ctx context.Context, in *structpb.Struct) (*wrapperspb.DoubleValue, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Service)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    evaluateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rollout.proto",
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).Handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: evaluateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Service).Handle(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Serves rollout requests by forwarding them to an Evaluator
type Server struct {
	eval Evaluator
	log  *zap.Logger
}

// Create a new Server and register it on s
func Register(s *grpc.Server, eval Evaluator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{
		eval: eval,
		log:  log,
	}
	s.RegisterService(&serviceDesc, srv)
	return srv
}

func (s *Server) Handle(ctx context.Context, in *structpb.Struct) (*wrapperspb.DoubleValue, error) {
	req, err := requestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	reward, err := s.eval.Evaluate(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		s.log.Warn("rollout evaluation failed", zap.Uint64("state", req.StateID), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.log.Debug("rollout evaluated",
		zap.Uint64("state", req.StateID),
		zap.String("block", req.Block),
		zap.Float64("reward", reward),
	)
	return wrapperspb.Double(reward), nil
}
