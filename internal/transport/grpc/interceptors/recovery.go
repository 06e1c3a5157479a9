package interceptors

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryInterceptor turns handler panics into Internal errors.
type RecoveryInterceptor struct {
	logger *zap.Logger
}

// NewRecoveryInterceptor constructs a new RecoveryInterceptor instance.
func NewRecoveryInterceptor(logger *zap.Logger) *RecoveryInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryInterceptor{logger: logger}
}

// Unary returns the unary server interceptor.
func (ri *RecoveryInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer ri.recover(info.FullMethod, &err)
		return handler(ctx, req)
	}
}

// Stream returns the stream server interceptor.
func (ri *RecoveryInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer ri.recover(info.FullMethod, &err)
		return handler(srv, ss)
	}
}

func (ri *RecoveryInterceptor) recover(method string, err *error) {
	if p := recover(); p != nil {
		ri.logger.Error("gRPC handler panic",
			zap.String("method", method),
			zap.Any("panic", p),
			zap.ByteString("stack", debug.Stack()),
		)
		*err = status.Error(codes.Internal, "internal error")
	}
}
