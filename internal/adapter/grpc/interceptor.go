package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata.
// Both "Bearer <token>" and the bare token are accepted.
// If the token is missing or invalid, it returns status.Unauthenticated.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeaders[0], "Bearer "))
		if token != validToken {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor attaches a request-scoped logger to the context and logs each call once it completes
func LoggingInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		entry := logger.WithField("method", info.FullMethod)

		resp, err := handler(logging.WithLogger(ctx, entry), req)

		fields := logrus.Fields{
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}
		if err != nil && status.Code(err) == codes.Internal {
			entry.WithFields(fields).Warn("rpc failed")
		} else {
			entry.WithFields(fields).Info("rpc handled")
		}
		return resp, err
	}
}
