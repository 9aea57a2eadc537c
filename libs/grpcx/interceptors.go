package grpcx

import (
	"context"
	"strings"

	"github.com/clevery/dayplanner/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDMetadataKey mirrors httpx.RequestIDHeader in gRPC's lowercase form.
var RequestIDMetadataKey = strings.ToLower(httpx.RequestIDHeader)

// UnaryServerRequestIDInterceptor stores the caller's request id (or a new one)
// under the same context key httpx uses and echoes it in the response header.
func UnaryServerRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var raw string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
				raw = vals[0]
			}
		}
		id := httpx.AcceptRequestID(raw)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, id))
		return handler(httpx.ContextWithRequestID(ctx, id), req)
	}
}
