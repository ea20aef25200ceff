package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor continues traces sent by gRPC callers (health probes
// from the shell supervisor) and logs each call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = extractMetadata(ctx)
		ctx, span := StartSpan(ctx, info.FullMethod)
		defer span.End()

		resp, err := handler(ctx, req)
		if err != nil {
			span.SetAttr("error", err.Error())
			Logger(ctx).Debug("grpc call failed", "method", info.FullMethod, "error", err)
		}
		return resp, err
	}
}

func extractMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	traceID := first(md.Get(TraceIDKey))
	if traceID == "" {
		return ctx
	}
	return WithContext(ctx, Context{TraceID: traceID, SpanID: first(md.Get(SpanIDKey))})
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
