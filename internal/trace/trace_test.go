package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestIDLengths(t *testing.T) {
	if id := newTraceID(); len(id) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(id))
	}
	if id := newSpanID(); len(id) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(id))
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newTraceID()
		if seen[id] {
			t.Error("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestNewChild(t *testing.T) {
	parent := New()
	child := NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be parent's span ID")
	}

	orphan := NewChild(Context{})
	if orphan.TraceID == "" || orphan.ParentSpanID != "" {
		t.Errorf("empty parent should yield a root context, got %+v", orphan)
	}
}

func TestEnsureContext(t *testing.T) {
	ctx, tc := EnsureContext(context.Background())
	if len(tc.TraceID) != 32 {
		t.Error("should create trace ID")
	}

	_, tc2 := EnsureContext(ctx)
	if tc2.TraceID != tc.TraceID {
		t.Error("should return existing trace")
	}
}

func TestFromID(t *testing.T) {
	ctx := FromID(context.Background(), "abc123")
	tc, ok := FromContext(ctx)
	if !ok || tc.TraceID != "abc123" {
		t.Errorf("FromID did not carry trace id: %+v", tc)
	}

	ctx = FromID(context.Background(), "")
	if _, ok := FromContext(ctx); !ok {
		t.Error("empty id should still start a trace")
	}
}

func TestSpanNested(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "take_screenshot")
	_, child := StartSpan(ctx, "capture")

	if child.Ctx.TraceID != parent.Ctx.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Error("child's parent should be parent's span")
	}

	if parent.Duration() != 0 {
		t.Error("open span should report zero duration")
	}
	child.SetAttr("strategy", "display")
	child.End()
	if child.EndTime.IsZero() {
		t.Error("span should have end time")
	}
	if child.Attrs["strategy"] != "display" {
		t.Error("span attribute mismatch")
	}
}

func TestMiddleware(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody)
	req.Header.Set(TraceIDKey, "trace-from-shell")
	req.Header.Set(SpanIDKey, "span-from-shell")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.TraceID != "trace-from-shell" {
		t.Errorf("TraceID = %q", got.TraceID)
	}
	if got.ParentSpanID != "span-from-shell" {
		t.Errorf("ParentSpanID = %q", got.ParentSpanID)
	}
	if rec.Header().Get(TraceIDKey) != "trace-from-shell" {
		t.Error("trace id should be echoed on the response")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if len(got.TraceID) != 32 {
		t.Errorf("missing header should start a trace, got %q", got.TraceID)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	md := metadata.Pairs(TraceIDKey, "grpc-trace", SpanIDKey, "grpc-span")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var got Context
	_, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, _ any) (any, error) {
			got, _ = FromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if got.TraceID != "grpc-trace" {
		t.Errorf("TraceID = %q, want grpc-trace", got.TraceID)
	}
	if got.ParentSpanID != "grpc-span" {
		t.Errorf("ParentSpanID = %q, want grpc-span", got.ParentSpanID)
	}
}
