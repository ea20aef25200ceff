package trace

import "net/http"

// Middleware continues the caller's trace (x-trace-id / x-span-id headers) or
// starts a new one, and echoes the trace id on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := Context{
			TraceID:      r.Header.Get(TraceIDKey),
			ParentSpanID: r.Header.Get(SpanIDKey),
			SpanID:       newSpanID(),
		}
		if tc.TraceID == "" {
			tc.TraceID = newTraceID()
		}
		w.Header().Set(TraceIDKey, tc.TraceID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}
