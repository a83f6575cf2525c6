package otelobs

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"autoguard/pkg/logging"
)

// HTTPTraceLogMiddleware emits one access-log line per request, carrying the
// active trace and span ids when a trace context is present.
func HTTPTraceLogMiddleware(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		traceID, spanID := "-", "-"
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
			spanID = sc.SpanID().String()
		}
		logging.Infof("access %s %s status=%d bytes=%d dur_ms=%d trace_id=%s span_id=%s",
			r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start).Milliseconds(), traceID, spanID)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}
