package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/httpapi"
)

type LoggerOptions struct {
	RequestIDHeader string
	RealIPHeader    string
	// Paths with this prefix get a JSON body on recovered panics.
	APIPrefix string
	Repanic   bool
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
		APIPrefix:       "/dtr/api",
	}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func headerOr(r *http.Request, name, fallback string) string {
	if name != "" {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return fallback
}

var tracer = otel.Tracer("campus-sdk-middleware")

// WithLogger logs request start and completion, opens an http.request span,
// and binds the request logger and request id to the context.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := headerOr(r, opts.RequestIDHeader, uuid.New().String())
			realIP := headerOr(r, opts.RealIPHeader, r.RemoteAddr)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"path":       r.RequestURI,
				"method":     r.Method,
			})
			fieldsLogger.WithFields(logrus.Fields{
				"host":       r.Host,
				"ip":         realIP,
				"user-agent": r.UserAgent(),
			}).Info("request started")

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(
				ctx,
				"http.request",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.request_id", requestID),
					attribute.String("net.peer.ip", realIP),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set("X-Request-Id", requestID)

			ctx = composables.WithLogger(ctx, fieldsLogger)
			ctx = composables.WithRequestID(ctx, requestID)
			ctx = contextWithStart(ctx, start)

			sw := &statusWriter{ResponseWriter: w}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				fieldsLogger.WithFields(logrus.Fields{
					"panic":    recovered,
					"stack":    string(debug.Stack()),
					"duration": time.Since(start),
				}).Error("panic recovered in request handler")

				if !sw.statusWritten {
					if opts.APIPrefix != "" && strings.HasPrefix(r.URL.Path, opts.APIPrefix) {
						_ = httpapi.WriteError(sw, http.StatusInternalServerError, requestID, "INTERNAL_SERVER_ERROR", "internal server error")
					} else {
						http.Error(sw, "Internal Server Error", http.StatusInternalServerError)
					}
				}
				if opts.Repanic {
					panic(recovered)
				}
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			duration := time.Since(start)
			fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"completed":    true,
				"status-code":  status,
				"status-class": status / 100,
			}).Info("request completed")
			span.SetAttributes(
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
				attribute.Int("http.status_code", status),
			)
		})
	}
}
