// Package middleware provides HTTP middleware components
// following the Chain of Responsibility pattern
package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/gourmetguru/api/internal/infrastructure/monitoring"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Middleware provides all middleware functions
type Middleware struct {
	config  *config.Config
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a new middleware instance
func New(cfg *config.Config, logger *zap.Logger) *Middleware {
	perSecond := rate.Limit(float64(cfg.RateLimit.RequestsPerMin) / 60)
	return &Middleware{
		config:  cfg,
		logger:  logger.Named("http"),
		limiter: rate.NewLimiter(perSecond, cfg.RateLimit.BurstSize),
	}
}

// RequestID reuses the caller's X-Request-ID or assigns a new one. The id
// is readable with chi's GetReqID.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := r.Context()
		ctx = contextWithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger provides structured logging for requests. Health probes are not
// logged.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if path == m.config.Monitoring.HealthCheckPath || path == m.config.Monitoring.ReadinessPath {
			return
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.String("ip", r.RemoteAddr),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		}
		if identity := IdentityFromContext(r.Context()); identity != nil {
			fields = append(fields, zap.String("uid", identity.UID))
		}
		fields = append(fields, monitoring.TraceFields(r.Context())...)

		switch {
		case status >= 500:
			m.logger.Error("Server error", fields...)
		case status >= 400:
			m.logger.Warn("Client error", fields...)
		default:
			m.logger.Info("Request completed", fields...)
		}
	})
}

// Recovery recovers from panics and returns 500 error
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				requestID := chimw.GetReqID(r.Context())
				m.logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.Any("error", rec),
					zap.String("stack", string(debug.Stack())),
				)
				WriteError(w, apperrors.NewInternalError("Internal server error"), requestID)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Security adds security headers
func (m *Middleware) Security(next http.Handler) http.Handler {
	csp := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: https:",
		"font-src 'self' data:",
		"connect-src 'self' ws: wss:",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"object-src 'none'",
	}, "; ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing. Every origin is allowed in
// development.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	if !m.config.Server.EnableCORS {
		return passthrough
	}

	origins := m.config.Server.AllowedOrigins
	if m.config.IsDevelopment() {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           86400,
	})
	return c.Handler
}

// OriginAllowed returns a websocket origin check against the CORS allow list
func OriginAllowed(origins []string) func(r *http.Request) bool {
	return cors.New(cors.Options{AllowedOrigins: origins}).OriginAllowed
}

// RateLimit rejects requests beyond the configured global rate
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if !m.config.RateLimit.Enable {
		return next
	}
	retryAfter := strconv.Itoa(int(time.Minute.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow() {
			w.Header().Set("Retry-After", retryAfter)
			WriteError(w, apperrors.NewAppError(apperrors.CodeTooManyRequests, "Rate limit exceeded", ""),
				chimw.GetReqID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Compression negotiates brotli or gzip response encoding
func (m *Middleware) Compression() func(http.Handler) http.Handler {
	if !m.config.Server.EnableCompression {
		return passthrough
	}

	c := chimw.NewCompressor(5, "application/json", "text/html", "text/css", "application/javascript", "text/plain")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c.Handler
}

// Tracing opens a server span per request when tracing is enabled
func (m *Middleware) Tracing(operation string) func(http.Handler) http.Handler {
	if !m.config.Monitoring.EnableTracing {
		return passthrough
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}

// Timeout bounds the request context
func (m *Middleware) Timeout() func(http.Handler) http.Handler {
	if m.config.Server.RequestTimeout <= 0 {
		return passthrough
	}
	return chimw.Timeout(m.config.Server.RequestTimeout)
}

// WriteError writes err in the API error envelope
func WriteError(w http.ResponseWriter, err *apperrors.AppError, requestID string) {
	body := struct {
		Success bool                   `json:"success"`
		Error   apperrors.ErrorDetails `json:"error"`
	}{
		Error: apperrors.ToErrorResponse(err, requestID).Error,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	_ = json.NewEncoder(w).Encode(body)
}

func passthrough(next http.Handler) http.Handler { return next }

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
