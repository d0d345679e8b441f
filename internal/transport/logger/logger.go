package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/signaling-service/pkg/httputil"
	"github.com/cwrk-planet/signaling-service/pkg/logger"
)

// StatusWriter remembers the status code and byte count of a response.
type StatusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	if sw, ok := w.(*StatusWriter); ok {
		return sw
	}
	return &StatusWriter{ResponseWriter: w}
}

func (w *StatusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *StatusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *StatusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// RequestLogger writes one access line per request; level follows the status class.
// Bodies are never logged: they carry SDP and room keys.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(w)

		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		switch {
		case sw.Status() >= 500:
			level = slog.LevelError
		case sw.Status() >= 400:
			level = slog.LevelWarn
		}

		L(r.Context()).LogAttrs(
			r.Context(),
			level,
			"http_request",
			slog.Int("status", sw.Status()),
			slog.Int64("bytes", sw.bytes),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_ip", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

type ctxKey int

const loggerKey ctxKey = iota

// WithRequestLoggerCtx puts a request-scoped *slog.Logger into the context.
func WithRequestLoggerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, _ := httputil.FromContext(r.Context())
		l := logger.L().With(
			slog.String("req_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
	})
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// L returns the request logger, or the process logger outside a request.
func L(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return logger.L()
}
