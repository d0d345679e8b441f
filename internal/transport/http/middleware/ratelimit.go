package httpmw

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/signaling-service/internal/metrics"
	"github.com/cwrk-planet/signaling-service/internal/ratelimit"
	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"
)

type RateChecker interface {
	Check(ctx context.Context, bucket, subject string, spec ratelimit.Spec) (ratelimit.Decision, error)
}

// KeyFunc picks the subject a bucket is counted against. Empty skips the check.
type KeyFunc func(r *http.Request) string

// ByUser counts per authenticated user, falling back to the client host.
func ByUser(r *http.Request) string {
	if id := UserIDFromCtx(r.Context()); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// maxPeekBody caps how much of a body ByRoomID will buffer.
const maxPeekBody = 64 << 10

// ByRoomID counts per roomId taken from the JSON body. The handler always
// sees the full body; bodies larger than maxPeekBody are not inspected.
func ByRoomID(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody+1))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(data), r.Body), Closer: r.Body}
	if err != nil || len(data) > maxPeekBody {
		return ""
	}
	var body struct {
		RoomID string `json:"roomId"`
	}
	if json.Unmarshal(data, &body) != nil || body.RoomID == "" {
		return ""
	}
	return "room:" + body.RoomID
}

type readCloser struct {
	io.Reader
	io.Closer
}

// RateLimit rejects with 429 once the bucket is spent. Store failures let
// the request through.
func RateLimit(l RateChecker, bucket string, spec ratelimit.Spec, key KeyFunc, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := key(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			d, err := l.Check(r.Context(), bucket, subject, spec)
			if err != nil {
				tlog.L(r.Context()).Warn("ratelimit: store unavailable, allowing request",
					slog.String("bucket", bucket), slog.Any("err", err))
			}
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			m.RateLimited(bucket)
			retry := int64(math.Ceil(d.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
			httputil.ErrorWith(w, http.StatusTooManyRequests, "rate_limited",
				"too many requests", map[string]any{"retryAfter": retry})
		})
	}
}
