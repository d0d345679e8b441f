package httpmw

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"
)

// Recoverer turns a handler panic into a JSON 500. The stack goes to the log only.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			tlog.L(r.Context()).Error("panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			httputil.Error(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
