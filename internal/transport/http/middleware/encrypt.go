package httpmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cwrk-planet/signaling-service/internal/seal"
	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"
)

const HeaderEncrypted = "X-Encrypted"

// Encrypt seals successful JSON responses to the caller's verified bearer
// token. Anonymous requests and non-2xx responses pass through untouched.
func Encrypt(s *seal.Sealer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := CredentialFromCtx(r.Context())
			if s == nil || cred == "" {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{header: w.Header()}
			next.ServeHTTP(bw, r)

			status := bw.statusCode()
			if status < 200 || status >= 300 || !isJSON(w.Header().Get("Content-Type")) {
				bw.flushTo(w)
				return
			}

			env, err := s.Seal(cred, bytes.TrimSpace(bw.body.Bytes()))
			if err != nil {
				tlog.L(r.Context()).Error("encrypt: seal response failed", "err", err)
				httputil.Error(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			out, err := json.Marshal(env)
			if err != nil {
				httputil.Error(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			w.Header().Set(HeaderEncrypted, "true")
			w.WriteHeader(status)
			_, _ = w.Write(append(out, '\n'))
		})
	}
}

func isJSON(ct string) bool {
	return strings.HasPrefix(ct, "application/json")
}

// bufferedWriter holds the response until the middleware decides what to send.
// It shares the header map with the real writer.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter) {
	w.WriteHeader(b.statusCode())
	_, _ = w.Write(b.body.Bytes())
}
