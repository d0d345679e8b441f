package httpmw

import (
	"context"
	"net/http"

	"github.com/cwrk-planet/signaling-service/internal/auth"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"
)

type ctxKey string

const ctxKeyAuth ctxKey = "auth"

type Authenticator interface {
	Authenticate(r *http.Request) auth.Result
}

// Authenticate checks the bearer token on every request and records the
// outcome in the context. It never rejects; RequireAuth does that.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.Authenticate(r)
			ctx := context.WithValue(r.Context(), ctxKeyAuth, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth answers 401 problem+json unless Authenticate accepted the token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := AuthFromCtx(r.Context())
		if !res.Authenticated {
			detail := "authentication required"
			if res.Err != nil {
				detail = res.Err.Error()
			}
			httputil.WriteProblem(w, r, http.StatusUnauthorized, detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AuthFromCtx(ctx context.Context) auth.Result {
	res, _ := ctx.Value(ctxKeyAuth).(auth.Result)
	return res
}

// UserIDFromCtx is empty for anonymous callers.
func UserIDFromCtx(ctx context.Context) string {
	if res := AuthFromCtx(ctx); res.Authenticated {
		return res.UserID
	}
	return ""
}

// CredentialFromCtx returns the bearer token only when it verified.
func CredentialFromCtx(ctx context.Context) string {
	if res := AuthFromCtx(ctx); res.Authenticated {
		return res.Token
	}
	return ""
}
