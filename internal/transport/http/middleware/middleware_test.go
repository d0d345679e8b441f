package httpmw

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/auth"
	"github.com/cwrk-planet/signaling-service/internal/ratelimit"
	"github.com/cwrk-planet/signaling-service/internal/seal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAuth auth.Result

func (f fixedAuth) Authenticate(*http.Request) auth.Result { return auth.Result(f) }

var authed = fixedAuth{Authenticated: true, UserID: "u1", Token: "tok"}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", UserIDFromCtx(r.Context()))
		assert.Equal(t, "tok", CredentialFromCtx(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	Authenticate(authed)(RequireAuth(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	anon := fixedAuth{Err: auth.ErrMissingToken, Status: http.StatusUnauthorized}
	Authenticate(anon)(RequireAuth(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestCredentialOnlyWhenVerified(t *testing.T) {
	var cred, user string
	h := Authenticate(fixedAuth{Token: "forged", Err: auth.ErrInvalidToken})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred = CredentialFromCtx(r.Context())
		user = UserIDFromCtx(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, cred)
	assert.Empty(t, user)
}

type stubChecker struct {
	decision ratelimit.Decision
	err      error
	subjects []string
}

func (s *stubChecker) Check(_ context.Context, _, subject string, _ ratelimit.Spec) (ratelimit.Decision, error) {
	s.subjects = append(s.subjects, subject)
	return s.decision, s.err
}

func TestRateLimit_Reject(t *testing.T) {
	c := &stubChecker{decision: ratelimit.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}}
	h := RateLimit(c, "join", ratelimit.Spec{Limit: 1, Window: time.Hour}, ByUser, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	Authenticate(authed)(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"user:u1"}, c.subjects)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	c := &stubChecker{decision: ratelimit.Decision{Allowed: true}, err: errors.New("redis down")}
	called := false
	h := RateLimit(c, "signal", ratelimit.Spec{Limit: 1, Window: time.Hour}, ByUser, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
}

func TestByRoomID_RestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"roomId":"r7"}`))
	assert.Equal(t, "room:r7", ByRoomID(req))

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"r7"}`, string(rest))

	assert.Empty(t, ByRoomID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))))
	assert.Empty(t, ByRoomID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`))))
}

func TestByRoomID_LargeBodyReachesHandlerIntact(t *testing.T) {
	body := `{"roomId":"r7","pad":"` + strings.Repeat("x", maxPeekBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	assert.Empty(t, ByRoomID(req))

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest))
	require.NoError(t, req.Body.Close())
}

func TestByUser_FallbackIgnoresPort(t *testing.T) {
	a := httptest.NewRequest(http.MethodPost, "/", nil)
	a.RemoteAddr = "203.0.113.9:51000"
	b := httptest.NewRequest(http.MethodPost, "/", nil)
	b.RemoteAddr = "203.0.113.9:51001"

	assert.Equal(t, "ip:203.0.113.9", ByUser(a))
	assert.Equal(t, ByUser(a), ByUser(b))

	c := httptest.NewRequest(http.MethodPost, "/", nil)
	c.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "ip:203.0.113.9", ByUser(c))
}

func TestEncrypt(t *testing.T) {
	s := seal.New("salt")
	jsonHandler := func(status int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"success":true}` + "\n"))
		})
	}

	rec := httptest.NewRecorder()
	Authenticate(authed)(Encrypt(s)(jsonHandler(http.StatusOK))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(HeaderEncrypted))
	var env seal.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	plain, err := s.Open("tok", &env)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, string(plain))

	rec = httptest.NewRecorder()
	Authenticate(authed)(Encrypt(s)(jsonHandler(http.StatusNotFound))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	text := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	Authenticate(authed)(Encrypt(s)(text)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	Authenticate(authed)(Encrypt(nil)(jsonHandler(http.StatusOK))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get(HeaderEncrypted))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "goroutine")
}
