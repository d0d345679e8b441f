package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/signaling-service/pkg/httputil"
	"github.com/cwrk-planet/signaling-service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "level=INFO",
		http.StatusNotFound:            "level=WARN",
		http.StatusInternalServerError: "level=ERROR",
	}
	for status, want := range cases {
		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		req := httptest.NewRequest(http.MethodGet, "/signaling/rooms", nil)
		req = req.WithContext(WithLogger(req.Context(), base))
		h.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		assert.Contains(t, out, want)
		assert.Contains(t, out, "msg=http_request")
	}
}

func TestWithRequestLoggerCtx_AddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvDev, Output: &buf})

	h := httputil.MiddlewareRequestID(WithRequestLoggerCtx(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		L(r.Context()).Info("probe")
	})))

	req := httptest.NewRequest(http.MethodPost, "/signaling/offer", nil)
	req.Header.Set(httputil.HeaderRequestID, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"msg=probe", "req_id=req-42", "method=POST", "path=/signaling/offer"} {
		assert.True(t, strings.Contains(out, want), "missing %q in %s", want, out)
	}
}

func TestL_FallsBackToProcessLogger(t *testing.T) {
	assert.Same(t, logger.L(), L(context.Background()))
}

func TestStatusWriter_DefaultsTo200(t *testing.T) {
	sw := NewStatusWriter(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, sw.Status())
	_, _ = sw.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, sw.Status())
	assert.Same(t, sw, NewStatusWriter(sw))
}
