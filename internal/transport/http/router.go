package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/metrics"
	"github.com/cwrk-planet/signaling-service/internal/ratelimit"
	"github.com/cwrk-planet/signaling-service/internal/seal"
	httpmw "github.com/cwrk-planet/signaling-service/internal/transport/http/middleware"
	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Limits struct {
	Create    ratelimit.Spec
	Join      ratelimit.Spec
	Signal    ratelimit.Spec
	Heartbeat ratelimit.Spec
}

type Deps struct {
	Handler *Handler
	Auth    httpmw.Authenticator
	Limiter httpmw.RateChecker
	Limits  Limits

	// Sealer encrypts responses for authenticated callers; nil disables it.
	Sealer *seal.Sealer

	Metrics     *metrics.Metrics
	MetricsPath string

	AllowedOrigins []string
	Timeout        time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(tlog.WithRequestLoggerCtx)
	r.Use(tlog.RequestLogger)
	r.Use(httpmw.Recoverer)
	r.Use(httpmw.Metrics(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", httputil.HeaderRequestID},
		ExposedHeaders: []string{"Retry-After", httputil.HeaderRequestID, httpmw.HeaderEncrypted},
		MaxAge:         300,
	}))

	if d.Metrics != nil && d.MetricsPath != "" {
		r.Method(http.MethodGet, d.MetricsPath, d.Metrics.Handler())
	}

	h := d.Handler
	limit := func(bucket string, spec ratelimit.Spec, key httpmw.KeyFunc) func(http.Handler) http.Handler {
		return httpmw.RateLimit(d.Limiter, bucket, spec, key, d.Metrics)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Timeout(d.Timeout))
		pr.Use(httpmw.Authenticate(d.Auth))
		pr.Use(httpmw.Encrypt(d.Sealer))

		pr.Get("/health", h.Health)

		pr.Route("/signaling", func(sr chi.Router) {
			// anonymous: a peer may poll before it holds a token
			sr.Get("/offer/{roomId}", h.GetOffer)
			sr.Get("/answer/{roomId}", h.GetAnswer)
			sr.Get("/rooms", h.ListRooms)
			sr.Get("/party-rooms/{parentRoomId}", h.GetPartyRooms)
			sr.Post("/leave", h.LeaveRoom)
			sr.With(limit("heartbeat", d.Limits.Heartbeat, httpmw.ByRoomID)).
				Post("/heartbeat", h.Heartbeat)

			sr.Group(func(ar chi.Router) {
				ar.Use(httpmw.RequireAuth)

				ar.With(limit("create", d.Limits.Create, httpmw.ByUser)).Post("/create-room", h.CreateRoom)
				ar.With(limit("create", d.Limits.Create, httpmw.ByUser)).Post("/create-party-room", h.CreatePartyRoom)
				ar.With(limit("join", d.Limits.Join, httpmw.ByUser)).Post("/join-room", h.JoinRoom)
				ar.With(limit("signal", d.Limits.Signal, httpmw.ByUser)).Post("/offer", h.SendOffer)
				ar.With(limit("signal", d.Limits.Signal, httpmw.ByUser)).Post("/answer", h.SendAnswer)
				ar.Post("/party-room/{roomId}/invite", h.InviteToPartyRoom)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	return r
}
