package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/eventcal/internal/api/handlers"
	"github.com/Togather-Foundation/eventcal/internal/api/middleware"
	"github.com/Togather-Foundation/eventcal/internal/api/problem"
	"github.com/Togather-Foundation/eventcal/internal/audit"
	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/rs/zerolog"
)

// Deps is what the HTTP surface needs from the process.
type Deps struct {
	Config  config.Config
	Logger  zerolog.Logger
	Service *events.Service
	// Stats and Driver feed the readiness report. Both are optional.
	Stats  metrics.StatsSource
	Driver string
	// RateLimiter is owned by the caller, which stops it. Nil builds one
	// from Config that lives as long as the process.
	RateLimiter *middleware.RateLimiter

	Version   string
	GitCommit string
	BuildDate string
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	eventsHandler := handlers.NewEventsHandler(deps.Service, cfg.Environment)
	eventsHandler.Audit = audit.NewLogger(deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.Service, cfg.Environment, "")
	health := handlers.NewHealthChecker(deps.Service, deps.Stats, deps.Driver, deps.Version, deps.GitCommit)

	get := func(h http.Handler) http.Handler {
		return methodMux(map[string]http.Handler{http.MethodGet: h})
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", get(handlers.Healthz()))
	mux.Handle("/health", get(health.Health()))
	mux.Handle("/metrics", get(metrics.Handler()))
	mux.Handle("/version", get(VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate)))
	mux.Handle("/openapi.json", get(OpenAPIHandler()))

	mux.Handle("/event", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	}))
	mux.Handle("/event/today", get(http.HandlerFunc(eventsHandler.Today)))
	mux.Handle("/event/feed.ics", get(http.HandlerFunc(feedHandler.Calendar)))
	mux.Handle("/event/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(eventsHandler.Get),
		http.MethodDelete: http.HandlerFunc(eventsHandler.Delete),
	}))

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.Environment)
	}

	// Built inside out. Nothing below Tracing may replace the request, or
	// the matched pattern is lost to the outer layers.
	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = limiter.Middleware(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

// methodMux dispatches on r.Method and answers anything else with 405.
// HEAD falls back to the GET handler; the server drops the body.
func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlerFor(handlers, r.Method); ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeNotAllowed, "Method not allowed", nil, "")
	})
}

func handlerFor(handlers map[string]http.Handler, method string) (http.Handler, bool) {
	if handler, ok := handlers[method]; ok {
		return handler, true
	}
	if method == http.MethodHead {
		handler, ok := handlers[http.MethodGet]
		return handler, ok
	}
	return nil, false
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers)+1)
	for method := range handlers {
		methods = append(methods, method)
	}
	if _, ok := handlerFor(handlers, http.MethodHead); ok {
		if _, explicit := handlers[http.MethodHead]; !explicit {
			methods = append(methods, http.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
