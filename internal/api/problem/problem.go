package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const (
	TypeValidation  = "https://eventcal.togather.foundation/problems/validation-error"
	TypeNotFound    = "https://eventcal.togather.foundation/problems/not-found"
	TypeNotAllowed  = "https://eventcal.togather.foundation/problems/method-not-allowed"
	TypeTooLarge    = "https://eventcal.togather.foundation/problems/payload-too-large"
	TypeRateLimited = "https://eventcal.togather.foundation/problems/rate-limited"
	TypeServerError = "https://eventcal.togather.foundation/problems/server-error"
)

// ProblemDetails is an RFC 7807 body whose message member carries the
// text shown to API clients.
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Message  string            `json:"message"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithMessage(message string) Option {
	return func(p *ProblemDetails) {
		p.Message = message
	}
}

// WithFieldError records which request field failed.
func WithFieldError(field, message string) Option {
	return func(p *ProblemDetails) {
		if field == "" {
			return
		}
		if p.Errors == nil {
			p.Errors = map[string]string{}
		}
		p.Errors[field] = message
	}
}

// Write logs err through the request logger and writes a problem body.
// Client errors expose err's text as the message; server errors only do so
// in development and test environments.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Message == "" {
		switch {
		case err != nil && status < 500:
			problem.Message = err.Error()
		case err != nil && (env == "development" || env == "test"):
			problem.Message = err.Error()
		default:
			problem.Message = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500,\"message\":\"%s\"}",
			http.StatusText(http.StatusInternalServerError), http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
