package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/eventcal/internal/api/middleware"
	"github.com/Togather-Foundation/eventcal/internal/api/problem"
	"github.com/Togather-Foundation/eventcal/internal/audit"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
)

const (
	MsgEventAdded   = "The event has been added!"
	MsgEventDeleted = "The event has been deleted!"
)

const maxFormMemory = 1 << 20

type EventsHandler struct {
	Service *events.Service
	Env     string
	// Audit records creates and deletes. Nil disables it.
	Audit *audit.Logger
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

// List serves GET /event, optionally narrowed by start_time and end_time.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	rng, err := events.ParseRange(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.Service.List(r.Context(), rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FormatEvents(list))
}

func (h *EventsHandler) Today(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListToday(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FormatEvents(list))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeCreate(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	draft, err := events.ValidateCreate(input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.Service.Create(r.Context(), draft)
	if err != nil {
		h.recordAudit(r, audit.ActionEventCreate, "", audit.StatusFailure)
		h.writeError(w, r, err)
		return
	}
	metrics.EventsCreated.WithLabelValues("http").Inc()
	h.recordAudit(r, audit.ActionEventCreate, strconv.FormatInt(created.ID, 10), audit.StatusSuccess)

	writeJSON(w, http.StatusOK, CreatedResponse{
		Message: MsgEventAdded,
		Event:   created.Name,
		Date:    events.FormatDate(created.Date),
	})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		h.writeError(w, r, events.ErrNotFound)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FormatEvent(*event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		h.writeError(w, r, events.ErrNotFound)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, events.ErrNotFound) {
			h.recordAudit(r, audit.ActionEventDelete, strconv.FormatInt(id, 10), audit.StatusFailure)
		}
		h.writeError(w, r, err)
		return
	}
	metrics.EventsDeleted.WithLabelValues("http").Inc()
	h.recordAudit(r, audit.ActionEventDelete, strconv.FormatInt(id, 10), audit.StatusSuccess)

	writeJSON(w, http.StatusOK, MessageResponse{Message: MsgEventDeleted})
}

func (h *EventsHandler) recordAudit(r *http.Request, action, resourceID, status string) {
	h.Audit.LogFromRequest(r, middleware.GetRequestID(r.Context()), action, resourceID, status, nil)
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, err, h.Env)
}

// writeServiceError maps domain errors to problem responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var (
		validationErr events.ValidationError
		tooLarge      *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", err, env)
	case errors.As(err, &validationErr):
		metrics.ValidationFailures.WithLabelValues(validationErr.Field).Inc()
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithFieldError(validationErr.Field, validationErr.Message))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env,
			problem.WithMessage(events.MsgEventNotFound))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

// eventID reads a positive decimal id from the path. Anything else names no
// event.
func eventID(r *http.Request) (int64, bool) {
	raw := pathParam(r, "id")
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeCreate reads event and date from a JSON or form body. Fields the
// body leaves empty fall back to query parameters.
func decodeCreate(r *http.Request) (events.CreateInput, error) {
	var input events.CreateInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return input, formError(err)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return input, formError(err)
		}
	default:
		if err := decodeJSONBody(r.Body, &input); err != nil {
			return input, err
		}
	}

	if input.Event == "" {
		input.Event = r.FormValue("event")
	}
	if input.Date == "" {
		input.Date = r.FormValue("date")
	}
	return input, nil
}

func decodeJSONBody(body io.Reader, input *events.CreateInput) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(input)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var (
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return err
	case errors.As(err, &typeErr):
		return events.FieldMessage(typeErr.Field)
	default:
		return events.ValidationError{Field: "body", Message: events.MsgInvalidBody}
	}
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return events.ValidationError{Field: "body", Message: events.MsgInvalidBody}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
