package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	ical "github.com/arran4/golang-ical"
)

const feedProductID = "-//Togather Foundation//eventcal//EN"

type FeedHandler struct {
	Service *events.Service
	Env     string
	// Host names event UIDs. Empty uses the request host.
	Host string
	now  func() time.Time
}

func NewFeedHandler(service *events.Service, env string, host string) *FeedHandler {
	return &FeedHandler{Service: service, Env: env, Host: host, now: time.Now}
}

// Calendar serves every event as an all-day VEVENT.
func (h *FeedHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), nil)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	host := h.Host
	if host == "" {
		host = r.Host
	}

	body := BuildCalendar(list, host, h.now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// BuildCalendar renders list as an iCalendar document.
func BuildCalendar(list []events.Event, host string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(feedProductID)

	host = strings.TrimSpace(host)
	if host == "" {
		host = "localhost"
	}

	for _, event := range list {
		vevent := cal.AddEvent(fmt.Sprintf("event-%d@%s", event.ID, host))
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(event.Name)
		vevent.SetAllDayStartAt(event.Date)
		vevent.SetAllDayEndAt(event.Date.AddDate(0, 0, 1))
	}
	return cal.Serialize()
}
