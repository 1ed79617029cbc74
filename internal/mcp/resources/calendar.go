// Package resources exposes read-only calendar views as MCP resources.
package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/api/handlers"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// CalendarURI identifies the iCalendar export of every event.
	CalendarURI      = "eventcal://events/feed.ics"
	calendarMIMEType = "text/calendar"
)

type CalendarResources struct {
	eventsService *events.Service
	host          string
	now           func() time.Time
}

func NewCalendarResources(eventsService *events.Service, host string) *CalendarResources {
	return &CalendarResources{eventsService: eventsService, host: host, now: time.Now}
}

func (r *CalendarResources) Resource() mcp.Resource {
	return mcp.NewResource(
		CalendarURI,
		"Event calendar",
		mcp.WithResourceDescription("All events as an RFC 5545 calendar of all-day entries"),
		mcp.WithMIMEType(calendarMIMEType),
	)
}

func (r *CalendarResources) ReadHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if r == nil || r.eventsService == nil {
		return nil, fmt.Errorf("events service not configured")
	}

	list, err := r.eventsService.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	responseURI := CalendarURI
	if request.Params.URI != "" {
		responseURI = request.Params.URI
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      responseURI,
			MIMEType: calendarMIMEType,
			Text:     handlers.BuildCalendar(list, r.host, r.now().UTC()),
		},
	}, nil
}
