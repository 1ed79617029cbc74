package tools

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/eventcal/internal/api/handlers"
	"github.com/Togather-Foundation/eventcal/internal/audit"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
)

const transportLabel = "mcp"

// EventTools exposes the event operations as MCP tools. Results use the
// same JSON shapes as the HTTP API.
type EventTools struct {
	eventsService *events.Service
	audit         *audit.Logger
}

// NewEventTools builds the tools. auditLogger may be nil.
func NewEventTools(eventsService *events.Service, auditLogger *audit.Logger) *EventTools {
	return &EventTools{eventsService: eventsService, audit: auditLogger}
}

func (t *EventTools) ListEventsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_events",
		Description: "List calendar events. When start_time is given, end_time is required and only events dated within the inclusive range are returned.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"start_time": dateProperty("First day of the range (YYYY-MM-DD)"),
				"end_time":   dateProperty("Last day of the range (YYYY-MM-DD)"),
			},
		},
	}
}

func (t *EventTools) ListEventsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	args := struct {
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
	}{}
	if err := decodeArguments(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	values := url.Values{}
	if args.StartTime != nil {
		values.Set("start_time", strings.TrimSpace(*args.StartTime))
	}
	if args.EndTime != nil {
		values.Set("end_time", strings.TrimSpace(*args.EndTime))
	}

	rng, err := events.ParseRange(values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := t.eventsService.List(ctx, rng)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list events", err), nil
	}
	return toolResultJSON(handlers.FormatEvents(list))
}

func (t *EventTools) ListTodayEventsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_today_events",
		Description: "List the events dated today in the calendar's time zone.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

func (t *EventTools) ListTodayEventsHandler(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	list, err := t.eventsService.ListToday(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list events", err), nil
	}
	return toolResultJSON(handlers.FormatEvents(list))
}

func (t *EventTools) CreateEventTool() mcp.Tool {
	return mcp.Tool{
		Name:        "create_event",
		Description: "Add an event to the calendar.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"event": map[string]any{
					"type":        "string",
					"description": "Name of the event",
				},
				"date": dateProperty("Day of the event (YYYY-MM-DD)"),
			},
			Required: []string{"event", "date"},
		},
	}
}

func (t *EventTools) CreateEventHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	var input events.CreateInput
	if err := decodeArguments(request, &input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	draft, err := events.ValidateCreate(input)
	if err != nil {
		var validationErr events.ValidationError
		if errors.As(err, &validationErr) {
			metrics.ValidationFailures.WithLabelValues(validationErr.Field).Inc()
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := t.eventsService.Create(ctx, draft)
	if err != nil {
		t.recordAudit(audit.ActionEventCreate, "", audit.StatusFailure)
		return mcp.NewToolResultErrorFromErr("failed to create event", err), nil
	}
	metrics.EventsCreated.WithLabelValues(transportLabel).Inc()
	t.recordAudit(audit.ActionEventCreate, strconv.FormatInt(created.ID, 10), audit.StatusSuccess)

	return toolResultJSON(handlers.FormatEvent(*created))
}

func (t *EventTools) GetEventTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_event",
		Description: "Get a single event by its numeric id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "Id of the event",
				},
			},
			Required: []string{"id"},
		},
	}
}

func (t *EventTools) GetEventHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	id, result := eventID(request)
	if result != nil {
		return result, nil
	}

	event, err := t.eventsService.Get(ctx, id)
	if err != nil {
		return lookupError("failed to get event", err), nil
	}
	return toolResultJSON(handlers.FormatEvent(*event))
}

func (t *EventTools) DeleteEventTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_event",
		Description: "Delete an event by its numeric id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "Id of the event",
				},
			},
			Required: []string{"id"},
		},
	}
}

func (t *EventTools) DeleteEventHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	id, result := eventID(request)
	if result != nil {
		return result, nil
	}

	if err := t.eventsService.Delete(ctx, id); err != nil {
		if !errors.Is(err, events.ErrNotFound) {
			t.recordAudit(audit.ActionEventDelete, strconv.FormatInt(id, 10), audit.StatusFailure)
		}
		return lookupError("failed to delete event", err), nil
	}
	metrics.EventsDeleted.WithLabelValues(transportLabel).Inc()
	t.recordAudit(audit.ActionEventDelete, strconv.FormatInt(id, 10), audit.StatusSuccess)

	return toolResultJSON(handlers.MessageResponse{Message: handlers.MsgEventDeleted})
}

func (t *EventTools) recordAudit(action, resourceID, status string) {
	t.audit.Log(audit.Entry{
		Action:     action,
		Transport:  transportLabel,
		ResourceID: resourceID,
		Status:     status,
	})
}

// eventID reads the id argument. A missing or non-positive id is reported
// the same way as an unknown one.
func eventID(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	args := struct {
		ID int64 `json:"id"`
	}{}
	if err := decodeArguments(request, &args); err != nil {
		return 0, mcp.NewToolResultErrorFromErr("invalid arguments", err)
	}
	if args.ID <= 0 {
		return 0, mcp.NewToolResultError(events.MsgEventNotFound)
	}
	return args.ID, nil
}

func lookupError(message string, err error) *mcp.CallToolResult {
	if errors.Is(err, events.ErrNotFound) {
		return mcp.NewToolResultError(events.MsgEventNotFound)
	}
	return mcp.NewToolResultErrorFromErr(message, err)
}
