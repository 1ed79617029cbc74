package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/api/handlers"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/domain/events/eventstest"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	parsed, err := events.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func newTools(t *testing.T) (*EventTools, *eventstest.Repository) {
	t.Helper()
	repo := eventstest.New()
	clock := func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }
	service := events.NewService(repo, events.WithLocation(time.UTC), events.WithClock(clock))
	return NewEventTools(service, nil), repo
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	if args != nil {
		request.Params.Arguments = args
	}
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	switch content := result.Content[0].(type) {
	case mcp.TextContent:
		return content.Text
	case *mcp.TextContent:
		return content.Text
	default:
		t.Fatalf("unexpected content type %T", result.Content[0])
		return ""
	}
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, dst any) {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), dst))
}

func TestToolDefinitions(t *testing.T) {
	tools, _ := newTools(t)

	names := []string{
		tools.ListEventsTool().Name,
		tools.ListTodayEventsTool().Name,
		tools.CreateEventTool().Name,
		tools.GetEventTool().Name,
		tools.DeleteEventTool().Name,
	}
	require.Equal(t, []string{"list_events", "list_today_events", "create_event", "get_event", "delete_event"}, names)
	require.Equal(t, []string{"event", "date"}, tools.CreateEventTool().InputSchema.Required)
	require.Equal(t, []string{"id"}, tools.GetEventTool().InputSchema.Required)
}

func TestCreateThenGet(t *testing.T) {
	tools, repo := newTools(t)
	ctx := context.Background()

	result, err := tools.CreateEventHandler(ctx, callRequest("create_event", map[string]any{
		"event": "Standup",
		"date":  "2024-03-01",
	}))
	require.NoError(t, err)

	var created handlers.EventResponse
	decodeResult(t, result, &created)
	require.Equal(t, "Standup", created.Event)
	require.Equal(t, "2024-03-01", created.Date)
	require.Equal(t, 1, repo.Len())

	result, err = tools.GetEventHandler(ctx, callRequest("get_event", map[string]any{"id": created.ID}))
	require.NoError(t, err)

	var fetched handlers.EventResponse
	decodeResult(t, result, &fetched)
	require.Equal(t, created, fetched)
}

func TestCreateValidation(t *testing.T) {
	tools, repo := newTools(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing event", args: map[string]any{"date": "2024-03-01"}, want: events.MsgNameRequired},
		{name: "missing date", args: map[string]any{"event": "Standup"}, want: events.MsgDateRequired},
		{name: "invalid date", args: map[string]any{"event": "Standup", "date": "2024-13-40"}, want: events.MsgDateRequired},
		{name: "no arguments", args: nil, want: events.MsgNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tools.CreateEventHandler(context.Background(), callRequest("create_event", tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)
			require.Equal(t, tt.want, resultText(t, result))
		})
	}
	require.Zero(t, repo.Len())
}

func TestListEvents(t *testing.T) {
	tools, repo := newTools(t)
	repo.Seed(
		events.Event{Name: "before", Date: day("2023-12-31")},
		events.Event{Name: "inside", Date: day("2024-01-15")},
		events.Event{Name: "after", Date: day("2024-02-01")},
	)
	ctx := context.Background()

	result, err := tools.ListEventsHandler(ctx, callRequest("list_events", nil))
	require.NoError(t, err)
	var all []handlers.EventResponse
	decodeResult(t, result, &all)
	require.Len(t, all, 3)

	result, err = tools.ListEventsHandler(ctx, callRequest("list_events", map[string]any{
		"start_time": "2024-01-01",
		"end_time":   "2024-01-31",
	}))
	require.NoError(t, err)
	var ranged []handlers.EventResponse
	decodeResult(t, result, &ranged)
	require.Len(t, ranged, 1)
	require.Equal(t, "inside", ranged[0].Event)

	result, err = tools.ListEventsHandler(ctx, callRequest("list_events", map[string]any{
		"start_time": "2024-01-01",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, events.MsgEndRequired, resultText(t, result))
}

func TestListTodayEvents(t *testing.T) {
	tools, repo := newTools(t)
	repo.Seed(
		events.Event{Name: "yesterday", Date: day("2024-01-14")},
		events.Event{Name: "today", Date: day("2024-01-15")},
		events.Event{Name: "tomorrow", Date: day("2024-01-16")},
	)

	result, err := tools.ListTodayEventsHandler(context.Background(), callRequest("list_today_events", nil))
	require.NoError(t, err)

	var list []handlers.EventResponse
	decodeResult(t, result, &list)
	require.Len(t, list, 1)
	require.Equal(t, "today", list[0].Event)
}

func TestEmptyListIsArray(t *testing.T) {
	tools, _ := newTools(t)

	result, err := tools.ListEventsHandler(context.Background(), callRequest("list_events", nil))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, resultText(t, result))
}

func TestDeleteEvent(t *testing.T) {
	tools, repo := newTools(t)
	seeded := repo.Seed(events.Event{Name: "gone", Date: day("2024-01-15")})
	ctx := context.Background()

	result, err := tools.DeleteEventHandler(ctx, callRequest("delete_event", map[string]any{"id": seeded[0].ID}))
	require.NoError(t, err)
	var message handlers.MessageResponse
	decodeResult(t, result, &message)
	require.Equal(t, handlers.MsgEventDeleted, message.Message)
	require.Zero(t, repo.Len())

	result, err = tools.GetEventHandler(ctx, callRequest("get_event", map[string]any{"id": seeded[0].ID}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, events.MsgEventNotFound, resultText(t, result))

	result, err = tools.DeleteEventHandler(ctx, callRequest("delete_event", map[string]any{"id": seeded[0].ID}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, events.MsgEventNotFound, resultText(t, result))
}

func TestEventIDArgument(t *testing.T) {
	tools, _ := newTools(t)

	for _, args := range []map[string]any{nil, {"id": 0}, {"id": -3}} {
		result, err := tools.GetEventHandler(context.Background(), callRequest("get_event", args))
		require.NoError(t, err)
		require.True(t, result.IsError)
		require.Equal(t, events.MsgEventNotFound, resultText(t, result))
	}

	result, err := tools.GetEventHandler(context.Background(), callRequest("get_event", map[string]any{"id": "abc"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestStorageFailureIsToolError(t *testing.T) {
	tools, repo := newTools(t)
	repo.Err = errors.New("disk on fire")

	result, err := tools.ListEventsHandler(context.Background(), callRequest("list_events", nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "failed to list events")
}

func TestNilTools(t *testing.T) {
	var tools *EventTools

	result, err := tools.ListEventsHandler(context.Background(), callRequest("list_events", nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
}
