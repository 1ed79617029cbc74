package handlers

import "github.com/Togather-Foundation/eventcal/internal/domain/events"

// EventResponse is the wire form of an event.
type EventResponse struct {
	ID    int64  `json:"id"`
	Event string `json:"event"`
	Date  string `json:"date"`
}

type CreatedResponse struct {
	Message string `json:"message"`
	Event   string `json:"event"`
	Date    string `json:"date"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FormatEvent(event events.Event) EventResponse {
	return EventResponse{
		ID:    event.ID,
		Event: event.Name,
		Date:  events.FormatDate(event.Date),
	}
}

// FormatEvents never returns nil, so an empty list encodes as [].
func FormatEvents(list []events.Event) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for _, event := range list {
		out = append(out, FormatEvent(event))
	}
	return out
}
