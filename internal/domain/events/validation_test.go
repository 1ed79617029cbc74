package events_test

import (
	"net/url"
	"testing"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error, field string, message string) {
	t.Helper()
	var validationErr events.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, field, validationErr.Field)
	require.Equal(t, message, validationErr.Message)
	require.Equal(t, message, err.Error())
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name    string
		input   events.CreateInput
		field   string
		message string
	}{
		{"missing event", events.CreateInput{Date: "2024-01-01"}, "event", events.MsgNameRequired},
		{"missing date", events.CreateInput{Event: "Party"}, "date", events.MsgDateRequired},
		{"impossible date", events.CreateInput{Event: "Party", Date: "2024-13-40"}, "date", events.MsgDateRequired},
		{"wrong layout", events.CreateInput{Event: "Party", Date: "01/02/2024"}, "date", events.MsgDateRequired},
		{"timestamp", events.CreateInput{Event: "Party", Date: "2024-01-02T10:00:00Z"}, "date", events.MsgDateRequired},
		{"both missing reports event first", events.CreateInput{}, "event", events.MsgNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := events.ValidateCreate(tt.input)
			requireValidationError(t, err, tt.field, tt.message)
		})
	}
}

func TestValidateCreateSuccess(t *testing.T) {
	draft, err := events.ValidateCreate(events.CreateInput{Event: "Video conference", Date: "2024-02-29"})

	require.NoError(t, err)
	require.Equal(t, "Video conference", draft.Name)
	require.Equal(t, day("2024-02-29"), draft.Date)
}

func TestParseRange(t *testing.T) {
	rng, err := events.ParseRange(url.Values{})
	require.NoError(t, err)
	require.Nil(t, rng)

	rng, err = events.ParseRange(url.Values{"start_time": {"2024-01-01"}, "end_time": {"2024-01-31"}})
	require.NoError(t, err)
	require.NotNil(t, rng)
	require.Equal(t, day("2024-01-01"), rng.Start)
	require.Equal(t, day("2024-01-31"), rng.End)
}

func TestParseRangeEndOnlyIsIgnored(t *testing.T) {
	rng, err := events.ParseRange(url.Values{"end_time": {"2024-01-31"}})

	require.NoError(t, err)
	require.Nil(t, rng)
}

func TestParseRangeErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		field   string
		message string
	}{
		{"start without end", url.Values{"start_time": {"2024-01-01"}}, "end_time", events.MsgEndRequired},
		{"bad start", url.Values{"start_time": {"yesterday"}, "end_time": {"2024-01-31"}}, "start_time", events.MsgStartInvalid},
		{"empty start", url.Values{"start_time": {""}}, "start_time", events.MsgStartInvalid},
		{"bad end", url.Values{"start_time": {"2024-01-01"}, "end_time": {"2024-02-30"}}, "end_time", events.MsgEndInvalid},
		{"bad end alone", url.Values{"end_time": {"soon"}}, "end_time", events.MsgEndInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := events.ParseRange(tt.values)
			requireValidationError(t, err, tt.field, tt.message)
		})
	}
}

func TestFieldMessage(t *testing.T) {
	require.Equal(t, events.MsgNameRequired, events.FieldMessage("event").Message)
	require.Equal(t, events.MsgDateRequired, events.FieldMessage("date").Message)
	require.Equal(t, events.MsgInvalidBody, events.FieldMessage("other").Message)
}
