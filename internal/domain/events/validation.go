package events

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CreateInput is the raw create request as read from a JSON or form body.
type CreateInput struct {
	Event string `json:"event" validate:"required"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
}

// Draft is a validated event that has not been stored yet.
type Draft struct {
	Name string
	Date time.Time
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

const dateRule = "required,datetime=2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var createMessages = map[string]string{
	"event": MsgNameRequired,
	"date":  MsgDateRequired,
}

// ValidateCreate checks a create request and converts it to a Draft.
// The event field is reported before the date field.
func ValidateCreate(input CreateInput) (Draft, error) {
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0].Field()
			return Draft{}, ValidationError{Field: field, Message: createMessages[field]}
		}
		return Draft{}, err
	}

	date, err := ParseDate(input.Date)
	if err != nil {
		return Draft{}, ValidationError{Field: "date", Message: MsgDateRequired}
	}
	return Draft{Name: input.Event, Date: date}, nil
}

// FieldMessage returns the create validation message for a request field,
// or the generic body message for anything else.
func FieldMessage(field string) ValidationError {
	if msg, ok := createMessages[field]; ok {
		return ValidationError{Field: field, Message: msg}
	}
	return ValidationError{Field: "body", Message: MsgInvalidBody}
}

// ParseRange reads the optional start_time/end_time query parameters.
// It returns nil when no start_time is given; end_time on its own is
// checked for format but otherwise ignored.
func ParseRange(values url.Values) (*DateRange, error) {
	start, err := parseDateParam(values, "start_time", MsgStartInvalid)
	if err != nil {
		return nil, err
	}
	end, err := parseDateParam(values, "end_time", MsgEndInvalid)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, nil
	}
	if end == nil {
		return nil, ValidationError{Field: "end_time", Message: MsgEndRequired}
	}
	return &DateRange{Start: *start, End: *end}, nil
}

func parseDateParam(values url.Values, key string, message string) (*time.Time, error) {
	if !values.Has(key) {
		return nil, nil
	}
	raw := values.Get(key)
	if err := validate.Var(raw, dateRule); err != nil {
		return nil, ValidationError{Field: key, Message: message}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return nil, ValidationError{Field: key, Message: message}
	}
	return &parsed, nil
}
