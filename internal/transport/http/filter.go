package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "macrostudy/internal/errors"
)

var validate = validator.New()

// ReportFilter narrows table endpoints by query parameters
type ReportFilter struct {
	EventType string `validate:"omitempty,oneof=CPI FOMC"`
	Ticker    string `validate:"omitempty,max=32,excludesall=0x2C"`
}

// ParseFilter reads event_type and ticker from the query string
func ParseFilter(r *http.Request) (ReportFilter, error) {
	q := r.URL.Query()
	f := ReportFilter{
		EventType: strings.ToUpper(strings.TrimSpace(q.Get("event_type"))),
		Ticker:    strings.TrimSpace(q.Get("ticker")),
	}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "EventType":
				return f, apierrors.InvalidParameter("event_type", "must be one of CPI, FOMC")
			case "Ticker":
				return f, apierrors.InvalidParameter("ticker", "malformed ticker")
			}
		}
		return f, apierrors.ErrInvalidRequest
	}
	return f, nil
}

func (f ReportFilter) match(eventType, ticker string) bool {
	if f.EventType != "" && f.EventType != eventType {
		return false
	}
	if f.Ticker != "" && f.Ticker != ticker {
		return false
	}
	return true
}
