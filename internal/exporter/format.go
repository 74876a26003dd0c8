package exporter

import (
	"math"
	"strconv"
	"time"

	"macrostudy/internal/calendar"
)

// formatFloat renders f with full precision. NaN and infinities become an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatCell renders a table value for CSV output
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return formatFloat(x)
	case time.Time:
		return x.Format(calendar.DateLayout)
	default:
		return ""
	}
}

// number returns f, or nil for values a spreadsheet cannot hold
func number(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
