package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"macrostudy/internal/calendar"
	apperrors "macrostudy/internal/errors"
)

const (
	dateColumn  = "Date"
	eventColumn = "Event"
)

// ReadCSV parses an events file with at least a Date and an Event column.
// Any event label outside the supported set fails the whole file. Rows are
// returned sorted by date.
func ReadCSV(r io.Reader) ([]Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("read events CSV", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("empty events file", nil)
	}

	dateIdx, eventIdx := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case eventColumn:
			eventIdx = i
		}
	}
	if dateIdx < 0 || eventIdx < 0 {
		return nil, apperrors.NewAppValidationError("events CSV must contain 'Date' and 'Event' columns")
	}

	evts := make([]Event, 0, len(records)-1)
	unknown := make(map[string]struct{})

	for i, record := range records[1:] {
		line := i + 2
		if len(record) <= dateIdx || len(record) <= eventIdx {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: missing columns", line), nil)
		}

		t, err := ParseEventType(record[eventIdx])
		if err != nil {
			unknown[strings.TrimSpace(record[eventIdx])] = struct{}{}
			continue
		}

		d, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d", line), err)
		}
		evts = append(evts, Event{Date: d, Type: t})
	}

	if len(unknown) > 0 {
		labels := make([]string, 0, len(unknown))
		for l := range unknown {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("unknown event types found: %s", strings.Join(labels, ", "))).
			WithContext("unknown_types", labels)
	}

	sort.SliceStable(evts, func(a, b int) bool {
		return evts[a].Date.Before(evts[b].Date)
	})
	return evts, nil
}

// LoadCSV reads an events file from disk
func LoadCSV(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open events file", err)
	}
	defer file.Close()

	evts, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	slog.Debug("loaded events", "file", path, "events", len(evts))
	return evts, nil
}

// WriteCSV writes events in the Date,Event layout
func WriteCSV(w io.Writer, evts []Event) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{dateColumn, eventColumn}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, e := range evts {
		if err := writer.Write([]string{e.Date.Format(calendar.DateLayout), string(e.Type)}); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{calendar.DateLayout, "2006-01-02 15:04:05", time.RFC3339, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
