package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"macrostudy/internal/calendar"
	apperrors "macrostudy/internal/errors"
)

// Wide CSV layout shared by prices and returns files:
//
//	Date,SPY,QQQ,...
//	2016-01-04,201.02,...
//
// An empty cell (or NaN) is a missing value.

var dateLayouts = []string{
	calendar.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ReadPricesCSV parses a wide prices CSV
func ReadPricesCSV(r io.Reader) (*PriceTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("read CSV records", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("empty CSV file", nil)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, apperrors.NewParsingError("CSV header must contain a date column and at least one ticker", nil)
	}

	table := &PriceTable{
		Tickers: make([]string, 0, len(header)-1),
		Values:  make(map[string][]float64, len(header)-1),
	}
	for _, h := range header[1:] {
		ticker := strings.TrimSpace(h)
		if ticker == "" {
			return nil, apperrors.NewParsingError("empty ticker column name", nil)
		}
		if _, dup := table.Values[ticker]; dup {
			return nil, apperrors.NewParsingError(fmt.Sprintf("duplicate ticker column %q", ticker), nil)
		}
		table.Tickers = append(table.Tickers, ticker)
		table.Values[ticker] = nil
	}

	for i, record := range records[1:] {
		line := i + 2
		if len(record) != len(header) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("line %d: expected %d columns, got %d", line, len(header), len(record)), nil)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d", line), err)
		}
		table.Dates = append(table.Dates, date)

		for j, ticker := range table.Tickers {
			v, err := parseValue(record[j+1])
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("line %d column %s", line, ticker), err)
			}
			table.Values[ticker] = append(table.Values[ticker], v)
		}
	}

	return table, nil
}

// ReadReturnsCSV parses a wide returns CSV. Dates must already form a valid
// trading calendar (strictly increasing, unique).
func ReadReturnsCSV(r io.Reader) (*ReturnMatrix, error) {
	table, err := ReadPricesCSV(r)
	if err != nil {
		return nil, err
	}

	cal, err := calendar.New(table.Dates)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "returns index is not a trading calendar", err)
	}
	return NewReturnMatrix(cal, table.Tickers, table.Values)
}

// LoadPricesCSV reads a prices CSV file
func LoadPricesCSV(path string) (*PriceTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open prices file", err)
	}
	defer file.Close()

	table, err := ReadPricesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	slog.Debug("loaded prices", "file", path, "rows", len(table.Dates), "tickers", len(table.Tickers))
	return table, nil
}

// LoadReturnsCSV reads a returns CSV file
func LoadReturnsCSV(path string) (*ReturnMatrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open returns file", err)
	}
	defer file.Close()

	m, err := ReadReturnsCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	slog.Debug("loaded returns", "file", path, "rows", m.Len(), "tickers", len(m.Tickers()))
	return m, nil
}

// WritePricesCSV writes p in the wide layout
func WritePricesCSV(w io.Writer, p *PriceTable) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return writeWide(w, p.Dates, p.Tickers, func(ticker string, i int) float64 {
		return p.Values[ticker][i]
	})
}

// WriteReturnsCSV writes m in the wide layout
func WriteReturnsCSV(w io.Writer, m *ReturnMatrix) error {
	return writeWide(w, m.cal.Days(), m.tickers, func(ticker string, i int) float64 {
		return m.At(i, ticker)
	})
}

// SavePricesCSV writes p to path, creating parent directories
func SavePricesCSV(path string, p *PriceTable) error {
	return saveFile(path, func(w io.Writer) error { return WritePricesCSV(w, p) })
}

// SaveReturnsCSV writes m to path, creating parent directories
func SaveReturnsCSV(path string, m *ReturnMatrix) error {
	return saveFile(path, func(w io.Writer) error { return WriteReturnsCSV(w, m) })
}

func saveFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create file", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeWide(w io.Writer, dates []time.Time, tickers []string, value func(string, int) float64) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(append([]string{"Date"}, tickers...)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(tickers)+1)
	for i, d := range dates {
		record[0] = d.Format(calendar.DateLayout)
		for j, t := range tickers {
			record[j+1] = FormatValue(value(t, i))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatValue renders v with full precision, NaN as an empty cell
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
