package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"macrostudy/internal/calendar"
	"macrostudy/internal/config"
	"macrostudy/internal/events"
	"macrostudy/internal/exporter"
	"macrostudy/internal/infrastructure"
	"macrostudy/internal/services"
)

type options struct {
	configPath string
	csvDir     string
	xlsxPath   string
	eventType  string
	showPanel  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.csvDir, "csv", "", "directory to write one CSV per table")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "workbook to write with one sheet per table")
	flag.StringVar(&opts.eventType, "event-type", "", "only print rows of this event type (CPI or FOMC)")
	flag.BoolVar(&opts.showPanel, "panel", false, "also print the event panel")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("Event study failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer, logger *slog.Logger) error {
	var filter events.EventType
	if opts.eventType != "" {
		t, err := events.ParseEventType(strings.ToUpper(opts.eventType))
		if err != nil {
			return err
		}
		filter = t
	}

	svc := services.NewAnalysisService(cfg.Analysis, cfg.Paths, logger, nil)
	if opts.csvDir != "" {
		svc.AddWriter(csvDirWriter{dir: opts.csvDir, csv: exporter.NewCSVWriter(logger)})
	}

	report, err := svc.RunFromFiles(ctx)
	if err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if err := exporter.WriteWorkbook(opts.xlsxPath, exporter.ReportTables(report)); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		logger.Info("Workbook written", slog.String("path", opts.xlsxPath))
	}

	return printReport(out, report, filter, opts.showPanel)
}

// csvDirWriter sends the CSV export to a directory chosen on the command line
type csvDirWriter struct {
	dir string
	csv *exporter.CSVWriter
}

func (w csvDirWriter) WriteReport(_ string, report *services.Report) error {
	return w.csv.WriteReport(w.dir, report)
}

func printReport(out io.Writer, report *services.Report, filter events.EventType, showPanel bool) error {
	res := report.Result
	keep := func(t events.EventType) bool { return filter == "" || t == filter }

	fmt.Fprintf(out, "run %s  tickers %v  events %d\n", report.RunID, report.Tickers, report.Events)
	fmt.Fprintf(out, "mapping: on_calendar=%d advanced=%d dropped=%d duplicates=%d\n",
		report.Mapping.OnCalendar, report.Mapping.Advanced, report.Mapping.Dropped, report.Mapping.Duplicates)
	fmt.Fprintf(out, "skipped: panel events=%d  vol-shift events=%d pairs=%d\n\n",
		res.PanelSkips.Events(), res.ShiftSkips.Events(), res.ShiftSkips.Pairs())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	if showPanel {
		fmt.Fprintln(tw, "event_date\tevent_type\tticker\tt\tret\t")
		for _, r := range res.Panel {
			if keep(r.EventType) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t\n",
					r.EventDate.Format(calendar.DateLayout), r.EventType, r.Ticker, r.T, num(r.Ret))
			}
		}
		fmt.Fprintln(tw, "\t\t\t\t\t")
	}

	fmt.Fprintln(tw, "event_type\tticker\tmean_ret_t0\tcum_ret_-1_+1\tcum_ret_-3_+3\tmean_max_drawdown\t")
	for _, r := range res.Summary {
		if keep(r.EventType) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				r.EventType, r.Ticker, num(r.MeanRetT0), num(r.CumRet1), num(r.CumRet3), num(r.MeanMaxDrawdown))
		}
	}
	fmt.Fprintln(tw, "\t\t\t\t\t\t")

	fmt.Fprintln(tw, "event_type\tticker\tvol_pre\tvol_post\tvol_change\tvol_ratio\tewma_pre\tewma_post\tewma_change\tewma_ratio\t")
	for _, r := range res.VolSummary {
		if keep(r.EventType) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				r.EventType, r.Ticker,
				num(r.MeanVolPre), num(r.MeanVolPost), num(r.MeanVolChange), num(r.MeanVolRatio),
				num(r.MeanEWMAPre), num(r.MeanEWMAPost), num(r.MeanEWMAChange), num(r.MeanEWMARatio))
		}
	}

	if len(report.Rolling) > 0 {
		fmt.Fprintln(tw, "\t\t\t\t\t\t\t\t\t\t")
		fmt.Fprintln(tw, "ticker\twindow\tdate\trolling_vol\t")
		for _, r := range report.Rolling {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", r.Ticker, r.Window, r.Date.Format(calendar.DateLayout), num(r.Vol))
		}
	}

	return tw.Flush()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
