package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"macrostudy/internal/config"
	"macrostudy/internal/infrastructure"
	"macrostudy/internal/marketdata"
	"macrostudy/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	in := flag.String("in", "", "wide prices CSV (defaults to paths.prices_csv)")
	out := flag.String("out", "", "returns CSV to write (defaults to paths.returns_csv)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	if *in == "" {
		*in = cfg.Paths.PricesPath()
	}
	if *out == "" {
		*out = cfg.Paths.ReturnsPath()
	}

	if err := prepare(*in, *out, logger); err != nil {
		logger.Error("Preparing returns failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// prepare cleans the raw price table and writes its daily log returns
func prepare(in, out string, logger *slog.Logger) error {
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateCSVFile(in); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(filepath.Dir(out)); err != nil {
		return err
	}

	logger.Info("Loading prices", slog.String("path", in))

	raw, err := marketdata.LoadPricesCSV(in)
	if err != nil {
		return err
	}

	clean, err := marketdata.CleanPrices(raw)
	if err != nil {
		return fmt.Errorf("clean prices: %w", err)
	}

	returns, err := marketdata.LogReturns(clean)
	if err != nil {
		return fmt.Errorf("log returns: %w", err)
	}

	if returns.Len() == 0 {
		return fmt.Errorf("no price rows in %s", in)
	}

	if err := marketdata.SaveReturnsCSV(out, returns); err != nil {
		return err
	}

	cal := returns.Calendar()
	logger.Info("Returns written",
		slog.String("path", out),
		slog.Int("rows", returns.Len()),
		slog.Any("tickers", returns.Tickers()),
		slog.Time("first", cal.First()),
		slog.Time("last", cal.Last()))
	return nil
}
