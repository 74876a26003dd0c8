// Package config provides centralized configuration management for the event-study
// tools. It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MACRO_<SECTION>_<FIELD>:
//
//	MACRO_ANALYSIS_TICKERS=SPY,TLT,GLD
//	MACRO_ANALYSIS_EWMA_LAMBDA=0.97
//	MACRO_PATHS_DATA_DIR=/srv/macro/data
//	MACRO_LOGGING_LEVEL=debug
//	MACRO_SERVER_PORT=9000
//
// # Analysis Parameters
//
// AnalysisConfig carries every tunable of the computations (tickers, annualization
// factor, EWMA smoothing factor, event window and pre/post volatility windows).
// It is handed to each computation explicitly so the engine has no ambient state.
package config
