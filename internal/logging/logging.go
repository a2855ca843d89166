// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"condor-sentinel/internal/config"
	"condor-sentinel/internal/models"
)

// New creates a logger from the application logging configuration,
// writing to the console and to a size-rotated log file.
func New(cfg config.LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File && cfg.FilePath != "" {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogVerdict logs an evaluation result.
func LogVerdict(logger zerolog.Logger, v models.Verdict) {
	failed := 0
	for _, r := range v.Rules {
		if r.Status == models.RuleFail {
			failed++
		}
	}
	logger.Info().
		Str("event", "verdict").
		Str("overall", string(v.Overall)).
		Int("rules", len(v.Rules)).
		Int("failed", failed).
		Time("at", v.Timestamp).
		Msg("Entry decision")
}

// LogSettlement logs a trade settlement.
func LogSettlement(logger zerolog.Logger, name models.PortfolioName, trade models.Trade) {
	logger.Info().
		Str("event", "settlement").
		Str("portfolio", string(name)).
		Str("trade_id", trade.ID).
		Str("date", trade.SettlementDate).
		Float64("settlement_price", trade.SettlementPrice).
		Float64("pnl", trade.PnL).
		Msg("Trade settled")
}

// LogStateChange logs a detected monitor state change.
func LogStateChange(logger zerolog.Logger, kind, detail string) {
	logger.Info().
		Str("event", "state_change").
		Str("kind", kind).
		Str("detail", detail).
		Msg("State change detected")
}
