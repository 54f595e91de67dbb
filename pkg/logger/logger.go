// Package logger собирает zap.Logger по конфигурации приложения.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config описывает настройки логгера.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json или console
	OutputPath string // путь к файлу; пусто — stdout
}

// New создает zap.Logger. Неизвестный уровень понижается до info,
// неизвестный формат вывода — до json.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		if cfg.Level != "" {
			fmt.Fprintf(os.Stderr, "unknown log level %q, falling back to info\n", cfg.Level)
		}
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Encoding) == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}
	sink, _, err := zap.Open(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %q: %w", outputPath, err)
	}

	return zap.New(zapcore.NewCore(encoder, sink, level)), nil
}
