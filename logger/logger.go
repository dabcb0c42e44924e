// Package logger builds the service's zap logger.
//
// Output is teed to three cores: a rotated JSON file at the configured level,
// a rotated JSON file holding errors only, and the console.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// GlobalLevel is the level of the main file core. It can be changed at runtime.
var GlobalLevel = zap.NewAtomicLevel()

// Config configures the logger.
type Config struct {
	Level string `mapstructure:"level"`
	// Dir holds the log files. Empty disables file output.
	Dir string `mapstructure:"dir"`
	// Name is the file name stem, e.g. "hardhat" writes hardhat.log and error_hardhat.log.
	Name       string `mapstructure:"name"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Dir:        "./logs",
		Name:       "hardhat",
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 7,
		Console:    true,
	}
}

// ParseLevel maps a level name to a zap level. Unknown names map to debug.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.DebugLevel
	}
}

func formatEncodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%d%02d%02d_%02d%02d%02d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "trace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     formatEncodeTime,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func rotatingWriter(c Config, file string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(c.Dir, file),
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	})
}

// New builds a logger from c and sets GlobalLevel.
//
// Returns:
//   - *zap.Logger: The logger. It is a no-op logger when c enables no output.
//   - error: An error if the log directory cannot be created.
func New(c Config) (*zap.Logger, error) {
	GlobalLevel.SetLevel(ParseLevel(c.Level))
	enc := encoderConfig()

	cores := make([]zapcore.Core, 0, 3)
	if c.Dir != "" {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create log dir %s", c.Dir)
		}
		name := c.Name
		if name == "" {
			name = "hardhat"
		}
		errorLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})
		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(enc), rotatingWriter(c, name+".log"), GlobalLevel),
			zapcore.NewCore(zapcore.NewJSONEncoder(enc), rotatingWriter(c, "error_"+name+".log"), errorLevel),
		)
	}
	if c.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), GlobalLevel))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
