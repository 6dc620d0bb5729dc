package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = "info"

// NewLogger builds the JSON production logger at the given level. An empty or
// unknown level falls back to info.
func NewLogger(level string) (*zap.Logger, error) {
	atom := zap.NewAtomicLevel()
	if err := atom.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil || level == "" {
		_ = atom.UnmarshalText([]byte(defaultLevel))
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.DisableStacktrace = true

	return cfg.Build()
}

// PrintAdapter satisfies printf-style logger hooks such as sarama.Logger.
type PrintAdapter struct {
	sugar *zap.SugaredLogger
}

func NewPrintAdapter(l *zap.Logger) PrintAdapter {
	if l == nil {
		l = zap.NewNop()
	}
	return PrintAdapter{sugar: l.Sugar()}
}

func (a PrintAdapter) Print(v ...any) {
	a.sugar.Debug(strings.TrimSpace(fmt.Sprint(v...)))
}

func (a PrintAdapter) Printf(format string, v ...any) {
	a.sugar.Debugf(strings.TrimSpace(format), v...)
}

func (a PrintAdapter) Println(v ...any) {
	a.sugar.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}
