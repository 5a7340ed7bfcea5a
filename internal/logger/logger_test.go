package logger

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
)

func TestGetPgxTraceLogLevel(t *testing.T) {
	tests := []struct {
		in   zerolog.Level
		want tracelog.LogLevel
	}{
		{zerolog.TraceLevel, tracelog.LogLevelTrace},
		{zerolog.DebugLevel, tracelog.LogLevelDebug},
		{zerolog.InfoLevel, tracelog.LogLevelInfo},
		{zerolog.WarnLevel, tracelog.LogLevelWarn},
		{zerolog.ErrorLevel, tracelog.LogLevelError},
		{zerolog.Disabled, tracelog.LogLevelNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetPgxTraceLogLevel(tt.in), tt.in.String())
	}
}

func TestNewLogger_UsesConfiguredLevel(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()
	cfg.Logging.Level = "warn"

	logger := NewLogger(cfg)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestLoggerService_DisabledWithoutLicense(t *testing.T) {
	ls := NewLoggerService(config.DefaultObservabilityConfig())

	assert.Nil(t, ls.GetApplication())
	assert.NotPanics(t, ls.Shutdown)

	var nilService *LoggerService
	assert.Nil(t, nilService.GetApplication())
}

func TestWithTraceContext_NilTransaction(t *testing.T) {
	base := zerolog.Nop()
	assert.Equal(t, base, WithTraceContext(base, nil))
}
