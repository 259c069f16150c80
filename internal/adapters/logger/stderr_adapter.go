package logger

import (
	"os"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewStderrZapAdapter creates a ZapAdapter that writes every level to stderr.
// The MCP binary owns stdout for the protocol stream, so nothing may be
// logged there.
func NewStderrZapAdapter(cfgProvider config.Provider, serviceName string) (domain.Logger, error) {
	appConfig := cfgProvider.Get()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(appConfig.Log.Level)); err != nil {
		zapLevel = zapcore.WarnLevel // Keep stdio quiet by default
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapLevel }),
	)

	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zapLogger = zapLogger.With(zap.String("service", serviceName))

	return &ZapAdapter{logger: zapLogger}, nil
}
