package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	standardErrorOutputPathConstant      = "stderr"
	consoleTimeEncodingLayoutConstant    = "15:04:05"
)

// LogLevel enumerates supported logging verbosity levels.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log encodings.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerOutputs bundles the diagnostic and console loggers created together.
type LoggerOutputs struct {
	// DiagnosticLogger carries structured lifecycle events.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger carries human-facing messages and is silenced for structured output.
	ConsoleLogger *zap.Logger
}

// LoggerFactory creates zap loggers for requested levels and formats.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory instance.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// UnsupportedLogLevelError indicates the requested level is not recognized.
type UnsupportedLogLevelError struct {
	Level LogLevel
}

// Error implements the error interface.
func (levelError UnsupportedLogLevelError) Error() string {
	return fmt.Sprintf(unsupportedLogLevelTemplateConstant, string(levelError.Level))
}

// UnsupportedLogFormatError indicates the requested format is not recognized.
type UnsupportedLogFormatError struct {
	Format LogFormat
}

// Error implements the error interface.
func (formatError UnsupportedLogFormatError) Error() string {
	return fmt.Sprintf(unsupportedLogFormatTemplateConstant, string(formatError.Format))
}

// CreateLoggerOutputs builds the diagnostic and console loggers for the requested level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLevel LogLevel, requestedFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveZapLevel(requestedLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	switch requestedFormat {
	case LogFormatStructured:
		diagnosticLogger, creationError := buildStructuredLogger(zapLevel)
		if creationError != nil {
			return LoggerOutputs{}, creationError
		}
		return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: zap.NewNop()}, nil
	case LogFormatConsole:
		diagnosticLogger, creationError := buildConsoleLogger(zapLevel)
		if creationError != nil {
			return LoggerOutputs{}, creationError
		}
		return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: diagnosticLogger}, nil
	default:
		return LoggerOutputs{}, UnsupportedLogFormatError{Format: requestedFormat}
	}
}

func resolveZapLevel(requestedLevel LogLevel) (zapcore.Level, error) {
	switch requestedLevel {
	case LogLevelDebug:
		return zap.DebugLevel, nil
	case LogLevelInfo:
		return zap.InfoLevel, nil
	case LogLevelWarn:
		return zap.WarnLevel, nil
	case LogLevelError:
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, UnsupportedLogLevelError{Level: requestedLevel}
	}
}

func buildStructuredLogger(level zapcore.Level) (*zap.Logger, error) {
	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(level)
	loggerConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	return loggerConfiguration.Build()
}

func buildConsoleLogger(level zapcore.Level) (*zap.Logger, error) {
	loggerConfiguration := zap.NewDevelopmentConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(level)
	loggerConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.EncoderConfig.TimeKey = ""
	loggerConfiguration.EncoderConfig.CallerKey = ""
	loggerConfiguration.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeEncodingLayoutConstant)
	loggerConfiguration.DisableStacktrace = true
	return loggerConfiguration.Build()
}
