// ABOUTME: Logrus setup for the CLI and MCP server.
// ABOUTME: Writes to stderr and optionally to a rotating log file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	Level    string
	FilePath string
	JSON     bool
	// Quiet drops the stderr copy when a log file is set. The MCP server
	// uses it so nothing but protocol traffic reaches the terminal.
	Quiet bool
}

// Setup configures the global logrus logger. The returned closer flushes the
// log file, if any.
func Setup(params Params) io.Closer {
	if params.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: params.FilePath == ""})
	}

	logrus.SetLevel(GetLevel(params.Level))

	if params.FilePath == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}
	}

	if !strings.HasSuffix(params.FilePath, ".log") {
		params.FilePath += ".log"
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   params.FilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		LocalTime:  false, // false -> use UTC
		Compress:   true,
	}

	if params.Quiet {
		logrus.SetOutput(lumberJackLogger)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stderr, lumberJackLogger))
	}
	return lumberJackLogger
}

// GetLevel maps a level name to a logrus level. Unknown names mean warn.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.WarnLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
