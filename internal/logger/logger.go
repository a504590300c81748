package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures the global logger. LOG_LEVEL and LOG_FORMAT override the
// configured values so a build can be debugged without editing config.yaml.
func Init(level, format string) {
	if env, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = env
	}
	if env, ok := os.LookupEnv("LOG_FORMAT"); ok {
		format = env
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)

	if strings.ToLower(format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Log.SetOutput(os.Stdout)
}

// WithComponent returns an entry tagged with the emitting subsystem.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Silence discards output, for tests that exercise noisy failure paths.
func Silence() {
	Log.SetOutput(io.Discard)
}
