// Package log holds the process-wide logrus logger.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const serviceName = "tweetfeed"

// Values of the "warning" field attached to non-fatal resolution problems.
const (
	WarningDegradedResolution = "degraded_resolution"
	WarningUnsupportedMedia   = "unsupported_media"
)

// Log is the shared entry every component logs through unless given its own.
var Log *logrus.Entry

// Tests and library callers get a usable logger without calling Setup.
func init() {
	Log = New(os.Stderr, "info", "text")
}

// Setup replaces Log with a logger honoring the given level and format.
func Setup(level, format string) {
	Log = New(os.Stderr, level, format)
}

// New builds a logger entry writing to out. Unknown levels fall back to info;
// format "json" selects the JSON formatter, anything else the text one.
func New(out io.Writer, level, format string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger.WithField("service", serviceName)
}
