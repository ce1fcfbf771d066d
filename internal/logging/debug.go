package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DebugLogName is the file the --logs flag writes structured debug output to
const DebugLogName = "restorer-debug.log"

// NewDebugLogger returns a logger that writes text records to path at debug
// level, tagged with the run ID. When path is empty the logger discards
// everything. Close the returned io.Closer when the run ends.
func NewDebugLogger(path, runID string) (logrus.FieldLogger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	if path == "" {
		logger.SetOutput(io.Discard)
		return logger.WithField("run", runID), nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)
	logger.SetLevel(logrus.DebugLevel)

	return logger.WithField("run", runID), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
