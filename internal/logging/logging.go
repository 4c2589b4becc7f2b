package logging

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultLevel = "info"

// Init receives the log level as a string, parses it and configures the global
// logrus logger. An invalid level is returned as an error and leaves the logger as is.
func Init(level string) error {
	if level == "" {
		level = DefaultLevel
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	logrus.SetLevel(parsed)
	return nil
}

// ForRun returns a logger tagged with the component name and a fresh run id so that
// lines from one invocation can be grouped.
func ForRun(component string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"component": component,
		"run_id":    uuid.NewString(),
	})
}
