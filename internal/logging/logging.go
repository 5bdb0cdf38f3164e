package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)

	level := logrus.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := logrus.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	logg.SetLevel(level)
}

func Get() *logrus.Logger {
	return logg
}

// Module returns an entry tagged with the originating module, so log
// lines are attributable without grepping call sites.
func Module(name string) *logrus.Entry {
	return logg.WithField("module", name)
}
