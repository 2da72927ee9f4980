// Package logging configures the shared logrus logger used across
// reconctl, grounded on the TextFormatter/ForceColors setup in
// Dr-yato-tracehawkx's cmd/tracehawkx/main.go, generalized into a
// constructor instead of mutating the package-level logrus singleton
// (spec.md's "no global singletons" redesign note applies here too: every
// subsystem receives a *logrus.Logger by reference rather than reaching
// for logrus.StandardLogger()).
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	JSON    bool
	Level   string // logrus level name; defaults to "info"
	Output  io.Writer
}

// New builds a configured *logrus.Logger. Text output uses the
// teacher's ForceColors+FullTimestamp formatter; JSON output is for
// machine-consumed logs (e.g. when reconctl runs as a daemon under the
// scheduler).
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
