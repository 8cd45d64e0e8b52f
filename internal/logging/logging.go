// Package logging builds the logrus logger used by the nativeload command.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/slava-go-dev/go-nativeload-pure/internal/config"
)

// New returns a logger configured by c. A nil c yields an info-level text
// logger on stderr.
func New(c *config.Logger) (*logrus.Logger, error) {
	l := logrus.New()
	if c == nil {
		return l, nil
	}

	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		l.SetLevel(level)
	}

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	var out io.Writer
	switch c.Output {
	case "stdout":
		out = os.Stdout
	case "discard":
		out = io.Discard
	default:
		out = os.Stderr
	}
	l.SetOutput(out)

	return l, nil
}
