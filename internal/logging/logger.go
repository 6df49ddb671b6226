// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Init sets the standard logger's level and formatter and returns it.
// level is one of debug, info, warn, error (default info); format is text
// or json (default text). Output goes to stderr so command output on
// stdout stays machine-readable.
func Init(level, format string) *log.Logger {
	return Configure(log.StandardLogger(), os.Stderr, level, format)
}

// Configure applies level, format and output to l.
func Configure(l *log.Logger, w io.Writer, level, format string) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(w)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
