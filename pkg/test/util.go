package test

import (
	"io"
	"log"
	"strings"
	"testing"
)

// TLogWriter sends log lines to the test log so they only show for failing or
// verbose runs.
type TLogWriter struct {
	t *testing.T
}

func (w *TLogWriter) Write(p []byte) (n int, err error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

func NewTLogWriter(t *testing.T) io.Writer {
	return &TLogWriter{t: t}
}

// Loggers returns an error and info logger pair writing to the test log.
func Loggers(t *testing.T) (loggerError, loggerInfo *log.Logger) {
	return log.New(NewTLogWriter(t), "ERROR: ", 0), log.New(NewTLogWriter(t), "", 0)
}
