package kumpul

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newCapturedLogger() (*SimpleLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &SimpleLogger{out: log.New(&buf, "", 0)}, &buf
}

func TestSimpleLoggerLevels(t *testing.T) {
	logger, buf := newCapturedLogger()

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	output := buf.String()
	for _, want := range []string{"DEBUG debug msg", "INFO info msg", "WARN warn msg", "ERROR error msg"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSimpleLoggerKeyValues(t *testing.T) {
	logger, buf := newCapturedLogger()

	logger.Info("Transfer completed", "requestType", "images", "elapsedMs", 42)

	output := buf.String()
	if !strings.Contains(output, "requestType=images") {
		t.Errorf("missing key=value pair:\n%s", output)
	}
	if !strings.Contains(output, "elapsedMs=42") {
		t.Errorf("missing numeric pair:\n%s", output)
	}
}

func TestSimpleLoggerOddKeyValues(t *testing.T) {
	logger, buf := newCapturedLogger()

	logger.Warn("odd args", "dangling")

	if !strings.Contains(buf.String(), "dangling=<missing>") {
		t.Errorf("dangling key not flagged:\n%s", buf.String())
	}
}
