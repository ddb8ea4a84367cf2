package toolmesh

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func captureLogger() (*SimpleLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &SimpleLogger{logger: log.New(&buf, "", 0)}, &buf
}

func TestSimpleLoggerLevels(t *testing.T) {
	logger, buf := captureLogger()

	logger.Debug("d", "k", 1)
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	out := buf.String()
	for _, part := range []string{"DEBUG d k=1", "INFO i", "WARN w", "ERROR e"} {
		if !strings.Contains(out, part) {
			t.Errorf("expected output to contain %q, got:\n%s", part, out)
		}
	}
}

func TestSimpleLoggerOddKeyValues(t *testing.T) {
	logger, buf := captureLogger()

	// A dangling key must not panic and is dropped.
	logger.Info("msg", "key1", "value1", "dangling")

	out := buf.String()
	if !strings.Contains(out, "key1=value1") {
		t.Errorf("expected paired key to render, got %q", out)
	}
	if strings.Contains(out, "dangling=") {
		t.Errorf("expected dangling key to be dropped, got %q", out)
	}
}

func TestDefaultDebugConfig(t *testing.T) {
	cfg := DefaultDebugConfig()

	if cfg.Enabled {
		t.Error("expected debug disabled by default")
	}
	if !cfg.LogRequests || !cfg.LogRetries || !cfg.LogThrottle || !cfg.LogCircuit {
		t.Error("expected all event classes enabled by default")
	}
	if cfg.RequestIDGen == nil {
		t.Fatal("expected a request ID generator")
	}
	a, b := cfg.RequestIDGen(), cfg.RequestIDGen()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty IDs, got %q and %q", a, b)
	}
}
