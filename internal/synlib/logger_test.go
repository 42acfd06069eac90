// ABOUTME: Tests for the slog-backed Logger.
// ABOUTME: Verifies level mapping and panic stack logging.

package synlib

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlogLogger(slog.New(handler))

	logger.Debug("frame line")
	logger.Emergency("SynLib crashed!")
	logger.LogException(errors.New("listener gone"))
	logger.LogException(&PanicError{Value: "boom", Stack: []byte("goroutine 7")})

	out := buf.String()
	assert.Contains(t, out, `level=DEBUG msg="frame line"`)
	assert.Contains(t, out, `level=ERROR+4 msg="SynLib crashed!"`)
	assert.Contains(t, out, `msg="uncaught error" error="listener gone"`)
	assert.Contains(t, out, `msg="uncaught panic" error="panic: boom" stack="goroutine 7"`)
}

func TestSlogLogger_NilFallsBackToDefault(t *testing.T) {
	logger := NewSlogLogger(nil)
	assert.Same(t, slog.Default(), logger.Slog())
}
