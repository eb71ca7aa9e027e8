package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: DebugLevel, TimeFormat: time.RFC3339, Output: &buf})

	l.Debug("SMS sent", "to", "+250781234567")

	out := buf.String()
	assert.Contains(t, out, "SMS sent")
	assert.Contains(t, out, "+250781234567")
}

func TestLoggerErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: ErrorLevel, TimeFormat: time.RFC3339, Output: &buf})

	l.Error(assert.AnError, "failed to notify patient", "appointment_id", "a1b2")

	out := buf.String()
	assert.Contains(t, out, "failed to notify patient")
	assert.Contains(t, out, assert.AnError.Error())
	assert.Contains(t, out, "a1b2")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: ErrorLevel, TimeFormat: time.RFC3339, Output: &buf})

	l.Debug("below threshold")
	l.Info("also below")
	assert.Empty(t, buf.String())
}

func TestWithFieldsCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: InfoLevel, TimeFormat: time.RFC3339, Output: &buf})

	l.WithFields(map[string]interface{}{"component": "notifications"}).Info("ready")

	assert.Contains(t, buf.String(), "notifications")
}
