package state

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	notifier := NewLogNotifier(&logger)

	notifier.Success("book borrowed")
	notifier.Error("could not borrow this book")

	out := buf.String()
	assert.Contains(t, out, `"kind":"success"`)
	assert.Contains(t, out, "book borrowed")
	assert.Contains(t, out, `"kind":"error"`)
	assert.Contains(t, out, "could not borrow this book")
}

func TestLogNotifierNilLogger(t *testing.T) {
	notifier := NewLogNotifier(nil)
	notifier.Success("ok")
	notifier.Error("fail")
}
