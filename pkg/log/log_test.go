package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	log := newLogger(&out, 0).WithName("job")

	log.Info("Starting job", "splits", 3)
	assert.Contains(t, out.String(), `"message":"Starting job"`)
	assert.Contains(t, out.String(), `"splits":3`)
	assert.Contains(t, out.String(), `"logger":"job"`)

	out.Reset()
	log.V(1).Info("Change state")
	assert.Equal(t, "", out.String())

	log.Error(errors.New("boom"), "Skipping split")
	assert.Contains(t, out.String(), `"error":"boom"`)
}

func TestNewLogger_Verbose(t *testing.T) {
	var out bytes.Buffer
	log := newLogger(&out, 1)

	log.V(1).Info("Change state", "from", "READING", "to", "EXHAUSTED")
	assert.Contains(t, out.String(), `"to":"EXHAUSTED"`)
}
