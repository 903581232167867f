package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/buildwatch/internal/check"
)

func TestWriter_Outcome(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)

	limit := 10.0
	w.Outcome(check.Against("bundle size", 12, &limit))

	out := buf.String()
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "10")
}

func TestWriter_DisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)

	w.Outcome(check.Against("bundle size", 12, nil))
	w.Infof("peak memory %.2f MB", 300.0)
	w.Warnf("something")

	assert.Empty(t, buf.String())
}

func TestWriter_NonFileOutputHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)

	w.Outcome(check.Against("bundle size", 1, nil))

	// Raw label, no ANSI escapes
	assert.Contains(t, buf.String(), "[OK]")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriter_Infof(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)

	w.Infof("peak memory %.2f MB", 300.5)

	assert.Equal(t, "peak memory 300.50 MB\n", buf.String())
}
