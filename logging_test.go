package goident

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageLogger(t *testing.T) {
	defer SetLogger(nil)
	assert.Equal(t, slog.Default(), Logger())

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	SetLogger(l)
	assert.Equal(t, l, Logger())
	assert.Equal(t, l, orDefault(nil))
	assert.Equal(t, quiet, orDefault(quiet))

	logWarning(orDefault(nil), Warning{Routine: RoutineEstimate, Experiment: -1, Code: 5, Message: "deterministic"})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `routine="ident: estimate"`)
	assert.Contains(t, buf.String(), "code=5")
}
