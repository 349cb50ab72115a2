package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/softcache"
)

func TestSlogLoggerStableAttrOrder(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
	l := Logger{L: stdslog.New(h)}

	l.Debug("candidate weakened", softcache.Fields{"spilled": false, "key": "a"})

	line := buf.String()
	assert.Contains(t, line, "level=DEBUG")
	assert.Contains(t, line, `msg="candidate weakened"`)
	assert.Less(t, strings.Index(line, "key=a"), strings.Index(line, "spilled=false"))
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelWarn})
	l := Logger{L: stdslog.New(h)}

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	assert.Empty(t, buf.String())

	l.Warn("kept", softcache.Fields{"key": "b"})
	assert.Contains(t, buf.String(), "key=b")
}
