package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestModuleLoggerWritesFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
	}, buf)
	require.NoError(t, err)

	log := cl.Module("coverage").Module("filter")
	log.Info("Excluded site-day",
		String("site", "D2"),
		Int("files", 201),
		Float64("ratio", 0.55833333),
		Error(errors.New("below threshold")))

	out := buf.String()
	assert.Contains(t, out, "module=coverage.filter")
	assert.Contains(t, out, "site=D2")
	assert.Contains(t, out, "files=201")
	assert.Contains(t, out, "ratio=0.558")
	assert.Contains(t, out, `error="below threshold"`)
	assert.NotContains(t, out, "time=")
}

func TestModuleLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "debug",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug"},
		ModuleLevels: map[string]string{"clips": "warn"},
	}, buf)
	require.NoError(t, err)

	cl.Module("clips").Info("hidden")
	cl.Module("clips").Warn("shown")
	cl.Module("kernel").Debug("debug shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, `msg="debug shown"`)
}

func TestWithAndContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelDebug, time.UTC)

	ctx := WithTraceID(context.Background(), "run-42")
	log.With(String("country", "kenya")).WithContext(ctx).Debug("loaded")

	out := buf.String()
	assert.Contains(t, out, "country=kenya")
	assert.Contains(t, out, "trace_id=run-42")
}

func TestLogExplicitLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelWarn, time.UTC)

	log.Log(LogLevelInfo, "filtered")
	log.Log(LogLevelError, "kept")

	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestFileOutputIsJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "reefscape.log")
	cl, err := newCentralLogger(&LoggingConfig{
		Console:    &ConsoleOutput{Enabled: false},
		FileOutput: &FileOutput{Enabled: true, Path: path, Level: "info"},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cl.Module("temporal").Info("kernel written", String("sound", "scrape"))
	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.True(t, strings.HasPrefix(line, "{"))
	assert.Contains(t, line, `"module":"temporal"`)
	assert.Contains(t, line, `"sound":"scrape"`)
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := newCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestBufferedFileWriterFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	w, err := NewBufferedFileWriter(path, WithFlushInterval(0), WithBufferSize(1024))
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, w.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}
