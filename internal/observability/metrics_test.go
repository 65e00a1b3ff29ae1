package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

func TestWriteTextfile(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Pipeline.RecordFilesParsed("kenya", 12)
	m.Clips.RecordOperation(metrics.OpClip, metrics.StatusSuccess)

	path := filepath.Join(t.TempDir(), "reefscape.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `reefscape_files_parsed_total{country="kenya"} 12`)
	assert.Contains(t, string(data), "reefscape_clips_total")

	assert.NoError(t, m.WriteTextfile(""), "an empty path is a no-op")

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestInstallCountsErrors(t *testing.T) {
	t.Cleanup(errors.ClearErrorHooks)

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Install()

	_ = errors.Newf("bad header").
		Component("tabular").
		Category(errors.CategoryFileParsing).
		Build()
	_ = errors.Newf("bad header again").
		Component("tabular").
		Category(errors.CategoryFileParsing).
		Build()

	count := testutil.CollectAndCount(m.Errors, "reefscape_errors_total")
	assert.Equal(t, 1, count, "one label set")
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.Errors), 0)
}
