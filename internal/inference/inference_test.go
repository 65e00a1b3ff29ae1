package inference

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/recording"
)

const sampleCSV = `filename, timestamp_s, label, logit
ind_D2_20220830_130600.WAV, 0.0, scrape, 0.5
ind_D2_20220830_130600.WAV, 5.0, scrape, 1.0
ind_H1_20220830_230600.WAV, 10.0, scrape, 3.2
bad_name.WAV, 0.0, scrape, 4.0
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadAndFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scrape_inference.csv")
	writeFile(t, path, sampleCSV)

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.InDelta(t, 5.0, rows[1].TimestampS, 1e-9)
	assert.Equal(t, "scrape", rows[1].Label)

	kept := FilterByLogit(rows, 1.0)
	require.Len(t, kept, 3)
	assert.InDelta(t, 1.0, kept[0].Logit, 1e-9)
}

func TestLoadWithoutOptionalColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x_inference.csv")
	writeFile(t, path, "filename,logit\nken_H1_20230101_000000.WAV,2\n")

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].TimestampS))
	assert.Empty(t, rows[0].Label)
}

func TestLoadMissingLogitFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x_inference.csv")
	writeFile(t, path, "filename,label\nken_H1_20230101_000000.WAV,x\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestLoadDetectionsParsesAndSkips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scrape_inference.csv")
	writeFile(t, path, sampleCSV)

	dets, err := LoadDetections(path, "scrape", 1.0, 5*time.Hour)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, "scrape", dets[0].Sound)
	assert.Equal(t, recording.Degraded, dets[0].Recording.Treatment)
	assert.Equal(t, "20220830", dets[0].Recording.Day())
	// 23:06 + 5h rolls into the next day
	assert.Equal(t, "20220831", dets[1].Recording.Day())
}

func TestDiscoverSounds(t *testing.T) {
	t.Parallel()

	agile := t.TempDir()
	writeFile(t, filepath.Join(agile, "scrape", "scrape_inference.csv"), "filename,logit\n")
	writeFile(t, filepath.Join(agile, "growl", "growl_inference.csv"), "filename,logit\n")
	require.NoError(t, os.MkdirAll(filepath.Join(agile, "empty"), 0o755))
	writeFile(t, filepath.Join(agile, "notes.txt"), "x")

	sounds, err := DiscoverSounds(agile)
	require.NoError(t, err)
	assert.Equal(t, []string{"growl", "scrape"}, sounds)

	sounds, err = DiscoverSounds(filepath.Join(agile, "missing"))
	require.NoError(t, err)
	assert.Empty(t, sounds)
}
