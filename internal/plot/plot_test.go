package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/recording"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Temporal Kernel for grunt in Kenya", Title("grunt", "kenya"))
}

func TestTreatmentColor(t *testing.T) {
	t.Parallel()

	r, g, b, _ := TreatmentColor(recording.Degraded).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	r, g, b, _ = TreatmentColor(recording.Unknown).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestSavePNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plots", "kenya", "grunt.png")
	kp := KernelPlot{
		Title: Title("grunt", "kenya"),
		Series: []Series{
			TreatmentSeries(recording.Healthy, []float64{0, 6, 12, 18, 24}, []float64{0.01, 0.05, 0.1, 0.05, 0.01}),
			TreatmentSeries(recording.Degraded, nil, nil), // legend only
		},
	}
	require.NoError(t, kp.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSaveRejectsMismatchedSeries(t *testing.T) {
	t.Parallel()

	kp := KernelPlot{Series: []Series{{Label: "bad", X: []float64{1, 2}, Y: []float64{1}}}}
	require.Error(t, kp.Save(filepath.Join(t.TempDir(), "bad.png")))
}
