package temporal

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		BaseDir:   t.TempDir(),
		Countries: []string{"kenya"},
		Country: map[string]conf.CountryConfig{
			"kenya": {OffsetHours: 0, DutyCycle: 4, Latitude: -2.215361, Longitude: 41.014972, Timezone: "Africa/Nairobi"},
		},
		Paths: conf.PathSettings{
			DataDir:    "data",
			ResultsDir: "results",
			KernelsDir: "results/kernels/plots",
		},
		Detection: conf.DetectionSettings{LogitCutoff: 1.0},
		Coverage:  conf.CoverageSettings{Daily: 0.9, Kernel: 0.95},
		Kernel: conf.KernelSettings{
			Bandwidth:              0.5,
			GridPoints:             240,
			MinAggregateDetections: 100,
			Groups: [][]string{
				{"healthy", "degraded", "restored"},
				{"healthy", "degraded", "newly_restored"},
			},
		},
		Overlap: conf.OverlapSettings{
			Reps:        20,
			Confidence:  0.95,
			Workers:     2,
			Seed:        42,
			KMax:        3,
			GridPoints:  128,
			SmallSample: 75,
			Adjust:      conf.AdjustSettings{Dhat1: 0.8, Dhat4: 1, Dhat5: 4},
		},
	}
}

// stampedFiles returns n file names for a site, step apart from midnight
func stampedFiles(t *testing.T, site string, n int, step time.Duration) []string {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	names := make([]string, 0, n)
	for i := range n {
		ts := start.Add(time.Duration(i) * step)
		names = append(names, fmt.Sprintf("ken_%s_%s.WAV", site, ts.Format("20060102_150405")))
	}
	return names
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture records H1, D1 and N1 for a full day and R1 for part of it.
// Healthy grunts are spread over the day, degraded grunts cluster before
// dawn and newly restored has a single detection.
func fixture(t *testing.T) *conf.Settings {
	t.Helper()
	s := testSettings(t)

	var names []string
	for _, site := range []string{"H1", "D1", "N1"} {
		names = append(names, stampedFiles(t, site, 360, 4*time.Minute)...)
	}
	names = append(names, stampedFiles(t, "R1", 100, 4*time.Minute)...)
	writeFile(t, s.RawFileListPath("kenya"), "filename\n"+strings.Join(names, "\n")+"\n")

	var sb strings.Builder
	sb.WriteString("filename, timestamp_s, label, logit\n")
	for _, f := range stampedFiles(t, "H1", 120, 12*time.Minute) {
		fmt.Fprintf(&sb, "%s,0,grunt,2.0\n", f)
	}
	for _, f := range stampedFiles(t, "D1", 150, 2*time.Minute) {
		fmt.Fprintf(&sb, "%s,5,grunt,1.5\n", f)
	}
	sb.WriteString("ken_N1_20230101_120000.WAV,0,grunt,1.1\n")
	sb.WriteString("ken_N1_20230101_130000.WAV,0,grunt,0.2\n") // below cutoff
	sb.WriteString("ken_R1_20230101_010000.WAV,0,grunt,3.0\n") // excluded site-day
	writeFile(t, s.InferencePath("kenya", "grunt"), sb.String())

	return s
}

func TestTimes(t *testing.T) {
	t.Parallel()

	ts := &Times{Records: []TimeRecord{
		{Treatment: recording.Healthy, Hour: 1},
		{Treatment: recording.Degraded, Hour: 2},
		{Treatment: recording.Healthy, Hour: 3},
	}}
	assert.Equal(t, []float64{1, 3}, ts.Hours(recording.Healthy))
	assert.Empty(t, ts.Hours(recording.Restored))
	assert.Equal(t, map[recording.Treatment]int{recording.Healthy: 2, recording.Degraded: 1}, ts.Counts())
}

func TestKernels(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	report, err := New(s).Kernels(t.Context(), KernelOptions{Aggregate: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sounds)
	assert.Equal(t, 1, report.Plots)
	assert.Zero(t, report.Aggregated, "restored and newly restored are below the minimum")

	dir := s.KernelPlotDir("kenya")
	tbl, err := tabular.Read(filepath.Join(dir, RawTimesFile("grunt")))
	require.NoError(t, err)
	assert.Equal(t, RawTimesHeader, tbl.Header)
	assert.Len(t, tbl.Rows, 120+150+1)
	assert.Equal(t, []string{"healthy", "0"}, tbl.Rows[0])
	assert.Equal(t, []string{"healthy", "0.2"}, tbl.Rows[1])

	data, err := os.ReadFile(filepath.Join(dir, PlotFile("grunt")))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.NoFileExists(t, filepath.Join(dir, AggregateFile("grunt")))
}

func TestKernelsAggregate(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	s.Kernel.Groups = [][]string{{"healthy", "degraded"}}
	report, err := New(s).Kernels(t.Context(), KernelOptions{Aggregate: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Aggregated)
	assert.FileExists(t, filepath.Join(s.KernelPlotDir("kenya"), AggregateFile("grunt")))
}

func TestAggregateTreatments(t *testing.T) {
	t.Parallel()

	p := New(testSettings(t))
	tests := []struct {
		name   string
		counts map[recording.Treatment]int
		want   []recording.Treatment
	}{
		{
			name:   "neither group",
			counts: map[recording.Treatment]int{recording.Healthy: 500, recording.Degraded: 500, recording.Restored: 99},
			want:   nil,
		},
		{
			name:   "first group",
			counts: map[recording.Treatment]int{recording.Healthy: 100, recording.Degraded: 100, recording.Restored: 100},
			want:   []recording.Treatment{recording.Healthy, recording.Degraded, recording.Restored},
		},
		{
			name:   "second group",
			counts: map[recording.Treatment]int{recording.Healthy: 100, recording.Degraded: 100, recording.NewlyRestored: 100},
			want:   []recording.Treatment{recording.Healthy, recording.Degraded, recording.NewlyRestored},
		},
		{
			name: "both groups use the union",
			counts: map[recording.Treatment]int{
				recording.Healthy: 100, recording.Degraded: 100, recording.Restored: 100, recording.NewlyRestored: 100,
			},
			want: recording.Treatments,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.aggregateTreatments(tt.counts))
		})
	}
}

func TestTreatmentPairs(t *testing.T) {
	t.Parallel()

	pairs := TreatmentPairs()
	require.Len(t, pairs, 6)
	assert.Equal(t, Pair{A: recording.Healthy, B: recording.Degraded}, pairs[0])
	assert.Equal(t, Pair{A: recording.Restored, B: recording.NewlyRestored}, pairs[5])
}

func TestOverlap(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	results, err := New(s).Overlap(t.Context(), OverlapOptions{})
	require.NoError(t, err)

	// restored fails coverage, so three pairs remain
	require.Len(t, results, 3)
	assert.Equal(t, Pair{A: recording.Healthy, B: recording.Degraded}, Pair{A: results[0].TreatmentA, B: results[0].TreatmentB})
	assert.Equal(t, Pair{A: recording.Healthy, B: recording.NewlyRestored}, Pair{A: results[1].TreatmentA, B: results[1].TreatmentB})
	assert.Equal(t, Pair{A: recording.Degraded, B: recording.NewlyRestored}, Pair{A: results[2].TreatmentA, B: results[2].TreatmentB})

	hd := results[0]
	assert.Equal(t, 120, hd.N)
	assert.Equal(t, 150, hd.M)
	assert.Equal(t, "Dhat4", hd.Estimator)
	assert.Equal(t, hd.Dhat4, hd.Estimate)
	for _, v := range []float64{hd.Dhat1, hd.Dhat4, hd.Dhat5} {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
	assert.Equal(t, 20, hd.CI.Reps)
	assert.LessOrEqual(t, hd.CI.Percentile.Lower, hd.CI.Percentile.Upper)
	assert.Less(t, hd.CI.Norm0.Lower, hd.Estimate)
	assert.Greater(t, hd.CI.Norm0.Upper, hd.Estimate)
	assert.Less(t, hd.WatsonP, 0.05)
	assert.Equal(t, "<0.001", hd.WatsonBracket)
	assert.InDelta(t, 2.5, hd.MeanHourB, 0.1)

	// a single newly restored detection cannot be smoothed
	hn := results[1]
	assert.Equal(t, 1, hn.M)
	assert.Equal(t, "Dhat1", hn.Estimator)
	assert.True(t, math.IsNaN(hn.Dhat1))
	assert.True(t, math.IsNaN(hn.CI.Percentile.Lower))
	assert.False(t, math.IsNaN(hn.WatsonU2))
	assert.InDelta(t, 12.0, hn.MeanHourB, 1e-9)

	tbl, err := tabular.Read(s.ResultPath(OverlapFile))
	require.NoError(t, err)
	assert.Equal(t, OverlapHeader, tbl.Header)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, tabular.NA, tbl.Value(1, "dhat1"))
	assert.Equal(t, tabular.NA, tbl.Value(1, "ci_perc_lower"))
	assert.Equal(t, "Dhat4", tbl.Value(0, "estimator"))
}

func TestOverlapDeterministic(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	one, err := New(s).Overlap(t.Context(), OverlapOptions{Workers: 1})
	require.NoError(t, err)
	four, err := New(s).Overlap(t.Context(), OverlapOptions{Workers: 4})
	require.NoError(t, err)

	require.Len(t, four, len(one))
	assert.Equal(t, one[0].CI, four[0].CI)
}

func TestOverlapCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(fixture(t)).Overlap(ctx, OverlapOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestMissingInputs(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	report, err := New(s).Kernels(t.Context(), KernelOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Sounds)

	results, err := New(s).Overlap(t.Context(), OverlapOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.FileExists(t, s.ResultPath(OverlapFile))
}

func TestUnknownCountry(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Countries = []string{"atlantis"}
	_, err := New(s).Kernels(t.Context(), KernelOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestRecordNA(t *testing.T) {
	t.Parallel()

	r := missingResult(&Times{Country: "kenya", Sound: "grunt"}, Pair{A: recording.Healthy, B: recording.Degraded})
	rec := r.Record()
	require.Len(t, rec, len(OverlapHeader))
	assert.Equal(t, "kenya", rec[0])
	assert.Equal(t, tabular.NA, rec[6])
	assert.Equal(t, tabular.NA, rec[20])
}
