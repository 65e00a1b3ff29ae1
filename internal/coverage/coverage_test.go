package coverage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/recording"
)

func TestExpectedDailyRecordings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 360, ExpectedDailyRecordings(4))
	assert.Equal(t, 720, ExpectedDailyRecordings(2))
	assert.Equal(t, 0, ExpectedDailyRecordings(0))
}

// dayFiles returns n one-minute files for a site starting at midnight every cycle minutes
func dayFiles(t *testing.T, site, day string, n, cycle int) []string {
	t.Helper()
	start, err := time.Parse("20060102", day)
	require.NoError(t, err)
	names := make([]string, 0, n)
	for i := range n {
		ts := start.Add(time.Duration(i*cycle) * time.Minute)
		names = append(names, fmt.Sprintf("ken_%s_%s.WAV", site, ts.Format("20060102_150405")))
	}
	return names
}

func parseAll(t *testing.T, names []string, offset time.Duration) []recording.Recording {
	t.Helper()
	recs := make([]recording.Recording, 0, len(names))
	for _, n := range names {
		r, err := recording.Parse(n, offset)
		require.NoError(t, err)
		recs = append(recs, r)
	}
	return recs
}

func TestFilterThreshold(t *testing.T) {
	t.Parallel()

	var names []string
	names = append(names, dayFiles(t, "H1", "20230101", 360, 4)...) // full day
	names = append(names, dayFiles(t, "H1", "20230102", 324, 4)...) // exactly 90%
	names = append(names, dayFiles(t, "D1", "20230101", 323, 4)...) // just under

	res := Filter(parseAll(t, names, 0), 360, 0.9, ByLocalDay)

	require.Len(t, res.Kept, 2)
	assert.Equal(t, Key{Site: "H1", Day: "20230101"}, res.Kept[0].Key)
	assert.Equal(t, recording.Healthy, res.Kept[0].Treatment)
	assert.Equal(t, 324, res.Kept[1].Files)

	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "D1", res.Excluded[0].Site)
	assert.Equal(t, 323, res.Excluded[0].Files)
	assert.Equal(t, 360, res.Excluded[0].Expected)

	assert.True(t, res.Contains("H1", "20230102"))
	assert.False(t, res.Contains("D1", "20230101"))
	assert.Len(t, res.KeptRecordings(), 360+324)
}

func TestFilterDayFuncs(t *testing.T) {
	t.Parallel()

	// a full recorder day shifted by -3h splits across two local days
	recs := parseAll(t, dayFiles(t, "R1", "20230101", 360, 4), -3*time.Hour)

	local := Filter(recs, 360, 0.9, ByLocalDay)
	assert.Empty(t, local.Kept)
	assert.Len(t, local.Excluded, 2)

	recorded := Filter(recs, 360, 0.9, ByRecordedDay)
	require.Len(t, recorded.Kept, 1)
	assert.Equal(t, "20230101", recorded.Kept[0].Day)
	assert.True(t, recorded.Allows(recs[0]))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "raw_file_list.csv")
	lines := append([]string{"filename"}, dayFiles(t, "H1", "20230101", 360, 4)...)
	lines = append(lines, "garbage.WAV")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	res, err := Load(path, 0, 4, 0.9, ByLocalDay)
	require.NoError(t, err)
	require.Len(t, res.Kept, 1)
	assert.Len(t, res.Recordings, 360)

	missing, err := Load(filepath.Join(dir, "nope.csv"), 0, 4, 0.9, ByLocalDay)
	require.NoError(t, err)
	assert.Empty(t, missing.Kept)
}
