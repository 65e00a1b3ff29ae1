package recording

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

func TestParseTreatment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Treatment
	}{
		{"ind_D2_20220830_130600.WAV", Degraded},
		{"ind_H1_20220830_130600.WAV", Healthy},
		{"aus_R3_20221001_000000.WAV", Restored},
		{"mex_N10_20230101_235900.WAV", NewlyRestored},
		{"ken_X1_20230101_235900.WAV", Unknown},
		{"ind", Unknown},
		{"", Unknown},
		{"subdir/ken_H2_20230101_000000.WAV", Healthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseTreatment(tt.name))
		})
	}
}

func TestParseSite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "D2", ParseSite("ind_D2_20220830_130600.WAV"))
	assert.Equal(t, "N10", ParseSite("a/b/mex_N10_20230101_235900.WAV"))
	assert.Equal(t, "unknown", ParseSite("nounderscore.WAV"))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	got, err := ParseTimestamp("ind_D2_20220830_130600.WAV")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 8, 30, 13, 6, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("ind_D2_2022083_1306.WAV")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))

	_, err = ParseTimestamp("ind_D2.WAV")
	require.Error(t, err)
}

func TestParseAppliesOffset(t *testing.T) {
	t.Parallel()

	// australia offset crosses midnight backwards
	rec, err := Parse("aus_H1_20221001_053000.WAV", -10*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "aus_H1_20221001_053000.WAV", rec.Filename)
	assert.Equal(t, "H1", rec.Site)
	assert.Equal(t, Healthy, rec.Treatment)
	assert.Equal(t, "20221001", rec.RecordedDay())
	assert.Equal(t, "20220930", rec.Day())
	assert.Equal(t, 19, rec.Hour())
	assert.InDelta(t, 19.5, rec.DecimalHour(), 1e-9)
}

func TestDecimalHour(t *testing.T) {
	t.Parallel()

	ts := time.Date(2022, 1, 1, 13, 30, 36, 0, time.UTC)
	assert.InDelta(t, 13.51, DecimalHour(ts), 1e-9)
}

func TestParseTreatmentName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NewlyRestored, ParseTreatmentName(" Newly_Restored "))
	assert.Equal(t, Unknown, ParseTreatmentName("bleached"))
}
