package tabular

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

func TestParseTrimsHeaders(t *testing.T) {
	t.Parallel()

	in := "filename, timestamp_s, label, logit\n" +
		"ind_D2_20220830_130600.WAV, 5.0, scrape, 2.31\n" +
		"\n" +
		"ind_D2_20220830_130600.WAV, 10.0, scrape, NA\n"

	tbl, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"filename", "timestamp_s", "label", "logit"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	require.NoError(t, tbl.Require("filename", "logit"))
	assert.Equal(t, "ind_D2_20220830_130600.WAV", tbl.Value(0, "filename"))

	v, err := tbl.Float(0, "logit")
	require.NoError(t, err)
	assert.InDelta(t, 2.31, v, 1e-9)

	v, err = tbl.Float(1, "logit")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	assert.Equal(t, "", tbl.Value(0, "missing"))
}

func TestRequireReportsMissingColumns(t *testing.T) {
	t.Parallel()

	tbl, err := Parse(strings.NewReader("filename\nx\n"))
	require.NoError(t, err)

	err = tbl.Require("filename", "logit", "label")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logit, label")
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestReadMissingFileIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestFloatRejectsGarbage(t *testing.T) {
	t.Parallel()

	tbl, err := Parse(strings.NewReader("logit\nhigh\n"))
	require.NoError(t, err)
	_, err = tbl.Float(0, "logit")
	assert.Error(t, err)
}

func TestWriteCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "out.csv")
	require.NoError(t, Write(path, []string{"x", "y"}, [][]string{{"1", FormatFloat(math.NaN())}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,NA\n", string(data))
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.25", FormatFloat(0.25))
	assert.Equal(t, "1440", FormatFloat(1440))
	assert.Equal(t, NA, FormatFloat(math.Inf(1)))
}
