package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/datastore"
	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testRuntime(t *testing.T) *Runtime {
	t.Helper()
	s := &conf.Settings{
		BaseDir:   t.TempDir(),
		Countries: []string{"kenya"},
		Paths:     conf.PathSettings{ResultsDir: "results"},
	}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "reefscape.db"
	s.Output.XLSX.Enabled = true
	s.Output.XLSX.Path = "reefscape.xlsx"
	s.Output.Metrics.Path = "reefscape.prom"
	return &Runtime{Settings: s}
}

func latestRun(t *testing.T, s *conf.Settings, command string) *datastore.Run {
	t.Helper()
	store := datastore.New(s)
	require.NoError(t, store.Open())
	defer func() { require.NoError(t, store.Close()) }()
	run, err := store.LatestRun(t.Context(), command)
	require.NoError(t, err)
	return run
}

func TestExecute(t *testing.T) {
	rt := testRuntime(t)

	err := rt.Execute(t.Context(), "shannon", func(ctx context.Context) error {
		obs := []ecofunctions.Observation{{Country: "kenya", Site: "H1", Date: "2023-01-01", Treatment: "healthy", Metric: "shannon", Value: 1.2}}
		return rt.PublishTable(ctx, "shannon_index",
			ecofunctions.ShannonHeader,
			[][]string{{"kenya", "H1", "2023-01-01", "healthy", "1.2"}},
			obs)
	})
	require.NoError(t, err)

	s := rt.Settings
	run := latestRun(t, s, "shannon")
	assert.Equal(t, datastore.StatusSuccess, run.Status)

	f, err := excelize.OpenFile(s.OutputPath(s.Output.XLSX.Path))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"shannon_index"}, f.GetSheetList())

	prom, err := os.ReadFile(s.OutputPath(s.Output.Metrics.Path))
	require.NoError(t, err)
	assert.NotEmpty(t, prom)
}

func TestExecuteFailure(t *testing.T) {
	rt := testRuntime(t)

	err := rt.Execute(t.Context(), "counts", func(ctx context.Context) error {
		return errors.Newf("broken input").
			Component("test").
			Category(errors.CategoryFileParsing).
			Build()
	})
	require.Error(t, err)

	s := rt.Settings
	assert.Equal(t, datastore.StatusFailed, latestRun(t, s, "counts").Status)
	assert.NoFileExists(t, s.OutputPath(s.Output.XLSX.Path), "no workbook after a failure")

	prom, err := os.ReadFile(s.OutputPath(s.Output.Metrics.Path))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `reefscape_errors_total{category="file-parsing",component="test"} 1`)
}

func TestExecuteWithoutSinks(t *testing.T) {
	rt := &Runtime{Settings: &conf.Settings{BaseDir: t.TempDir()}}

	called := false
	err := rt.Execute(t.Context(), "richness", func(ctx context.Context) error {
		called = true
		return rt.PublishTable(ctx, "richness", []string{"a"}, [][]string{{"1"}}, nil)
	})
	require.NoError(t, err)
	assert.True(t, called)

	entries, err := os.ReadDir(rt.Settings.BaseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecuteUninitialized(t *testing.T) {
	err := NewRuntime().Execute(t.Context(), "counts", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.NoError(t, NewRuntime().Close())
}

func TestInitLoadsSettings(t *testing.T) {
	dir := t.TempDir()
	rt := NewRuntime()
	rt.Options = conf.LoadOptions{BaseDir: dir, Countries: []string{"kenya"}}
	require.NoError(t, rt.Init())
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, dir, rt.Settings.BaseDir)
	assert.Equal(t, []string{"kenya"}, rt.Settings.Countries)
	assert.Equal(t, filepath.Join(dir, rt.Settings.Paths.ResultsDir), rt.Settings.ResultsDir())
}
