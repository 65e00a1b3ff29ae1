package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every bound variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range getEnvBindings() {
		t.Setenv(b.EnvVar, "")
	}
}

func TestLoadRequiresBaseDir(t *testing.T) {
	clearEnv(t)

	_, err := Load(LoadOptions{ConfigFile: writeConfig(t, "debug: false\n")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), BaseDirEnv)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()
	t.Setenv(BaseDirEnv, base)

	settings, err := Load(LoadOptions{ConfigFile: writeConfig(t, "debug: false\n")})
	require.NoError(t, err)

	assert.Equal(t, base, settings.BaseDir)
	assert.Equal(t, []string{"australia", "kenya", "indonesia", "maldives", "mexico"}, settings.Countries)

	indo, ok := settings.CountryFor("indonesia")
	require.True(t, ok)
	assert.Equal(t, 2, indo.DutyCycle)
	assert.Equal(t, 720, indo.ExpectedDailyRecordings())
	assert.Equal(t, "Asia/Makassar", indo.Timezone)

	kenya, _ := settings.CountryFor("kenya")
	assert.Equal(t, -3*time.Hour, kenya.Offset())
	assert.Equal(t, 360, kenya.ExpectedDailyRecordings())

	assert.InDelta(t, 1.0, settings.Detection.LogitCutoff, 1e-9)
	assert.ElementsMatch(t, []string{"snap", "snaps"}, settings.Detection.ExcludeSounds)
	assert.InDelta(t, 0.9, settings.Coverage.Daily, 1e-9)
	assert.InDelta(t, 0.95, settings.Coverage.Kernel, 1e-9)
	assert.Equal(t, 30*time.Minute, settings.Cuescape.NightPadding)
	assert.Equal(t, 12, settings.Cuescape.WindowsPerFile)
	assert.Len(t, settings.Kernel.Groups, 2)
	assert.Equal(t, 5*time.Second, settings.Clips.Duration)
	assert.Equal(t, uint64(42), settings.Overlap.Seed)
	assert.InDelta(t, 0.8, settings.Overlap.Adjust.Dhat1, 1e-9)
	assert.Same(t, settings, GetSettings())
}

func TestLoadConfigFileAndOverrides(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()

	cfg := writeConfig(t, `
countries: [kenya, mexico]
coverage:
  daily: 0.8
clips:
  mode: ordered
  count: 10
`)
	settings, err := Load(LoadOptions{
		ConfigFile: cfg,
		BaseDir:    base,
		Debug:      true,
		Countries:  []string{"mexico"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"mexico"}, settings.Countries)
	assert.InDelta(t, 0.8, settings.Coverage.Daily, 1e-9)
	assert.Equal(t, "ordered", settings.Clips.Mode)
	assert.Equal(t, 10, settings.Clips.Count)
	assert.True(t, settings.Debug)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)

	// country blocks not mentioned in the file keep their defaults
	mexico, ok := settings.CountryFor("mexico")
	require.True(t, ok)
	assert.InDelta(t, 7.0, mexico.OffsetHours, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(BaseDirEnv, t.TempDir())
	t.Setenv("REEFSCAPE_FILE_COVERAGE", "0.85")
	t.Setenv("REEFSCAPE_LOGIT_CUTOFF", "2.5")

	settings, err := Load(LoadOptions{ConfigFile: writeConfig(t, "debug: false\n")})
	require.NoError(t, err)
	assert.InDelta(t, 0.85, settings.Coverage.Daily, 1e-9)
	assert.InDelta(t, 2.5, settings.Detection.LogitCutoff, 1e-9)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(BaseDirEnv, t.TempDir())
	t.Setenv("REEFSCAPE_KERNEL_COVERAGE", "1.5")

	_, err := Load(LoadOptions{ConfigFile: writeConfig(t, "debug: false\n")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REEFSCAPE_KERNEL_COVERAGE")
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), BaseDir: t.TempDir()})
	require.Error(t, err)
}

func TestSettingsPaths(t *testing.T) {
	t.Parallel()

	s := &Settings{
		BaseDir: "/data",
		Paths: PathSettings{
			DataDir:    "marrs_acoustics/data",
			ResultsDir: "marrs_acoustics/data/results/functions",
			KernelsDir: "marrs_acoustics/data/results/functions/kernels/plots",
			ClipsDir:   "marrs_acoustics/data/pred_audio_samples",
			AudioRoot:  "/media/audio",
		},
	}

	assert.Equal(t, "/data/marrs_acoustics/data/output_dir_kenya/raw_file_list.csv", s.RawFileListPath("kenya"))
	assert.Equal(t, "/data/marrs_acoustics/data/output_dir_kenya/agile_outputs/scrape/scrape_inference.csv", s.InferencePath("kenya", "scrape"))
	assert.Equal(t, "/data/marrs_acoustics/data/results/functions/shannon_index.csv", s.ResultPath("shannon_index.csv"))
	assert.Equal(t, "/data/marrs_acoustics/data/results/functions/kernels/plots/mexico", s.KernelPlotDir("mexico"))
	assert.Equal(t, "/data/marrs_acoustics/data/pred_audio_samples/indonesia/scrape_fullband", s.ClipDir("indonesia", "scrape_fullband"))
	assert.Equal(t, "/media/audio/indonesia_acoustics", s.AudioDir("indonesia"))
	assert.Equal(t, "/abs/x.db", s.OutputPath("/abs/x.db"))
	assert.Equal(t, "/data/marrs_acoustics/data/results/functions/x.db", s.OutputPath("x.db"))
}

func TestOverlapWorkers(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	assert.Equal(t, 8, s.OverlapWorkers(8))
	assert.Equal(t, 1, s.OverlapWorkers(0))
	s.Overlap.Workers = 3
	assert.Equal(t, 3, s.OverlapWorkers(8))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
