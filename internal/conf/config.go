// Package conf loads reefscape settings from the embedded defaults, an optional
// config file, environment variables and command line overrides.
package conf

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/marrs-acoustics/reefscape/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// CountryConfig holds the recording conventions and location of one study country
type CountryConfig struct {
	OffsetHours float64 `mapstructure:"offset_hours" validate:"gte=-14,lte=14"`
	DutyCycle   int     `mapstructure:"duty_cycle" validate:"required,gte=1,lte=1440"`
	Latitude    float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
	Timezone    string  `mapstructure:"timezone" validate:"required,timezone"`
}

// Offset returns the clock offset as a duration
func (c CountryConfig) Offset() time.Duration {
	return time.Duration(c.OffsetHours * float64(time.Hour))
}

// ExpectedDailyRecordings is the number of one-minute files a recorder makes per day
func (c CountryConfig) ExpectedDailyRecordings() int {
	if c.DutyCycle <= 0 {
		return 0
	}
	return 1440 / c.DutyCycle
}

// PathSettings holds directory layout relative to the base directory
type PathSettings struct {
	DataDir    string `mapstructure:"data_dir"`
	ResultsDir string `mapstructure:"results_dir"`
	KernelsDir string `mapstructure:"kernels_dir"`
	ClipsDir   string `mapstructure:"clips_dir"`
	AudioRoot  string `mapstructure:"audio_root"` // root of <country>_acoustics folders
}

// DetectionSettings controls which inference rows count as detections
type DetectionSettings struct {
	LogitCutoff   float64  `mapstructure:"logit_cutoff"`
	ExcludeSounds []string `mapstructure:"exclude_sounds"` // skipped by richness and cuescape
}

// CoverageSettings holds the minimum share of expected files per site-day
type CoverageSettings struct {
	Daily  float64 `mapstructure:"daily"`
	Kernel float64 `mapstructure:"kernel"`
}

// CuescapeSettings controls the settlement cuescape night windows
type CuescapeSettings struct {
	NightPadding   time.Duration `mapstructure:"night_padding"`
	WindowsPerFile int           `mapstructure:"windows_per_file"`
}

// KernelSettings controls the linear temporal kernels
type KernelSettings struct {
	Bandwidth              float64    `mapstructure:"bandwidth"`
	GridPoints             int        `mapstructure:"grid_points"`
	MinAggregateDetections int        `mapstructure:"min_aggregate_detections"`
	Groups                 [][]string `mapstructure:"groups"`
}

// AdjustSettings scales the von Mises bandwidth per overlap estimator
type AdjustSettings struct {
	Dhat1 float64 `mapstructure:"dhat1"`
	Dhat4 float64 `mapstructure:"dhat4"`
	Dhat5 float64 `mapstructure:"dhat5"`
}

// OverlapSettings controls circular overlap estimation and bootstrapping
type OverlapSettings struct {
	Reps        int            `mapstructure:"reps"`
	Confidence  float64        `mapstructure:"confidence"`
	Workers     int            `mapstructure:"workers"` // 0 uses runtime.NumCPU
	Seed        uint64         `mapstructure:"seed"`
	KMax        float64        `mapstructure:"kmax"`
	GridPoints  int            `mapstructure:"grid_points"`
	SmallSample int            `mapstructure:"small_sample"`
	Adjust      AdjustSettings `mapstructure:"adjust"`
}

// ClipSettings controls detection clip extraction
type ClipSettings struct {
	Mode     string        `mapstructure:"mode"`
	Count    int           `mapstructure:"count"`
	Seed     uint64        `mapstructure:"seed"`
	Duration time.Duration `mapstructure:"duration"`
}

// OutputSettings holds optional result sinks
type OutputSettings struct {
	SQLite struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	XLSX struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"xlsx"`
	Metrics struct {
		Path string `mapstructure:"path"` // prometheus textfile, empty disables
	} `mapstructure:"metrics"`
}

// Settings contains all configuration options for reefscape
type Settings struct {
	Debug     bool                     `mapstructure:"debug"`
	BaseDir   string                   `mapstructure:"basedir"`
	Countries []string                 `mapstructure:"countries"`
	Country   map[string]CountryConfig `mapstructure:"country"`

	Paths     PathSettings         `mapstructure:"paths"`
	Detection DetectionSettings    `mapstructure:"detection"`
	Coverage  CoverageSettings     `mapstructure:"coverage"`
	Cuescape  CuescapeSettings     `mapstructure:"cuescape"`
	Kernel    KernelSettings       `mapstructure:"kernel"`
	Overlap   OverlapSettings      `mapstructure:"overlap"`
	Clips     ClipSettings         `mapstructure:"clips"`
	Output    OutputSettings       `mapstructure:"output"`
	Logging   logger.LoggingConfig `mapstructure:"logging"`
}

// LoadOptions are command line overrides applied on top of file and env config
type LoadOptions struct {
	ConfigFile string
	BaseDir    string
	Debug      bool
	Countries  []string
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings instance and validates it.
// Viper state is reset on each call so repeated loads start from defaults.
func Load(opts LoadOptions) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	viper.Reset()

	if err := initViper(opts.ConfigFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := bindEnvVars(); err != nil {
		return nil, err
	}

	if opts.BaseDir != "" {
		viper.Set("basedir", opts.BaseDir)
	}
	if opts.Debug {
		viper.Set("debug", true)
	}
	if len(opts.Countries) > 0 {
		viper.Set("countries", opts.Countries)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper registers defaults and reads the config file, falling back to the
// embedded config.yaml when none is found.
func initViper(configFile string) error {
	setDefaultConfig()
	viper.SetConfigType("yaml")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	for _, path := range defaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	err := viper.ReadInConfig()
	if err == nil {
		GetLogger().Debug("Read config file", logger.String("path", viper.ConfigFileUsed()))
		return nil
	}

	var configFileNotFoundError viper.ConfigFileNotFoundError
	if !errors.As(err, &configFileNotFoundError) {
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}
	return viper.ReadConfig(bytes.NewReader(data))
}

// defaultConfigPaths lists the directories searched for config.yaml
func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reefscape"))
	}
	return paths
}

// GetSettings returns the most recently loaded settings
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// CountryFor returns the configuration for a country and whether it exists
func (s *Settings) CountryFor(country string) (CountryConfig, bool) {
	cc, ok := s.Country[country]
	return cc, ok
}

// OverlapWorkers returns the bootstrap pool size
func (s *Settings) OverlapWorkers(numCPU int) int {
	if s.Overlap.Workers > 0 {
		return s.Overlap.Workers
	}
	return max(numCPU, 1)
}
