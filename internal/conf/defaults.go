// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers default values so a partial config file still
// yields complete settings.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("basedir", "")
	viper.SetDefault("countries", []string{"australia", "kenya", "indonesia", "maldives", "mexico"})

	for name, cc := range defaultCountries() {
		prefix := "country." + name + "."
		viper.SetDefault(prefix+"offset_hours", cc.OffsetHours)
		viper.SetDefault(prefix+"duty_cycle", cc.DutyCycle)
		viper.SetDefault(prefix+"latitude", cc.Latitude)
		viper.SetDefault(prefix+"longitude", cc.Longitude)
		viper.SetDefault(prefix+"timezone", cc.Timezone)
	}

	viper.SetDefault("paths.data_dir", "marrs_acoustics/data")
	viper.SetDefault("paths.results_dir", "marrs_acoustics/data/results/functions")
	viper.SetDefault("paths.kernels_dir", "marrs_acoustics/data/results/functions/kernels/plots")
	viper.SetDefault("paths.clips_dir", "marrs_acoustics/data/pred_audio_samples")
	viper.SetDefault("paths.audio_root", "")

	viper.SetDefault("detection.logit_cutoff", 1.0)
	viper.SetDefault("detection.exclude_sounds", []string{"snap", "snaps"})

	viper.SetDefault("coverage.daily", 0.9)
	viper.SetDefault("coverage.kernel", 0.95)

	viper.SetDefault("cuescape.night_padding", 30*time.Minute)
	viper.SetDefault("cuescape.windows_per_file", 12)

	viper.SetDefault("kernel.bandwidth", 0.5)
	viper.SetDefault("kernel.grid_points", 240)
	viper.SetDefault("kernel.min_aggregate_detections", 100)
	viper.SetDefault("kernel.groups", [][]string{
		{"healthy", "degraded", "restored"},
		{"healthy", "degraded", "newly_restored"},
	})

	viper.SetDefault("overlap.reps", 1000)
	viper.SetDefault("overlap.confidence", 0.95)
	viper.SetDefault("overlap.workers", 0)
	viper.SetDefault("overlap.seed", 42)
	viper.SetDefault("overlap.kmax", 3.0)
	viper.SetDefault("overlap.grid_points", 128)
	viper.SetDefault("overlap.small_sample", 75)
	viper.SetDefault("overlap.adjust.dhat1", 0.8)
	viper.SetDefault("overlap.adjust.dhat4", 1.0)
	viper.SetDefault("overlap.adjust.dhat5", 4.0)

	viper.SetDefault("clips.mode", "random")
	viper.SetDefault("clips.count", 100)
	viper.SetDefault("clips.seed", 42)
	viper.SetDefault("clips.duration", 5*time.Second)

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "reefscape.db")
	viper.SetDefault("output.xlsx.enabled", false)
	viper.SetDefault("output.xlsx.path", "reefscape_results.xlsx")
	viper.SetDefault("output.metrics.path", "")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/reefscape.log")
	viper.SetDefault("logging.file_output.level", "debug")
}

// defaultCountries returns the study's recording conventions per country
func defaultCountries() map[string]CountryConfig {
	return map[string]CountryConfig{
		"australia": {OffsetHours: -10, DutyCycle: 4, Latitude: -16.846378, Longitude: 146.228253, Timezone: "Australia/Brisbane"},
		"kenya":     {OffsetHours: -3, DutyCycle: 4, Latitude: -2.215361, Longitude: 41.014972, Timezone: "Africa/Nairobi"},
		"indonesia": {OffsetHours: 0, DutyCycle: 2, Latitude: -4.92913, Longitude: 119.3175, Timezone: "Asia/Makassar"},
		"maldives":  {OffsetHours: 5, DutyCycle: 4, Latitude: 4.8864, Longitude: 72.9278, Timezone: "Indian/Maldives"},
		"mexico":    {OffsetHours: 7, DutyCycle: 4, Latitude: 18.34133, Longitude: -87.80717, Timezone: "America/Cancun"},
	}
}
