package conf

import (
	"path/filepath"
)

// CountryDataDir is <base>/<data_dir>/output_dir_<country>
func (s *Settings) CountryDataDir(country string) string {
	return filepath.Join(s.BaseDir, s.Paths.DataDir, "output_dir_"+country)
}

// RawFileListPath is the per-country list of every recorded file
func (s *Settings) RawFileListPath(country string) string {
	return filepath.Join(s.CountryDataDir(country), "raw_file_list.csv")
}

// AgileDir holds one sub-folder per sound with its inference CSV
func (s *Settings) AgileDir(country string) string {
	return filepath.Join(s.CountryDataDir(country), "agile_outputs")
}

// InferencePath is <agile_dir>/<sound>/<sound>_inference.csv
func (s *Settings) InferencePath(country, sound string) string {
	return filepath.Join(s.AgileDir(country), sound, sound+"_inference.csv")
}

// ResultsDir is where derived tables are written
func (s *Settings) ResultsDir() string {
	return filepath.Join(s.BaseDir, s.Paths.ResultsDir)
}

// ResultPath returns name inside the results directory
func (s *Settings) ResultPath(name string) string {
	return filepath.Join(s.ResultsDir(), name)
}

// KernelPlotDir holds kernel plots and raw detection times for a country
func (s *Settings) KernelPlotDir(country string) string {
	return filepath.Join(s.BaseDir, s.Paths.KernelsDir, country)
}

// ClipDir is where clips for a country and sound are written
func (s *Settings) ClipDir(country, sound string) string {
	return filepath.Join(s.BaseDir, s.Paths.ClipsDir, country, sound)
}

// AudioDir is the folder holding a country's raw recordings
func (s *Settings) AudioDir(country string) string {
	return filepath.Join(s.Paths.AudioRoot, country+"_acoustics")
}

// OutputPath resolves an output file, relative paths land in the results directory
func (s *Settings) OutputPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.ResultsDir(), path)
}
