// Package inference loads per-sound detection CSVs produced by the classifier.
package inference

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// Column names, matched after whitespace trimming
const (
	ColFilename  = "filename"
	ColTimestamp = "timestamp_s"
	ColLabel     = "label"
	ColLogit     = "logit"
)

// Row is one classifier output line: a 5 second window of a recording
type Row struct {
	Filename   string
	TimestampS float64 // window start in seconds, NaN when the column is absent
	Label      string
	Logit      float64
}

// Detection is a row whose file name has been parsed
type Detection struct {
	Row
	Sound     string
	Recording recording.Recording
}

// CSVName returns the inference file name for a sound folder
func CSVName(sound string) string {
	return sound + "_inference.csv"
}

// Load reads an inference CSV. filename and logit are required.
func Load(path string) ([]Row, error) {
	tbl, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require(ColFilename, ColLogit); err != nil {
		return nil, err
	}

	hasTimestamp := tbl.Has(ColTimestamp)
	rows := make([]Row, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		logit, err := tbl.Float(i, ColLogit)
		if err != nil {
			return nil, err
		}

		ts := math.NaN()
		if hasTimestamp {
			if ts, err = tbl.Float(i, ColTimestamp); err != nil {
				return nil, err
			}
		}

		rows = append(rows, Row{
			Filename:   tbl.Value(i, ColFilename),
			TimestampS: ts,
			Label:      tbl.Value(i, ColLabel),
			Logit:      logit,
		})
	}

	GetLogger().Debug("Loaded inference CSV",
		logger.String("path", path),
		logger.Int("rows", len(rows)))

	return rows, nil
}

// FilterByLogit keeps rows with logit >= cutoff. NaN logits are dropped.
func FilterByLogit(rows []Row, cutoff float64) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Logit >= cutoff {
			out = append(out, r)
		}
	}
	return out
}

// Parse parses each row's file name with the country offset.
// Rows whose names cannot be parsed are logged and skipped.
func Parse(rows []Row, sound string, offset time.Duration) []Detection {
	out := make([]Detection, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		rec, err := recording.Parse(r.Filename, offset)
		if err != nil {
			skipped++
			GetLogger().Debug("Skipping detection with unparseable file name",
				logger.String("sound", sound),
				logger.String("filename", r.Filename))
			continue
		}
		out = append(out, Detection{Row: r, Sound: sound, Recording: rec})
	}
	if skipped > 0 {
		GetLogger().Warn("Skipped detections with unparseable file names",
			logger.String("sound", sound),
			logger.Int("skipped", skipped))
	}
	return out
}

// DiscoverSounds returns the sorted sound folders under agileDir that contain
// an inference CSV. A missing agileDir yields no sounds and a warning.
func DiscoverSounds(agileDir string) ([]string, error) {
	entries, err := os.ReadDir(agileDir)
	if err != nil {
		if os.IsNotExist(err) {
			GetLogger().Warn("agile_outputs directory not found",
				logger.String("path", agileDir))
			return nil, nil
		}
		return nil, errors.New(err).
			Component("inference").
			Category(errors.CategoryFileIO).
			Context("path", agileDir).
			Build()
	}

	var sounds []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sound := e.Name()
		csvPath := filepath.Join(agileDir, sound, CSVName(sound))
		if _, err := os.Stat(csvPath); err != nil {
			GetLogger().Info("No inference CSV in sound folder, skipping",
				logger.String("sound", sound),
				logger.String("path", csvPath))
			continue
		}
		sounds = append(sounds, sound)
	}
	slices.Sort(sounds)
	return sounds, nil
}

// LoadDetections loads, filters and parses the inference CSV for one sound.
// A missing CSV is reported as a not-found error so callers can skip it.
func LoadDetections(path, sound string, cutoff float64, offset time.Duration) ([]Detection, error) {
	rows, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Parse(FilterByLogit(rows, cutoff), sound, offset), nil
}
