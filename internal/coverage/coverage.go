// Package coverage decides which site-days were recorded completely enough to analyse.
package coverage

import (
	"cmp"
	"os"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

const minutesPerDay = 24 * 60

// ExpectedDailyRecordings returns files per day for a duty cycle in minutes.
// A recorder on a 4 minute cycle records 1 minute in 4, 360 files a day.
func ExpectedDailyRecordings(dutyCycle int) int {
	if dutyCycle <= 0 {
		return 0
	}
	return minutesPerDay / dutyCycle
}

// DayFunc picks the date a recording counts towards
type DayFunc func(recording.Recording) string

// ByLocalDay groups on the offset-corrected date
func ByLocalDay(r recording.Recording) string { return r.Day() }

// ByRecordedDay groups on the recorder clock date
func ByRecordedDay(r recording.Recording) string { return r.RecordedDay() }

// Key identifies a site-day
type Key struct {
	Site string
	Day  string
}

// SiteDay is a site-day with its treatment and file count
type SiteDay struct {
	Key
	Treatment recording.Treatment
	Files     int
}

// Exclusion is a site-day dropped for insufficient coverage
type Exclusion struct {
	SiteDay
	Expected int
}

// Result holds the outcome of a coverage filter
type Result struct {
	Kept       []SiteDay   // sorted by site, day
	Excluded   []Exclusion // sorted by site, day
	Recordings []recording.Recording
	kept       map[Key]SiteDay
	day        DayFunc
}

// Contains reports whether site-day passed the filter
func (r *Result) Contains(site, day string) bool {
	if r == nil {
		return false
	}
	_, ok := r.kept[Key{Site: site, Day: day}]
	return ok
}

// Allows reports whether a recording falls on a kept site-day
func (r *Result) Allows(rec recording.Recording) bool {
	if r == nil {
		return false
	}
	return r.Contains(rec.Site, r.day(rec))
}

// KeptRecordings returns the recordings on kept site-days
func (r *Result) KeptRecordings() []recording.Recording {
	out := make([]recording.Recording, 0, len(r.Recordings))
	for _, rec := range r.Recordings {
		if r.Allows(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Filter counts recordings per site-day and keeps those with at least
// threshold*expected files. Each exclusion is logged.
func Filter(recs []recording.Recording, expected int, threshold float64, day DayFunc) *Result {
	if day == nil {
		day = ByLocalDay
	}

	counts := make(map[Key]*SiteDay)
	for _, rec := range recs {
		k := Key{Site: rec.Site, Day: day(rec)}
		sd, ok := counts[k]
		if !ok {
			sd = &SiteDay{Key: k, Treatment: rec.Treatment}
			counts[k] = sd
		}
		sd.Files++
	}

	res := &Result{Recordings: recs, kept: make(map[Key]SiteDay, len(counts)), day: day}
	minFiles := threshold * float64(expected)

	for _, sd := range counts {
		if float64(sd.Files) >= minFiles {
			res.Kept = append(res.Kept, *sd)
			res.kept[sd.Key] = *sd
			continue
		}
		res.Excluded = append(res.Excluded, Exclusion{SiteDay: *sd, Expected: expected})
	}

	byKey := func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.Site, b.Site), cmp.Compare(a.Day, b.Day))
	}
	slices.SortFunc(res.Kept, func(a, b SiteDay) int { return byKey(a.Key, b.Key) })
	slices.SortFunc(res.Excluded, func(a, b Exclusion) int { return byKey(a.Key, b.Key) })

	for _, ex := range res.Excluded {
		GetLogger().Info("Excluding site-day with insufficient coverage",
			logger.String("site", ex.Site),
			logger.String("date", ex.Day),
			logger.Int("files", ex.Files),
			logger.Int("expected", ex.Expected))
	}

	return res
}

// LoadRawFileList parses every filename row of a raw file list.
// Unparseable names are logged and skipped.
func LoadRawFileList(path string, offset time.Duration) ([]recording.Recording, error) {
	tbl, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require("filename"); err != nil {
		return nil, err
	}

	recs := make([]recording.Recording, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		name := tbl.Value(i, "filename")
		rec, err := recording.Parse(name, offset)
		if err != nil {
			GetLogger().Warn("Skipping unparseable raw file name",
				logger.String("path", path),
				logger.String("filename", name))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Load reads a country's raw file list and filters it. A missing list is
// logged and yields an empty result.
func Load(path string, offset time.Duration, dutyCycle int, threshold float64, day DayFunc) (*Result, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		GetLogger().Warn("raw_file_list.csv not found",
			logger.String("path", path))
		return Filter(nil, ExpectedDailyRecordings(dutyCycle), threshold, day), nil
	}

	recs, err := LoadRawFileList(path, offset)
	if err != nil {
		return nil, errors.New(err).
			Component("coverage").
			Category(errors.CategoryFileParsing).
			FileContext(path).
			Build()
	}
	return Filter(recs, ExpectedDailyRecordings(dutyCycle), threshold, day), nil
}
