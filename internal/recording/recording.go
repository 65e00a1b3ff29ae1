// Package recording parses the study's recording file names.
//
// Files are named <cc>_<site>_<YYYYMMDD>_<HHMMSS>.<ext>, for example
// ind_D2_20220830_130600.WAV. The first letter of the site code is the
// restoration treatment of the reef patch.
package recording

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// Treatment is the restoration state of a recording site
type Treatment string

const (
	Healthy       Treatment = "healthy"
	Degraded      Treatment = "degraded"
	Restored      Treatment = "restored"
	NewlyRestored Treatment = "newly_restored"
	Unknown       Treatment = "unknown"
)

// Treatments lists the known treatments in reporting order
var Treatments = []Treatment{Healthy, Degraded, Restored, NewlyRestored}

// timestampLayout is the YYYYMMDD_HHMMSS part of a file name
const timestampLayout = "20060102_150405"

// DayLayout formats dates in output tables
const DayLayout = "20060102"

// Recording is one parsed recording file name
type Recording struct {
	Filename  string    // base name
	Site      string
	Treatment Treatment
	Recorded  time.Time // recorder clock, naive (UTC location)
	Local     time.Time // Recorded shifted by the country offset
}

// Day returns the local date as YYYYMMDD
func (r Recording) Day() string {
	return r.Local.Format(DayLayout)
}

// RecordedDay returns the recorder clock date as YYYYMMDD
func (r Recording) RecordedDay() string {
	return r.Recorded.Format(DayLayout)
}

// Hour returns the local hour of day
func (r Recording) Hour() int {
	return r.Local.Hour()
}

// DecimalHour returns the local time of day in hours
func (r Recording) DecimalHour() float64 {
	return DecimalHour(r.Local)
}

// DecimalHour converts a clock time to hours since midnight
func DecimalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// BaseName strips any leading directories from a name listed in a CSV
func BaseName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	return path.Base(name)
}

// ParseTreatment maps the first letter of the site code to a treatment
func ParseTreatment(name string) Treatment {
	site := ParseSite(name)
	if site == "unknown" || site == "" {
		return Unknown
	}
	switch site[0] {
	case 'H':
		return Healthy
	case 'D':
		return Degraded
	case 'R':
		return Restored
	case 'N':
		return NewlyRestored
	default:
		return Unknown
	}
}

// ParseSite returns the chunk after the first underscore
func ParseSite(name string) string {
	parts := strings.Split(BaseName(name), "_")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}

// ParseTimestamp returns the recorder clock time encoded in the name
func ParseTimestamp(name string) (time.Time, error) {
	base := BaseName(name)
	parts := strings.Split(base, "_")
	if len(parts) < 4 || len(parts[3]) < 6 {
		return time.Time{}, errors.Newf("file name %q has no YYYYMMDD_HHMMSS timestamp", base).
			Component("recording").
			Category(errors.CategoryFileParsing).
			Context("file", base).
			Build()
	}

	stamp := parts[2] + "_" + parts[3][:6]
	t, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return time.Time{}, errors.New(fmt.Errorf("failed to parse timestamp in %q: %w", base, err)).
			Component("recording").
			Category(errors.CategoryFileParsing).
			Context("file", base).
			Build()
	}
	return t, nil
}

// Parse parses a recording name and applies the country clock offset
func Parse(name string, offset time.Duration) (Recording, error) {
	recorded, err := ParseTimestamp(name)
	if err != nil {
		return Recording{}, err
	}
	return Recording{
		Filename:  BaseName(name),
		Site:      ParseSite(name),
		Treatment: ParseTreatment(name),
		Recorded:  recorded,
		Local:     recorded.Add(offset),
	}, nil
}

// ParseTreatmentName maps a treatment label from a table back to a Treatment
func ParseTreatmentName(s string) Treatment {
	t := Treatment(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Treatments {
		if t == known {
			return known
		}
	}
	return Unknown
}
