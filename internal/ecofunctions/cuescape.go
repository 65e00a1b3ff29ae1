package ecofunctions

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/coverage"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/suncalc"
)

// nightFinder assigns local times to the night that contains them
type nightFinder struct {
	country string
	sc      *suncalc.SunCalc
	padding time.Duration
	nights  map[string]*suncalc.Night // by evening date, nil when it failed
}

func newNightFinder(c *country, padding time.Duration) (*nightFinder, error) {
	sc, err := suncalc.NewSunCalcForZone(c.cfg.Latitude, c.cfg.Longitude, c.cfg.Timezone)
	if err != nil {
		return nil, errors.New(err).
			Component("ecofunctions").
			Category(errors.CategoryConfiguration).
			Context("country", c.name).
			Build()
	}
	return &nightFinder{country: c.name, sc: sc, padding: padding, nights: make(map[string]*suncalc.Night)}, nil
}

func (f *nightFinder) night(day time.Time) *suncalc.Night {
	key := day.Format(recording.DayLayout)
	if n, ok := f.nights[key]; ok {
		return n
	}

	n, err := f.sc.NightWindow(day, f.padding)
	if err != nil {
		GetLogger().Warn("Cannot compute night window, skipping night",
			logger.String("country", f.country),
			logger.String("date", key),
			logger.Error(err))
		f.nights[key] = nil
		return nil
	}
	f.nights[key] = &n
	return &n
}

// find returns the evening date of the night containing local, trying the
// night that starts on the same date and then the one before it.
func (f *nightFinder) find(local time.Time) (string, bool) {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{day, day.AddDate(0, 0, -1)} {
		if n := f.night(d); n != nil && n.Contains(local) {
			return n.Day, true
		}
	}
	return "", false
}

// nightKey is a site, night and treatment
type nightKey struct {
	Site      string
	Night     string
	Treatment recording.Treatment
}

// Cuescape computes the share of night-time five-second windows with a
// detection per site, night and treatment.
//
// Coverage is decided on recorder clock dates. Each kept one-minute file
// starting inside a night adds WindowsPerFile windows to max_poss_count.
// count is the number of detections of non-excluded sounds falling inside
// the same night. Rows are sorted by country, site, date, treatment.
func (b *Builder) Cuescape(ctx context.Context) ([]CuescapeRow, error) {
	start := time.Now()
	var rows []CuescapeRow

	err := b.forEachCountry(ctx, coverage.ByRecordedDay, func(c *country) error {
		finder, err := newNightFinder(c, b.settings.Cuescape.NightPadding)
		if err != nil {
			return err
		}

		totals := make(map[nightKey]int)
		for _, rec := range c.cov.KeptRecordings() {
			night, ok := finder.find(rec.Local)
			if !ok {
				continue
			}
			totals[nightKey{Site: rec.Site, Night: night, Treatment: rec.Treatment}] += b.settings.Cuescape.WindowsPerFile
		}
		if len(totals) == 0 {
			GetLogger().Info("No night-time recordings", logger.String("country", c.name))
			return nil
		}

		sounds, err := b.sounds(c, true)
		if err != nil {
			return err
		}

		detected := make(map[nightKey]int)
		for _, sound := range sounds {
			dets, err := b.detections(c, sound)
			if err != nil {
				return err
			}
			for _, d := range dets {
				night, ok := finder.find(d.Recording.Local)
				if !ok {
					continue
				}
				detected[nightKey{Site: d.Recording.Site, Night: night, Treatment: d.Recording.Treatment}]++
			}
		}

		for k, total := range totals {
			rows = append(rows, cuescapeRow(c.name, k, detected[k], total))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b CuescapeRow) int { return compareSiteFirst(a.Group, b.Group) })
	recordBuilt(CuescapeFile, len(rows), start)
	return rows, nil
}

func cuescapeRow(countryName string, k nightKey, count, total int) CuescapeRow {
	row := CuescapeRow{
		Group:       Group{Country: countryName, Site: k.Site, Date: k.Night, Treatment: k.Treatment},
		Count:       count,
		MaxPossible: total,
	}
	if total > 0 {
		row.Proportion = float64(count) / float64(total)
		row.LogMax = math.Log(float64(total))
	}
	return row
}
