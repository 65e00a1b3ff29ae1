package ecofunctions

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/coverage"
	"github.com/marrs-acoustics/reefscape/internal/recording"
)

// hourKey is a site-day-hour
type hourKey struct {
	coverage.Key
	Hour int
}

// presence collects the set of sounds detected per key
type presence[K comparable] map[K]map[string]struct{}

func (p presence[K]) add(k K, sound string) {
	set, ok := p[k]
	if !ok {
		set = make(map[string]struct{})
		p[k] = set
	}
	set[sound] = struct{}{}
}

// Richness counts distinct sounds detected per coverage-passing site-day,
// ignoring excluded sounds. Missing combinations are 0. With hourly set,
// every recorded hour of a kept site-day gets its own row, while coverage
// stays day based. Rows are sorted by country, treatment, site, date, hour.
func (b *Builder) Richness(ctx context.Context, hourly bool) ([]RichnessRow, error) {
	start := time.Now()
	var rows []RichnessRow

	err := b.forEachCountry(ctx, coverage.ByLocalDay, func(c *country) error {
		sounds, err := b.sounds(c, true)
		if err != nil {
			return err
		}

		daily := presence[coverage.Key]{}
		byHour := presence[hourKey]{}
		for _, sound := range sounds {
			dets, err := b.detections(c, sound)
			if err != nil {
				return err
			}
			for _, d := range dets {
				k := coverage.Key{Site: d.Recording.Site, Day: d.Recording.Day()}
				if hourly {
					byHour.add(hourKey{Key: k, Hour: d.Recording.Hour()}, sound)
				} else {
					daily.add(k, sound)
				}
			}
		}

		if hourly {
			rows = append(rows, hourlyRichnessRows(c, byHour)...)
		} else {
			rows = append(rows, dailyRichnessRows(c, daily)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b RichnessRow) int {
		return cmp.Or(compareTreatmentFirst(a.Group, b.Group), cmp.Compare(a.Hour, b.Hour))
	})

	name := RichnessFile
	if hourly {
		name = RichnessHourlyFile
	}
	recordBuilt(name, len(rows), start)
	return rows, nil
}

func dailyRichnessRows(c *country, daily presence[coverage.Key]) []RichnessRow {
	rows := make([]RichnessRow, 0, len(c.cov.Kept))
	for _, sd := range c.cov.Kept {
		rows = append(rows, RichnessRow{
			Group:    Group{Country: c.name, Site: sd.Site, Date: sd.Day, Treatment: sd.Treatment},
			Hour:     -1,
			Richness: len(daily[sd.Key]),
		})
	}
	return rows
}

// hourlyRichnessRows emits one row per recorded hour on kept site-days
func hourlyRichnessRows(c *country, byHour presence[hourKey]) []RichnessRow {
	seen := make(map[hourKey]recording.Treatment)
	for _, rec := range c.cov.KeptRecordings() {
		k := hourKey{Key: coverage.Key{Site: rec.Site, Day: rec.Day()}, Hour: rec.Hour()}
		if _, ok := seen[k]; !ok {
			seen[k] = rec.Treatment
		}
	}

	rows := make([]RichnessRow, 0, len(seen))
	for k, treatment := range seen {
		rows = append(rows, RichnessRow{
			Group:    Group{Country: c.name, Site: k.Site, Date: k.Day, Treatment: treatment},
			Hour:     k.Hour,
			Richness: len(byHour[k]),
		})
	}
	return rows
}
