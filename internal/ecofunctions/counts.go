package ecofunctions

import (
	"context"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/coverage"
	"github.com/marrs-acoustics/reefscape/internal/inference"
)

// CombinedCounts counts detections of sound per coverage-passing site-day,
// scaled by the country's duty cycle. Site-days without detections count 0.
// Rows are sorted by country, treatment, site, date.
func (b *Builder) CombinedCounts(ctx context.Context, sound string) ([]CountRow, error) {
	start := time.Now()
	var rows []CountRow

	err := b.forEachCountry(ctx, coverage.ByLocalDay, func(c *country) error {
		dets, err := b.detections(c, sound)
		if err != nil {
			return err
		}
		rows = append(rows, countRows(c, dets)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b CountRow) int { return compareTreatmentFirst(a.Group, b.Group) })
	recordBuilt(CombinedCountFile(sound), len(rows), start)
	return rows, nil
}

// countRows left-joins the kept site-days of c with per site-day detection counts
func countRows(c *country, dets []inference.Detection) []CountRow {
	counts := make(map[coverage.Key]int)
	for _, d := range dets {
		counts[coverage.Key{Site: d.Recording.Site, Day: d.Recording.Day()}]++
	}

	rows := make([]CountRow, 0, len(c.cov.Kept))
	for _, sd := range c.cov.Kept {
		rows = append(rows, CountRow{
			Group: Group{Country: c.name, Site: sd.Site, Date: sd.Day, Treatment: sd.Treatment},
			Count: counts[sd.Key] * c.cfg.DutyCycle,
		})
	}
	return rows
}
