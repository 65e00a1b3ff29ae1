package ecofunctions

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/coverage"
)

// ShannonIndex returns H = -Σ p_i ln p_i over per-sound counts.
// Zero counts are ignored and an empty or all-zero input gives 0.
func ShannonIndex(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	h := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}

// Shannon computes the Shannon diversity of detected sounds per
// coverage-passing site-day. Every sound folder takes part, excluded
// sounds included. Rows are sorted by country, treatment, site, date.
func (b *Builder) Shannon(ctx context.Context) ([]ShannonRow, error) {
	start := time.Now()
	var rows []ShannonRow

	err := b.forEachCountry(ctx, coverage.ByLocalDay, func(c *country) error {
		sounds, err := b.sounds(c, false)
		if err != nil {
			return err
		}

		perSound := make(map[coverage.Key][]int)
		for i, sound := range sounds {
			dets, err := b.detections(c, sound)
			if err != nil {
				return err
			}
			for _, d := range dets {
				k := coverage.Key{Site: d.Recording.Site, Day: d.Recording.Day()}
				counts, ok := perSound[k]
				if !ok {
					counts = make([]int, len(sounds))
					perSound[k] = counts
				}
				counts[i]++
			}
		}

		for _, sd := range c.cov.Kept {
			rows = append(rows, ShannonRow{
				Group:   Group{Country: c.name, Site: sd.Site, Date: sd.Day, Treatment: sd.Treatment},
				Shannon: ShannonIndex(perSound[sd.Key]),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b ShannonRow) int { return compareTreatmentFirst(a.Group, b.Group) })
	recordBuilt(ShannonFile, len(rows), start)
	return rows, nil
}
