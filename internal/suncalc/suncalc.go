// internal/suncalc/suncalc.go

// Package suncalc computes sun events and night windows for study sites.
package suncalc

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sj14/astral/pkg/astral"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// SunEventTimes holds the calculated sun event times in the site's timezone
type SunEventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

// Night is the window from sunset of Day to sunrise of the next day, padded.
// Start and End are naive local wall-clock times (UTC location), matching
// offset-corrected recording times.
type Night struct {
	Day   string // YYYYMMDD of the evening
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End)
func (n Night) Contains(t time.Time) bool {
	return !t.Before(n.Start) && t.Before(n.End)
}

// SunCalc handles caching and calculation of sun event times for one site
type SunCalc struct {
	cache    *cache.Cache    // sun events keyed by location and local date
	observer astral.Observer // observer for sun event calculations
	location *time.Location  // site timezone
}

// NewSunCalc creates a new SunCalc instance. Cached entries never expire,
// so no janitor goroutine is started.
func NewSunCalc(latitude, longitude float64, location *time.Location) *SunCalc {
	if location == nil {
		location = time.UTC
	}
	return &SunCalc{
		cache:    cache.New(cache.NoExpiration, 0),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
		location: location,
	}
}

// NewSunCalcForZone is NewSunCalc with an IANA timezone name
func NewSunCalcForZone(latitude, longitude float64, zone string) (*SunCalc, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, errors.New(fmt.Errorf("invalid timezone %q: %w", zone, err)).
			Component("suncalc").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return NewSunCalc(latitude, longitude, loc), nil
}

// Location returns the site timezone
func (sc *SunCalc) Location() *time.Location {
	return sc.location
}

func (sc *SunCalc) cacheKey(day time.Time) string {
	return fmt.Sprintf("%.6f,%.6f,%s", sc.observer.Latitude, sc.observer.Longitude, day.Format("2006-01-02"))
}

// GetSunEventTimes returns the sun events whose local date is the calendar
// date of day. Only the year, month and day of day are used.
func (sc *SunCalc) GetSunEventTimes(day time.Time) (SunEventTimes, error) {
	day = calendarDay(day)
	key := sc.cacheKey(day)

	if cached, ok := sc.cache.Get(key); ok {
		if times, ok := cached.(SunEventTimes); ok {
			return times, nil
		}
	}

	times, err := sc.calculateSunEventTimes(day)
	if err != nil {
		return SunEventTimes{}, err
	}

	sc.cache.Set(key, times, cache.NoExpiration)
	return times, nil
}

// calculateSunEventTimes calculates the sun event times for a local calendar day
func (sc *SunCalc) calculateSunEventTimes(day time.Time) (SunEventTimes, error) {
	civilDawn, err := sc.onLocalDay("civil dawn", day, func(o astral.Observer, d time.Time) (time.Time, error) {
		return astral.Dawn(o, d, astral.DepressionCivil)
	})
	if err != nil {
		return SunEventTimes{}, err
	}

	sunrise, err := sc.onLocalDay("sunrise", day, astral.Sunrise)
	if err != nil {
		return SunEventTimes{}, err
	}

	sunset, err := sc.onLocalDay("sunset", day, astral.Sunset)
	if err != nil {
		return SunEventTimes{}, err
	}

	civilDusk, err := sc.onLocalDay("civil dusk", day, func(o astral.Observer, d time.Time) (time.Time, error) {
		return astral.Dusk(o, d, astral.DepressionCivil)
	})
	if err != nil {
		return SunEventTimes{}, err
	}

	return SunEventTimes{
		CivilDawn: civilDawn,
		Sunrise:   sunrise,
		Sunset:    sunset,
		CivilDusk: civilDusk,
	}, nil
}

type eventFunc func(astral.Observer, time.Time) (time.Time, error)

// onLocalDay evaluates an event in UTC and shifts the input date by a day
// when the result lands on a neighbouring local date.
func (sc *SunCalc) onLocalDay(name string, day time.Time, fn eventFunc) (time.Time, error) {
	var lastErr error
	for _, shift := range []int{0, -1, 1} {
		utc, err := fn(sc.observer, day.AddDate(0, 0, shift))
		if err != nil {
			lastErr = err
			continue
		}
		local := utc.In(sc.location)
		if sameDate(local, day) {
			return local, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no %s on local date", name)
	}
	return time.Time{}, errors.New(fmt.Errorf("failed to calculate %s for %s: %w", name, day.Format("2006-01-02"), lastErr)).
		Component("suncalc").
		Category(errors.CategoryStatistics).
		Context("latitude", sc.observer.Latitude).
		Context("longitude", sc.observer.Longitude).
		Build()
}

// GetSunriseTime returns the sunrise time for a given date
func (sc *SunCalc) GetSunriseTime(date time.Time) (time.Time, error) {
	sunEventTimes, err := sc.GetSunEventTimes(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sun event times: %w", err)
	}
	return sunEventTimes.Sunrise, nil
}

// GetSunsetTime returns the sunset time for a given date
func (sc *SunCalc) GetSunsetTime(date time.Time) (time.Time, error) {
	sunEventTimes, err := sc.GetSunEventTimes(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sun event times: %w", err)
	}
	return sunEventTimes.Sunset, nil
}

// NightWindow returns [sunset(day) - padding, sunrise(day+1) + padding)
// as naive local times.
func (sc *SunCalc) NightWindow(day time.Time, padding time.Duration) (Night, error) {
	day = calendarDay(day)

	sunset, err := sc.GetSunsetTime(day)
	if err != nil {
		return Night{}, err
	}
	sunrise, err := sc.GetSunriseTime(day.AddDate(0, 0, 1))
	if err != nil {
		return Night{}, err
	}

	return Night{
		Day:   day.Format("20060102"),
		Start: naive(sunset).Add(-padding),
		End:   naive(sunrise).Add(padding),
	}, nil
}

// calendarDay returns noon UTC on the calendar date of t
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// naive drops the zone, keeping the wall clock
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
