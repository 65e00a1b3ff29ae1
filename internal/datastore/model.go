package datastore

import (
	"math"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Run is one invocation of a pipeline command
type Run struct {
	ID             string `gorm:"primaryKey;size:36"`
	Command        string `gorm:"index;not null"`
	StartedAt      time.Time
	FinishedAt     *time.Time
	Status         string `gorm:"size:16"`
	SettingsDigest string `gorm:"size:64"`
	Observations   []Observation
	OverlapResults []OverlapResult
}

// Observation is one row of a diversity or count table.
// Missing values are stored as NULL.
type Observation struct {
	ID               uint   `gorm:"primaryKey"`
	RunID            string `gorm:"index;size:36;not null"`
	Source           string `gorm:"index;not null"` // result table name
	Country          string `gorm:"index:idx_observation_group"`
	Site             string `gorm:"index:idx_observation_group"`
	Date             string `gorm:"index:idx_observation_group"`
	Hour             int
	Treatment        string
	Metric           string
	Count            *float64
	MaxPossibleCount *float64
	Value            *float64
}

// OverlapResult is one treatment pair comparison.
// Missing values are stored as NULL.
type OverlapResult struct {
	ID             uint   `gorm:"primaryKey"`
	RunID          string `gorm:"index;size:36;not null"`
	Country        string `gorm:"index:idx_overlap_pair"`
	Sound          string `gorm:"index:idx_overlap_pair"`
	TreatmentA     string `gorm:"index:idx_overlap_pair"`
	TreatmentB     string `gorm:"index:idx_overlap_pair"`
	N              int
	M              int
	Dhat1          *float64
	Dhat4          *float64
	Dhat5          *float64
	Estimator      string
	Estimate       *float64
	PercentileLow  *float64
	PercentileHigh *float64
	Basic0Low      *float64
	Basic0High     *float64
	Norm0Low       *float64
	Norm0High      *float64
	BootReps       int
	WatsonU2       *float64
	WatsonP        *float64
	WatsonBracket  string
	MeanHourA      *float64
	MeanHourB      *float64
}

// nullable maps NaN and infinities to NULL
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewObservation converts a table row produced under runID
func NewObservation(runID, source string, o ecofunctions.Observation) Observation {
	return Observation{
		RunID:            runID,
		Source:           source,
		Country:          o.Country,
		Site:             o.Site,
		Date:             o.Date,
		Hour:             o.Hour,
		Treatment:        o.Treatment,
		Metric:           o.Metric,
		Count:            nullable(o.Count),
		MaxPossibleCount: nullable(o.MaxPossibleCount),
		Value:            nullable(o.Value),
	}
}

// NewOverlapResult converts an overlap comparison produced under runID
func NewOverlapResult(runID string, r temporal.OverlapResult) OverlapResult {
	return OverlapResult{
		RunID:          runID,
		Country:        r.Country,
		Sound:          r.Sound,
		TreatmentA:     string(r.TreatmentA),
		TreatmentB:     string(r.TreatmentB),
		N:              r.N,
		M:              r.M,
		Dhat1:          nullable(r.Dhat1),
		Dhat4:          nullable(r.Dhat4),
		Dhat5:          nullable(r.Dhat5),
		Estimator:      r.Estimator,
		Estimate:       nullable(r.Estimate),
		PercentileLow:  nullable(r.CI.Percentile.Lower),
		PercentileHigh: nullable(r.CI.Percentile.Upper),
		Basic0Low:      nullable(r.CI.Basic0.Lower),
		Basic0High:     nullable(r.CI.Basic0.Upper),
		Norm0Low:       nullable(r.CI.Norm0.Lower),
		Norm0High:      nullable(r.CI.Norm0.Upper),
		BootReps:       r.CI.Reps,
		WatsonU2:       nullable(r.WatsonU2),
		WatsonP:        nullable(r.WatsonP),
		WatsonBracket:  r.WatsonBracket,
		MeanHourA:      nullable(r.MeanHourA),
		MeanHourB:      nullable(r.MeanHourB),
	}
}
