package ecofunctions

// Metric names used in observations
const (
	MetricRichness = "phonic_richness"
	MetricShannon  = "shannon"
	MetricCuescape = "settlement_cuescape"
)

// Observation is the flat record shared by every table: one measured value
// for a country, site, date and treatment. Hour is -1 for daily values and
// Count and MaxPossibleCount are 0 when the metric has none.
type Observation struct {
	Country          string
	Site             string
	Date             string
	Hour             int
	Treatment        string
	Metric           string
	Count            float64
	MaxPossibleCount float64
	Value            float64
}

func newObservation(g Group, hour int, metric string) Observation {
	return Observation{
		Country:   g.Country,
		Site:      g.Site,
		Date:      g.Date,
		Hour:      hour,
		Treatment: string(g.Treatment),
		Metric:    metric,
	}
}

// CountObservations converts combined counts of sound to observations
func CountObservations(sound string, rows []CountRow) []Observation {
	out := make([]Observation, len(rows))
	for i, r := range rows {
		o := newObservation(r.Group, -1, sound)
		o.Count = float64(r.Count)
		o.Value = float64(r.Count)
		out[i] = o
	}
	return out
}

// RichnessObservations converts richness rows to observations
func RichnessObservations(rows []RichnessRow) []Observation {
	out := make([]Observation, len(rows))
	for i, r := range rows {
		o := newObservation(r.Group, r.Hour, MetricRichness)
		o.Count = float64(r.Richness)
		o.Value = float64(r.Richness)
		out[i] = o
	}
	return out
}

// ShannonObservations converts Shannon rows to observations
func ShannonObservations(rows []ShannonRow) []Observation {
	out := make([]Observation, len(rows))
	for i, r := range rows {
		o := newObservation(r.Group, -1, MetricShannon)
		o.Value = r.Shannon
		out[i] = o
	}
	return out
}

// CuescapeObservations converts cuescape rows to observations
func CuescapeObservations(rows []CuescapeRow) []Observation {
	out := make([]Observation, len(rows))
	for i, r := range rows {
		o := newObservation(r.Group, -1, MetricCuescape)
		o.Count = float64(r.Count)
		o.MaxPossibleCount = float64(r.MaxPossible)
		o.Value = r.Proportion
		out[i] = o
	}
	return out
}
