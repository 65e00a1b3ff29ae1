package ecofunctions

import (
	"cmp"
	"path/filepath"
	"strconv"

	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// Output file names inside the results directory
const (
	RichnessFile       = "phonic_richness.csv"
	RichnessHourlyFile = "phonic_richness_hourly.csv"
	ShannonFile        = "shannon_index.csv"
	CuescapeFile       = "settlement_cuescape.csv"
)

// CombinedCountFile returns the combined count file name for a sound
func CombinedCountFile(sound string) string {
	return sound + "_combined_count.csv"
}

// Group identifies a country, site, date and treatment combination
type Group struct {
	Country   string
	Site      string
	Date      string // YYYYMMDD
	Treatment recording.Treatment
}

// compareTreatmentFirst orders by country, treatment, site, date
func compareTreatmentFirst(a, b Group) int {
	return cmp.Or(
		cmp.Compare(a.Country, b.Country),
		cmp.Compare(a.Treatment, b.Treatment),
		cmp.Compare(a.Site, b.Site),
		cmp.Compare(a.Date, b.Date),
	)
}

// compareSiteFirst orders by country, site, date, treatment
func compareSiteFirst(a, b Group) int {
	return cmp.Or(
		cmp.Compare(a.Country, b.Country),
		cmp.Compare(a.Site, b.Site),
		cmp.Compare(a.Date, b.Date),
		cmp.Compare(a.Treatment, b.Treatment),
	)
}

func (g Group) fields() []string {
	return []string{g.Country, g.Site, g.Date, string(g.Treatment)}
}

// CountRow is one line of a combined count table
type CountRow struct {
	Group
	Count int // detections scaled by the duty cycle
}

// CountHeader is the combined count table header
var CountHeader = []string{"country", "site", "date", "treatment", "count"}

// Record renders the row for CSV output
func (r CountRow) Record() []string {
	return append(r.fields(), strconv.Itoa(r.Count))
}

// RichnessRow is one line of a phonic richness table
type RichnessRow struct {
	Group
	Hour     int // -1 for daily tables
	Richness int
}

// RichnessHeader and RichnessHourlyHeader are the richness table headers
var (
	RichnessHeader       = []string{"country", "site", "date", "treatment", "count"}
	RichnessHourlyHeader = []string{"country", "site", "date", "hour", "treatment", "count"}
)

// Record renders the row for CSV output, with an hour column when hourly
func (r RichnessRow) Record() []string {
	if r.Hour < 0 {
		return append(r.fields(), strconv.Itoa(r.Richness))
	}
	return []string{r.Country, r.Site, r.Date, strconv.Itoa(r.Hour), string(r.Treatment), strconv.Itoa(r.Richness)}
}

// ShannonRow is one line of the Shannon index table
type ShannonRow struct {
	Group
	Shannon float64
}

// ShannonHeader is the Shannon index table header
var ShannonHeader = []string{"country", "site", "date", "treatment", "shannon"}

// Record renders the row for CSV output
func (r ShannonRow) Record() []string {
	return append(r.fields(), tabular.FormatFloat(r.Shannon))
}

// CuescapeRow is one line of the settlement cuescape table.
// Date is the evening that starts the night.
type CuescapeRow struct {
	Group
	Proportion  float64
	Count       int
	MaxPossible int
	LogMax      float64
}

// CuescapeHeader is the settlement cuescape table header
var CuescapeHeader = []string{
	"country", "site", "date", "treatment",
	"proportion_night_detections", "count", "max_poss_count", "log_max_poss_count",
}

// Record renders the row for CSV output
func (r CuescapeRow) Record() []string {
	return append(r.fields(),
		tabular.FormatFloat(r.Proportion),
		strconv.Itoa(r.Count),
		strconv.Itoa(r.MaxPossible),
		tabular.FormatFloat(r.LogMax),
	)
}

// Recorder is a row that renders itself as CSV fields
type Recorder interface {
	Record() []string
}

// Records renders rows for CSV output
func Records[T Recorder](rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// WriteTable writes rows under header to path
func WriteTable[T Recorder](path string, header []string, rows []T) error {
	if err := tabular.Write(path, header, Records(rows)); err != nil {
		return err
	}
	if m := getMetrics(); m != nil {
		m.RecordRowsWritten(filepath.Base(path), len(rows))
	}
	return nil
}
