package glm

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// InterceptName labels the intercept coefficient
const InterceptName = "(Intercept)"

// Formula names the columns of a model
type Formula struct {
	Response  string
	Factors   []string          // treatment-coded categorical predictors
	Numeric   []string          // numeric predictors
	Offset    string            // optional column added to the linear predictor
	Reference map[string]string // reference level per factor, default first sorted level
}

// Columns returns every column the formula reads
func (f Formula) Columns() []string {
	cols := []string{f.Response}
	cols = append(cols, f.Factors...)
	cols = append(cols, f.Numeric...)
	if f.Offset != "" {
		cols = append(cols, f.Offset)
	}
	return cols
}

// String renders the formula as "count ~ treatment + country + offset(x)"
func (f Formula) String() string {
	terms := append(slices.Clone(f.Factors), f.Numeric...)
	if f.Offset != "" {
		terms = append(terms, "offset("+f.Offset+")")
	}
	if len(terms) == 0 {
		terms = []string{"1"}
	}
	return f.Response + " ~ " + strings.Join(terms, " + ")
}

// Design is a model matrix with its response and offset
type Design struct {
	X      *mat.Dense
	Y      []float64
	Offset []float64 // nil when the formula has no offset
	Names  []string  // coefficient names, one per column of X
	Levels map[string][]string
}

// Rows returns the number of observations
func (d *Design) Rows() int {
	return len(d.Y)
}

// intercept returns the intercept-only design with the same response and offset
func (d *Design) intercept() *Design {
	ones := make([]float64, len(d.Y))
	for i := range ones {
		ones[i] = 1
	}
	return &Design{
		X:      mat.NewDense(len(d.Y), 1, ones),
		Y:      d.Y,
		Offset: d.Offset,
		Names:  []string{InterceptName},
	}
}

// observation is one complete table row
type observation struct {
	y       float64
	factors []string
	numeric []float64
	offset  float64
}

// BuildDesign turns a table into a model matrix. Required columns are
// checked up front. Rows with missing or unparseable values are dropped.
func BuildDesign(tbl *tabular.Table, f Formula) (*Design, error) {
	if f.Response == "" {
		return nil, errors.Newf("model formula needs a response column").
			Component("glm").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := tbl.Require(f.Columns()...); err != nil {
		return nil, err
	}

	obs := make([]observation, 0, len(tbl.Rows))
	dropped := 0
	for i := range tbl.Rows {
		o, ok := parseRow(tbl, i, f)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}
	if dropped > 0 {
		GetLogger().Info("Dropped incomplete rows",
			logger.String("path", tbl.Path),
			logger.Int("dropped", dropped),
			logger.Int("kept", len(obs)))
	}

	levels := make(map[string][]string, len(f.Factors))
	names := []string{InterceptName}
	for j, factor := range f.Factors {
		lv, err := factorLevels(obs, j, factor, f.Reference[factor])
		if err != nil {
			return nil, err
		}
		levels[factor] = lv
		for _, l := range lv[1:] {
			names = append(names, factor+l)
		}
	}
	names = append(names, f.Numeric...)

	if len(obs) <= len(names) {
		return nil, errors.Newf("model has %d coefficients but only %d complete rows", len(names), len(obs)).
			Component("glm").
			Category(errors.CategoryStatistics).
			Context("path", tbl.Path).
			Build()
	}

	x := mat.NewDense(len(obs), len(names), nil)
	y := make([]float64, len(obs))
	var offset []float64
	if f.Offset != "" {
		offset = make([]float64, len(obs))
	}

	for i, o := range obs {
		y[i] = o.y
		if offset != nil {
			offset[i] = o.offset
		}
		x.Set(i, 0, 1)
		col := 1
		for j, factor := range f.Factors {
			lv := levels[factor]
			for _, l := range lv[1:] {
				if o.factors[j] == l {
					x.Set(i, col, 1)
				}
				col++
			}
		}
		for _, v := range o.numeric {
			x.Set(i, col, v)
			col++
		}
	}

	return &Design{X: x, Y: y, Offset: offset, Names: names, Levels: levels}, nil
}

func parseRow(tbl *tabular.Table, i int, f Formula) (observation, bool) {
	var o observation
	var ok bool
	if o.y, ok = parseCell(tbl.Value(i, f.Response)); !ok {
		return o, false
	}
	for _, factor := range f.Factors {
		v := strings.TrimSpace(tbl.Value(i, factor))
		if v == "" || v == tabular.NA {
			return o, false
		}
		o.factors = append(o.factors, v)
	}
	for _, col := range f.Numeric {
		v, ok := parseCell(tbl.Value(i, col))
		if !ok {
			return o, false
		}
		o.numeric = append(o.numeric, v)
	}
	if f.Offset != "" {
		if o.offset, ok = parseCell(tbl.Value(i, f.Offset)); !ok {
			return o, false
		}
	}
	return o, true
}

func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == tabular.NA {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// factorLevels returns the sorted levels of factor j with the reference first
func factorLevels(obs []observation, j int, factor, reference string) ([]string, error) {
	var levels []string
	for _, o := range obs {
		if !slices.Contains(levels, o.factors[j]) {
			levels = append(levels, o.factors[j])
		}
	}
	slices.Sort(levels)

	if len(levels) < 2 {
		return nil, errors.Newf("factor %q needs at least 2 levels, got %d", factor, len(levels)).
			Component("glm").
			Category(errors.CategoryStatistics).
			Build()
	}
	if reference == "" {
		return levels, nil
	}

	idx := slices.Index(levels, reference)
	if idx < 0 {
		return nil, errors.Newf("reference level %q not found for factor %q", reference, factor).
			Component("glm").
			Category(errors.CategoryValidation).
			Context("levels", strings.Join(levels, ",")).
			Build()
	}
	out := append([]string{reference}, levels[:idx]...)
	return append(out, levels[idx+1:]...), nil
}
