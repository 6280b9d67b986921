// Package product describes the ORA-IP source datasets: where their files
// live, what the native variables are called and how their time axes are
// encoded. Every dataset family is one Product value; behaviour that differs
// between families is selected by the Layout and TimeEncoding tags.
package product

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/calendar"
	"go.ngs.io/oraip-profiles/internal/domain"
)

// Mode is the reduction strategy a product needs.
type Mode int

const (
	// Cumulative products store the field integrated from the surface down to a bound.
	Cumulative Mode = iota
	// Native products store 3-D fields at their own depth levels.
	Native
)

func (m Mode) String() string {
	if m == Native {
		return "native"
	}
	return "cumulative"
}

// Layout says how a product splits its data across files.
type Layout int

const (
	// PerBound is one whole-period file per integration bound.
	PerBound Layout = iota
	// SingleFile is one file holding every bound (cumulative) or every level (native).
	SingleFile
	// PerYear is one file per calendar year.
	PerYear
	// PerMonth is one file per calendar month.
	PerMonth
)

// TimeEncoding selects how record dates are obtained.
type TimeEncoding int

const (
	// TimeCF decodes "<unit> since <epoch>" with the variable's calendar.
	TimeCF TimeEncoding = iota
	// TimeMonthsSince decodes "months since YYYY-MM-DD" by month arithmetic.
	TimeMonthsSince
	// TimeCFOrMonths uses TimeMonthsSince for "months since" units without a
	// calendar attribute, else TimeCF.
	TimeCFOrMonths
	// TimeMonthly dates the records of a yearly file one per month.
	TimeMonthly
	// TimeAnnual dates records one per year from the product's first year.
	TimeAnnual
	// TimeFileMonth gives every record the year and month of its file.
	TimeFileMonth
	// TimeSeasonal marks climatology records, which are never filtered by year.
	TimeSeasonal
)

// Coords lists candidate names for the coordinate variables.
type Coords struct {
	Lat   []string
	Lon   []string
	Time  []string
	Depth []string
}

var defaultCoords = Coords{
	Lat:   []string{"lat"},
	Lon:   []string{"lon"},
	Time:  []string{"time"},
	Depth: []string{"depth"},
}

// FixedGrid replaces the coordinates stored in a file.
type FixedGrid struct {
	Lats []float64
	Lons []float64
}

// OneDegree returns the regular 1x1 degree grid with cell centres at half degrees.
func OneDegree() *FixedGrid {
	g := &FixedGrid{Lats: make([]float64, 180), Lons: make([]float64, 360)}
	for j := range g.Lats {
		g.Lats[j] = -89.5 + float64(j)
	}
	for i := range g.Lons {
		g.Lons[i] = 0.5 + float64(i)
	}
	return g
}

// GridEpoch selects a grid name and depth coordinate for a range of years.
type GridEpoch struct {
	Grid      string
	Depth     string
	FromYear  int
	ToYear    int
	Quantity  *domain.Quantity // nil applies to both quantities.
	Exception bool             // Checked before the regular epochs.
}

func (g GridEpoch) matches(q domain.Quantity, year int) bool {
	if g.Quantity != nil && *g.Quantity != q {
		return false
	}
	return year >= g.FromYear && year <= g.ToYear
}

// Variant is the file layout of one quantity of a product.
type Variant struct {
	Layout  Layout
	Pattern string // File name template, see Product.Sources.
	Token   string // Substituted for {token}.
	Var     string // Native variable name; {bound} is replaced by the integration bound.
	Time    TimeEncoding
	Coords  Coords
	Grid    *FixedGrid
	// LonShift marks longitudes stored as -180..180 that must be re-spliced to 0..360.
	LonShift bool
	Sentinel *float64
	// DepthMean marks cumulative values stored as depth means rather than integrals.
	DepthMean bool
}

// Source is one file to read.
type Source struct {
	Path     string
	Year     int
	Month    int
	Coords   Coords
	Time     TimeEncoding
	Grid     *FixedGrid
	LonShift bool
}

// Adapter is the access protocol the reducer uses for every product.
type Adapter interface {
	Name() string
	Legend() string
	Reference() bool
	Mode() Mode
	// Span returns the first and last year covered by the product's files.
	Span() (first, last int)
	// Sources lists the files holding q for the requested years. bound is the
	// integration depth of cumulative products and ignored otherwise.
	Sources(q domain.Quantity, bound float64, startYear, endYear int) []Source
	// VariableNames lists candidate native variable names for q.
	VariableNames(q domain.Quantity, bound float64) []string
	// DecodeTime returns the dates of the n records of a source.
	DecodeTime(ds nc.Dataset, src Source, n int) ([]calendar.Date, error)
	// FillValue resolves the fill marker of v.
	FillValue(q domain.Quantity, v nc.Variable) (float64, bool)
	// IntegralScale converts a stored cumulative value at bound into an integral.
	IntegralScale(q domain.Quantity, bound float64) float64
	// FilterYears reports whether records are restricted to the requested years.
	FilterYears() bool
	// ScreenSalinity reports whether the bad-salinity screen applies.
	ScreenSalinity() bool
}

// Product is the configuration of one dataset family.
type Product struct {
	ID        string
	Aliases   []string
	Title     string
	Kind      Mode
	First     int
	Last      int
	Day       int // Day of month for synthetic monthly dates.
	Grids     []GridEpoch
	Screen    bool
	IsRef     bool
	Roster    bool // Part of the default product roster.
	Antarctic bool // Available for the Antarctic basin.
	T         Variant
	S         Variant
}

var _ Adapter = (*Product)(nil)

// Name returns the dataset name.
func (p *Product) Name() string { return p.ID }

// Legend returns the display name.
func (p *Product) Legend() string {
	if p.Title == "" {
		return p.ID
	}
	return p.Title
}

// Reference reports whether the product is observational.
func (p *Product) Reference() bool { return p.IsRef }

// Mode returns the reduction strategy.
func (p *Product) Mode() Mode { return p.Kind }

// Span returns the years covered by the product's files.
func (p *Product) Span() (int, int) { return p.First, p.Last }

// ScreenSalinity reports whether the bad-salinity screen applies.
func (p *Product) ScreenSalinity() bool { return p.Screen }

// Variant returns the layout of q.
func (p *Product) Variant(q domain.Quantity) Variant {
	if q == domain.Salinity {
		return p.S
	}
	return p.T
}

// FilterYears is false for climatologies.
func (p *Product) FilterYears() bool {
	return p.T.Time != TimeSeasonal
}

// Sources expands the file template of q. Templates may use {token}, {var},
// {grid}, {start}, {end}, {bound}, {year} and {month}.
func (p *Product) Sources(q domain.Quantity, bound float64, startYear, endYear int) []Source {
	v := p.Variant(q)
	switch v.Layout {
	case PerYear:
		from, to := clampYears(p, startYear, endYear)
		var out []Source
		for y := from; y <= to; y++ {
			out = append(out, p.source(q, v, bound, y, 0))
		}
		return out
	case PerMonth:
		from, to := clampYears(p, startYear, endYear)
		var out []Source
		for y := from; y <= to; y++ {
			for m := 1; m <= 12; m++ {
				out = append(out, p.source(q, v, bound, y, m))
			}
		}
		return out
	default:
		return []Source{p.source(q, v, bound, 0, 0)}
	}
}

func clampYears(p *Product, startYear, endYear int) (int, int) {
	from, to := startYear, endYear
	if p.First > 0 && from < p.First {
		from = p.First
	}
	if p.Last > 0 && to > p.Last {
		to = p.Last
	}
	return from, to
}

func (p *Product) source(q domain.Quantity, v Variant, bound float64, year, month int) Source {
	coords := v.Coords
	grid := ""
	if e, ok := p.epoch(q, year); ok {
		grid = e.Grid
		coords.Depth = []string{e.Depth}
	}
	r := strings.NewReplacer(
		"{token}", v.Token,
		"{var}", v.Var,
		"{grid}", grid,
		"{start}", strconv.Itoa(p.First),
		"{end}", strconv.Itoa(p.Last),
		"{bound}", formatBound(bound),
		"{year}", fmt.Sprintf("%04d", year),
		"{month}", fmt.Sprintf("%02d", month),
	)
	return Source{
		Path:     filepath.FromSlash(r.Replace(v.Pattern)),
		Year:     year,
		Month:    month,
		Coords:   coords,
		Time:     v.Time,
		Grid:     v.Grid,
		LonShift: v.LonShift,
	}
}

// epoch picks the grid epoch for a quantity and year: exceptions first.
func (p *Product) epoch(q domain.Quantity, year int) (GridEpoch, bool) {
	for _, pass := range []bool{true, false} {
		for _, e := range p.Grids {
			if e.Exception == pass && e.matches(q, year) {
				return e, true
			}
		}
	}
	return GridEpoch{}, false
}

func formatBound(bound float64) string {
	return strconv.FormatFloat(bound, 'f', -1, 64)
}

// VariableNames returns the native variable name of q at bound.
func (p *Product) VariableNames(q domain.Quantity, bound float64) []string {
	name := strings.ReplaceAll(p.Variant(q).Var, "{bound}", formatBound(bound))
	return []string{name}
}

// FillValue resolves _FillValue, then missing_value, then the product sentinel.
func (p *Product) FillValue(q domain.Quantity, v nc.Variable) (float64, bool) {
	if f, ok := nc.FillValue(v); ok {
		return f, true
	}
	if s := p.Variant(q).Sentinel; s != nil {
		return *s, true
	}
	return 0, false
}

// IntegralScale is bound for depth-mean variants and 1 otherwise.
func (p *Product) IntegralScale(q domain.Quantity, bound float64) float64 {
	if p.Variant(q).DepthMean {
		return bound
	}
	return 1
}

// DecodeTime returns the dates of the n records in src.
func (p *Product) DecodeTime(ds nc.Dataset, src Source, n int) ([]calendar.Date, error) {
	var dates []calendar.Date
	switch src.Time {
	case TimeMonthly:
		dates = calendar.Monthly(src.Year, p.Day)
	case TimeAnnual:
		dates = calendar.Annual(p.First, p.Last, 1, 1)
	case TimeFileMonth:
		return calendar.Repeat(calendar.NewDate(src.Year, src.Month, 1), n), nil
	case TimeSeasonal:
		return calendar.Repeat(calendar.NewDate(p.First, 1, 1), n), nil
	default:
		var err error
		dates, err = decodeAxis(ds, src.Coords.Time, src.Time)
		if err != nil {
			return nil, err
		}
	}
	if len(dates) < n {
		return nil, fmt.Errorf("%s: %d dates for %d records", ds.Path(), len(dates), n)
	}
	return dates[:n], nil
}

func decodeAxis(ds nc.Dataset, names []string, enc TimeEncoding) ([]calendar.Date, error) {
	tv, err := nc.FindVar(ds, names...)
	if err != nil {
		return nil, err
	}
	offsets, err := nc.ReadAll(tv)
	if err != nil {
		return nil, err
	}
	units, _ := nc.Text(tv, "units")
	cal, hasCal := nc.Text(tv, "calendar")

	switch enc {
	case TimeMonthsSince:
		return calendar.DecodeMonthsSince(units, offsets)
	case TimeCFOrMonths:
		if !hasCal && calendar.IsMonthsSince(units) {
			return calendar.DecodeMonthsSince(units, offsets)
		}
		return calendar.Decode(units, strings.ToLower(cal), offsets)
	default:
		return calendar.Decode(units, strings.ToLower(cal), offsets)
	}
}
