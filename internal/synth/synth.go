// Package synth writes synthetic product archives with analytic profiles, so the
// reduction can be exercised without the real ORA-IP files.
package synth

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"

	"go.ngs.io/oraip-profiles/internal/adapter/grid"
	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/domain"
)

// FillValue marks the synthetic land column.
const FillValue = -999.0

// RegionalGrid defines the geographic bounds and resolution.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

// Region returns a named grid: arctic, antarctic or global.
func Region(name string, resolution float64) (RegionalGrid, error) {
	switch name {
	case "arctic":
		return RegionalGrid{LatMin: 60, LatMax: 90, LonMin: 0, LonMax: 360, Resolution: resolution}, nil
	case "antarctic":
		return RegionalGrid{LatMin: -90, LatMax: -50, LonMin: 0, LonMax: 360, Resolution: resolution}, nil
	case "global":
		return RegionalGrid{LatMin: -90, LatMax: 90, LonMin: 0, LonMax: 360, Resolution: resolution}, nil
	}
	return RegionalGrid{}, fmt.Errorf("unknown region: %s (use arctic, antarctic or global)", name)
}

// Lats returns the cell-centre latitudes.
func (g RegionalGrid) Lats() []float64 { return centres(g.LatMin, g.LatMax, g.Resolution) }

// Lons returns the cell-centre longitudes.
func (g RegionalGrid) Lons() []float64 { return centres(g.LonMin, g.LonMax, g.Resolution) }

func centres(lo, hi, res float64) []float64 {
	n := int(math.Round((hi - lo) / res))
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + res*(float64(i)+0.5)
	}
	return out
}

// Profile is an exponential profile relaxing from Surface to Deep over Scale metres.
type Profile struct {
	Surface float64
	Deep    float64
	Scale   float64
}

// At returns the value at depth z.
func (p Profile) At(z float64) float64 {
	return p.Deep + (p.Surface-p.Deep)*math.Exp(-z/p.Scale)
}

// Integral returns the integral of the profile from the surface to d.
func (p Profile) Integral(d float64) float64 {
	return p.Deep*d + (p.Surface-p.Deep)*p.Scale*(1-math.Exp(-d/p.Scale))
}

// LayerMean returns the exact mean over a layer.
func (p Profile) LayerMean(l domain.Layer) float64 {
	return (p.Integral(l.Lower) - p.Integral(l.Upper)) / l.Thickness()
}

// Default profiles resemble the Arctic Atlantic layer, with salinity rising with depth.
var (
	DefaultTemperature = Profile{Surface: -1.5, Deep: 0.5, Scale: 300}
	DefaultSalinity    = Profile{Surface: 32, Deep: 34.9, Scale: 200}
)

// DefaultLevels are the native depths written for level products.
var DefaultLevels = []float64{5, 50, 150, 250, 400, 600, 850, 1500, 2500, 4000}

// WriteFunc writes one file.
type WriteFunc func(path string, spec nc.FileSpec) error

// Generator writes the files a product's adapter expects for the given years.
type Generator struct {
	OutDir    string
	Grid      RegionalGrid
	Layers    []domain.Layer
	Levels    []float64
	StartYear int
	EndYear   int
	T         Profile
	S         Profile
	Write     WriteFunc
	Logger    logrus.FieldLogger
}

// NewGenerator returns a generator with default profiles, layers and levels
// writing through the NetCDF C library.
func NewGenerator(outDir string, g RegionalGrid, startYear, endYear int) *Generator {
	return &Generator{
		OutDir:    outDir,
		Grid:      g,
		Layers:    domain.DefaultLayers(),
		Levels:    DefaultLevels,
		StartYear: startYear,
		EndYear:   endYear,
		T:         DefaultTemperature,
		S:         DefaultSalinity,
		Write:     nc.WriteNetCDF,
		Logger:    logrus.StandardLogger(),
	}
}

func (g *Generator) profile(q domain.Quantity) Profile {
	if q == domain.Salinity {
		return g.S
	}
	return g.T
}

// bounds returns the distinct non-zero layer edges, shallowest first.
func (g *Generator) bounds() []float64 {
	seen := map[float64]bool{}
	var out []float64
	for _, l := range g.Layers {
		for _, b := range []float64{l.Upper, l.Lower} {
			if b > 0 && !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// file collects the variables written to one path.
type file struct {
	src  product.Source
	vars []nc.VarSpec
}

// Generate writes every file of p and returns the paths written.
func (g *Generator) Generate(p *product.Product) ([]string, error) {
	files := make(map[string]*file)
	var order []string
	add := func(src product.Source, v nc.VarSpec) {
		f, ok := files[src.Path]
		if !ok {
			f = &file{src: src}
			files[src.Path] = f
			order = append(order, src.Path)
		}
		f.vars = append(f.vars, v)
	}

	for _, q := range domain.Quantities() {
		prof := g.profile(q)
		fill := FillValue
		if s := p.Variant(q).Sentinel; s != nil {
			fill = *s
		}
		if p.Mode() == product.Native {
			for _, src := range p.Sources(q, 0, g.StartYear, g.EndYear) {
				n := g.records(p, src)
				values := make([]float64, len(g.Levels))
				for k, z := range g.Levels {
					values[k] = prof.At(z)
				}
				add(src, g.field(p.VariableNames(q, 0)[0], src, n, values, true, fill, p.Variant(q).Sentinel == nil))
			}
			continue
		}
		for _, bound := range g.bounds() {
			value := prof.Integral(bound)
			if scale := p.IntegralScale(q, bound); scale != 1 {
				value /= scale
			}
			for _, src := range p.Sources(q, bound, g.StartYear, g.EndYear) {
				n := g.records(p, src)
				add(src, g.field(p.VariableNames(q, bound)[0], src, n, []float64{value}, false, fill, p.Variant(q).Sentinel == nil))
			}
		}
	}

	var written []string
	for _, path := range order {
		f := files[path]
		out := filepath.Join(g.OutDir, path)
		//nolint:gosec // G301: Standard directory permissions.
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return written, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := g.Write(out, g.spec(p, f)); err != nil {
			return written, fmt.Errorf("%s: %w", out, err)
		}
		g.Logger.WithFields(logrus.Fields{"product": p.Name(), "path": out, "vars": len(f.vars)}).Debug("Generated file")
		written = append(written, out)
	}
	return written, nil
}

// fileYears is the year span of a whole-period file.
func (g *Generator) fileYears(p *product.Product) (int, int) {
	first, last := p.Span()
	if first == 0 || last == 0 {
		return g.StartYear, g.EndYear
	}
	return first, last
}

// records returns the number of records the adapter's time decoding expects.
func (g *Generator) records(p *product.Product, src product.Source) int {
	switch src.Time {
	case product.TimeMonthly:
		return 12
	case product.TimeFileMonth:
		return 1
	case product.TimeSeasonal:
		return 4
	default:
		first, last := g.fileYears(p)
		return last - first + 1
	}
}

func (g *Generator) dims(src product.Source) (nlat, nlon int) {
	if src.Grid != nil {
		return len(src.Grid.Lats), len(src.Grid.Lons)
	}
	return len(g.Grid.Lats()), len(g.Grid.Lons())
}

// field builds a record-major variable holding values[k] at level k in every
// ocean cell. The first longitude column is land. The fill is declared with
// _FillValue unless the product relies on its own sentinel.
func (g *Generator) field(name string, src product.Source, n int, values []float64, levels bool, fill float64, declare bool) nc.VarSpec {
	nlat, nlon := g.dims(src)
	plane := make([]float64, 0, len(values)*nlat*nlon)
	for _, v := range values {
		for j := 0; j < nlat; j++ {
			for i := 0; i < nlon; i++ {
				if i == 0 {
					plane = append(plane, fill)
				} else {
					plane = append(plane, v)
				}
			}
		}
	}
	if src.LonShift {
		a := sparse.ZerosDense(len(values), nlat, nlon)
		copy(a.Elements, plane)
		plane = grid.RespliceField(a).Elements
	}
	data := make([]float64, 0, n*len(plane))
	for r := 0; r < n; r++ {
		data = append(data, plane...)
	}

	dims := []string{"time"}
	if levels {
		dims = append(dims, "depth")
	}
	dims = append(dims, "lat", "lon")
	v := nc.VarSpec{Name: name, Dims: dims, Data: data}
	if declare {
		v.Attrs = map[string]interface{}{"_FillValue": fill}
	}
	return v
}

// spec assembles the dimensions and coordinate variables of a file. Dimension
// names are fixed; coordinate variables take the adapter's names.
func (g *Generator) spec(p *product.Product, f *file) nc.FileSpec {
	src := f.src
	n := g.records(p, src)
	nlat, nlon := g.dims(src)
	s := nc.FileSpec{Dims: []nc.DimSpec{{Name: "time", Len: n}}}
	if p.Mode() == product.Native {
		s.Dims = append(s.Dims, nc.DimSpec{Name: "depth", Len: len(g.Levels)})
		s.Vars = append(s.Vars, nc.VarSpec{Name: src.Coords.Depth[0], Dims: []string{"depth"}, Data: g.Levels,
			Attrs: map[string]interface{}{"units": "m", "positive": "down"}})
	}
	s.Dims = append(s.Dims, nc.DimSpec{Name: "lat", Len: nlat}, nc.DimSpec{Name: "lon", Len: nlon})

	if t, ok := g.timeAxis(p, src, n); ok {
		s.Vars = append(s.Vars, t)
	}
	if src.Grid == nil {
		lons := g.Grid.Lons()
		if src.LonShift {
			lons = fileLons(lons)
		}
		s.Vars = append(s.Vars,
			nc.VarSpec{Name: src.Coords.Lat[0], Dims: []string{"lat"}, Data: g.Grid.Lats(),
				Attrs: map[string]interface{}{"units": "degrees_north"}},
			nc.VarSpec{Name: src.Coords.Lon[0], Dims: []string{"lon"}, Data: lons,
				Attrs: map[string]interface{}{"units": "degrees_east"}},
		)
	}
	s.Vars = append(s.Vars, f.vars...)
	return s
}

// timeAxis writes a time coordinate for encodings decoded from the file.
func (g *Generator) timeAxis(p *product.Product, src product.Source, n int) (nc.VarSpec, bool) {
	first, _ := g.fileYears(p)
	offsets := make([]float64, n)
	var attrs map[string]interface{}
	switch src.Time {
	case product.TimeCF:
		for r := range offsets {
			offsets[r] = float64(r)*365 + 182
		}
		attrs = map[string]interface{}{"units": fmt.Sprintf("days since %04d-01-01 00:00:00", first), "calendar": "noleap"}
	case product.TimeMonthsSince, product.TimeCFOrMonths:
		for r := range offsets {
			offsets[r] = float64(r)*12 + 6
		}
		attrs = map[string]interface{}{"units": fmt.Sprintf("months since %04d-01-01", first)}
	default:
		return nc.VarSpec{}, false
	}
	return nc.VarSpec{Name: src.Coords.Time[0], Dims: []string{"time"}, Data: offsets, Attrs: attrs}, true
}

// fileLons maps a 0..360 axis to the -180..180 storage order that
// normalisation and re-splicing undo.
func fileLons(lons []float64) []float64 {
	out := grid.Resplice(lons)
	for i, lon := range out {
		if lon >= 180 {
			out[i] = lon - 360
		}
	}
	return out
}
