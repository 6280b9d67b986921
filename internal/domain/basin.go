package domain

import (
	"math"
	"strings"
)

// Basin is a named ocean region selected by a union of lon/lat bands.
type Basin string

const (
	Antarctic  Basin = "Antarctic"
	Arctic     Basin = "Arctic"
	Eurasian   Basin = "Eurasian"
	Amerasian  Basin = "Amerasian"
	FramStrait Basin = "Fram Strait"
)

// Basins returns the basins offered by the command line.
func Basins() []Basin {
	return []Basin{Antarctic, Arctic, Eurasian, Amerasian}
}

// AllBasins returns every basin with a selection rule.
func AllBasins() []Basin {
	return append(Basins(), FramStrait)
}

// ParseBasin matches a basin name case-insensitively.
// Unknown names are a ConfigError.
func ParseBasin(name string) (Basin, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, b := range AllBasins() {
		if strings.ToLower(string(b)) == key {
			return b, nil
		}
	}
	if key == "fram" || key == "framstrait" || key == "fram-strait" {
		return FramStrait, nil
	}
	return "", &ConfigError{Kind: KindBasin, Value: name}
}

// Slug returns a file-name friendly form of the basin name.
func (b Basin) Slug() string {
	return strings.ReplaceAll(string(b), " ", "")
}

// MinDepth returns the bathymetry threshold in metres below which cells are
// left out of depth-integrated averages.
func (b Basin) MinDepth() float64 {
	switch b {
	case Arctic, Eurasian, Amerasian:
		return 500
	case Antarctic:
		return 1000
	default:
		return 0
	}
}

// band is one lon/lat rectangle of the Antarctic rule: lonMin < lon <= lonMax, lat <= latMax.
type band struct {
	lonMin, lonMax float64
	latMax         float64
}

var antarcticBands = []band{
	{330, 360, -60},
	{0, 35, -60},
	{35, 68, -61},
	{68, 95, -60},
	{95, 110, -62},
	{110, 160, -64},
	{160, 235, -66},
	{235, 280, -68},
	{280, 300, -66},
	{300, 315, -64},
	{315, 330, -62},
}

// Contains reports whether the point belongs to the basin.
// lon must already be in [0, 360). Unknown basins contain nothing.
func (b Basin) Contains(lon, lat float64) bool {
	switch b {
	case Antarctic:
		for _, r := range antarcticBands {
			if lon > r.lonMin && lon <= r.lonMax && lat <= r.latMax {
				return true
			}
		}
		return false
	case Arctic:
		return (lon > 100 && lon < 250 && lat > 70) ||
			(lon <= 100 && lat > 80) ||
			(lon >= 250 && lat > 80)
	case Eurasian:
		return (lon > 100 && lon < 135 && lat > 70) ||
			(lon <= 100 && lat > 80) ||
			(lon > 315 && lat > 80)
	case Amerasian:
		return (lon >= 135 && lon < 250 && lat > 70) ||
			(lon >= 250 && lon <= 315 && lat > 80)
	case FramStrait:
		return (lon > 339 || lon < 11) && lat > 78 && lat < 80
	default:
		return false
	}
}

// Mask is a selection over a lat x lon grid, row-major by latitude.
type Mask struct {
	NLat, NLon int
	cells      []bool
	count      int
}

// NewMask returns an empty mask.
func NewMask(nlat, nlon int) *Mask {
	return &Mask{NLat: nlat, NLon: nlon, cells: make([]bool, nlat*nlon)}
}

// At reports whether cell (j, i) is selected.
func (m *Mask) At(j, i int) bool {
	return m.cells[j*m.NLon+i]
}

// Index reports whether the flat cell index k is selected.
func (m *Mask) Index(k int) bool {
	return m.cells[k]
}

// Clear deselects cell (j, i).
func (m *Mask) Clear(j, i int) {
	k := j*m.NLon + i
	if m.cells[k] {
		m.cells[k] = false
		m.count--
	}
}

// Count returns the number of selected cells.
func (m *Mask) Count() int {
	return m.count
}

// Equal reports whether two masks select the same cells.
func (m *Mask) Equal(o *Mask) bool {
	if m.NLat != o.NLat || m.NLon != o.NLon {
		return false
	}
	for k := range m.cells {
		if m.cells[k] != o.cells[k] {
			return false
		}
	}
	return true
}

// Select evaluates the basin rule on the grid spanned by the 1-D lon and lat axes.
// Longitudes are expected in [0, 360). The mask is derived fresh for every grid.
func (b Basin) Select(lons, lats []float64) (*Mask, error) {
	if _, err := ParseBasin(string(b)); err != nil {
		return nil, err
	}
	m := NewMask(len(lats), len(lons))
	for j, lat := range lats {
		if math.IsNaN(lat) {
			continue
		}
		for i, lon := range lons {
			if b.Contains(lon, lat) {
				m.cells[j*m.NLon+i] = true
				m.count++
			}
		}
	}
	return m, nil
}
