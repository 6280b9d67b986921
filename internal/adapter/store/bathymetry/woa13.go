package bathymetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/oraip-profiles/internal/adapter/grid"
)

// StandardDepths are the WOA13 standard levels in metres. A landsea mask
// entry k refers to StandardDepths[k-1]; level 1 (0 m) marks land.
var StandardDepths = standardDepths()

func standardDepths() []float64 {
	var d []float64
	appendRange := func(start, stop, step int) {
		for z := start; z < stop; z += step {
			d = append(d, float64(z))
		}
	}
	appendRange(0, 105, 5)
	appendRange(125, 525, 25)
	appendRange(550, 2050, 50)
	appendRange(2100, 9200, 100)
	return d
}

// WOA13Store is a gridded bathymetry built from a WOA13 landsea mask.
type WOA13Store struct {
	grid *grid.Grid2D
}

// LoadWOA13 reads a WOA13 landsea mask (landsea_01.msk). The file is CSV with
// two header lines and columns latitude, longitude, bottom level index.
func LoadWOA13(path string) (*WOA13Store, error) {
	//nolint:gosec // G304: File path comes from configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open landsea mask: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadWOA13(file)
}

// ReadWOA13 parses a WOA13 landsea mask.
func ReadWOA13(r io.Reader) (*WOA13Store, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Skip header.
	for i := 0; i < 2; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to read landsea header: %w", err)
		}
	}

	type cell struct{ lat, lon, depth float64 }
	var cells []cell
	lats := map[float64]struct{}{}
	lons := map[float64]struct{}{}
	for line := 3; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read landsea record: %w", err)
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", line, len(record))
		}
		var vals [3]float64
		for k := range vals {
			vals[k], err = strconv.ParseFloat(strings.TrimSpace(record[k]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q: %w", line, record[k], err)
			}
		}
		idx := int(vals[2])
		if idx < 1 || idx > len(StandardDepths) {
			return nil, fmt.Errorf("line %d: level index %d out of range", line, idx)
		}
		lon := grid.NormalizeLon360(vals[1])
		cells = append(cells, cell{lat: vals[0], lon: lon, depth: StandardDepths[idx-1]})
		lats[vals[0]] = struct{}{}
		lons[lon] = struct{}{}
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("no records found in landsea mask")
	}

	g := &grid.Grid2D{X: sortedKeys(lons), Y: sortedKeys(lats)}
	g.Values = make([][]float64, len(g.Y))
	for j := range g.Values {
		g.Values[j] = make([]float64, len(g.X))
	}
	for _, c := range cells {
		j := grid.NearestIndex(g.Y, c.lat)
		i := grid.NearestIndex(g.X, c.lon)
		g.Values[j][i] = c.depth
	}
	return &WOA13Store{grid: g}, nil
}

func sortedKeys(m map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// Depth returns the depth of the nearest mask cell.
func (s *WOA13Store) Depth(lat, lon float64) (float64, bool) {
	d := s.grid.Nearest(grid.NormalizeLon360(lon), lat)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Close is a no-op.
func (s *WOA13Store) Close() error {
	return nil
}
