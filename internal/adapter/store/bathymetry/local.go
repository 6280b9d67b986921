package bathymetry

import (
	"fmt"
	"sync"

	"go.ngs.io/oraip-profiles/internal/adapter/grid"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
)

// LocalStore loads a GEBCO-style elevation grid (negative below sea level)
// from a NetCDF file on first use.
type LocalStore struct {
	path   string
	opener nc.Opener

	once    sync.Once
	grid    *grid.Grid2D
	loadErr error
}

// NewLocalStore creates a new NetCDF-backed bathymetry store.
func NewLocalStore(path string, opener nc.Opener) *LocalStore {
	if opener == nil {
		opener = nc.OpenerFunc(nc.OpenNetCDF)
	}
	return &LocalStore{path: path, opener: opener}
}

// Err returns the load error, if the grid could not be read.
func (s *LocalStore) Err() error {
	s.once.Do(s.load)
	return s.loadErr
}

// Depth interpolates the elevation grid bilinearly and converts it to a
// positive depth. Points at or above sea level report ok=false.
func (s *LocalStore) Depth(lat, lon float64) (float64, bool) {
	s.once.Do(s.load)
	if s.grid == nil {
		return 0, false
	}
	elev, err := s.grid.InterpolateAt(grid.LonForAxis(s.grid.X, lon), lat)
	if err != nil || elev >= 0 {
		return 0, false
	}
	return -elev, true
}

// Close releases resources (no-op for local store).
func (s *LocalStore) Close() error {
	return nil
}

func (s *LocalStore) load() {
	g, err := loadElevationGrid(s.opener, s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("failed to load bathymetry grid: %w", err)
		return
	}
	s.grid = g
}

func loadElevationGrid(opener nc.Opener, path string) (*grid.Grid2D, error) {
	ds, err := opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ds.Close() }()

	lats, err := nc.ReadAxis(ds, "lat", "latitude", "y")
	if err != nil {
		return nil, err
	}
	lons, err := nc.ReadAxis(ds, "lon", "longitude", "x")
	if err != nil {
		return nil, err
	}
	v, err := nc.FindVar(ds, "elevation", "z", "data")
	if err != nil {
		return nil, err
	}
	shape := v.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("expected 2D data, got %dD", len(shape))
	}
	data, err := nc.ReadAll(v)
	if err != nil {
		return nil, err
	}
	fill, hasFill := nc.FillValue(v)

	nLat, nLon := len(lats), len(lons)
	values := make([][]float64, nLat)
	for j := range values {
		values[j] = make([]float64, nLon)
	}
	switch {
	case shape[0] == nLat && shape[1] == nLon:
		for j := 0; j < nLat; j++ {
			copy(values[j], data[j*nLon:(j+1)*nLon])
		}
	case shape[0] == nLon && shape[1] == nLat:
		// Data is [lon, lat] - need to transpose.
		for i := 0; i < nLon; i++ {
			for j := 0; j < nLat; j++ {
				values[j][i] = data[i*nLat+j]
			}
		}
	default:
		return nil, fmt.Errorf("data shape %v does not match lat/lon lengths (%d, %d)", shape, nLat, nLon)
	}
	if hasFill {
		for j := range values {
			for i, x := range values[j] {
				if nc.IsFill(x, fill) {
					values[j][i] = 0
				}
			}
		}
	}

	g := &grid.Grid2D{X: lons, Y: lats, Values: values}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
