// Package bathymetry provides ocean depth lookups used to exclude shallow
// cells from depth-integrated averages.
package bathymetry

import (
	"fmt"
	"strings"

	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/domain"
)

// Store provides access to sea-floor depth.
type Store interface {
	// Depth returns the positive depth in metres at a location.
	// ok is false over land or outside the store's coverage.
	Depth(lat, lon float64) (depth float64, ok bool)

	// Close releases any resources held by the store.
	Close() error
}

// Supported bathymetry formats.
const (
	FormatWOA13  = "woa13"
	FormatNetCDF = "netcdf"
)

// Open loads a bathymetry store of the given format. NetCDF elevation grids
// are read through opener. A file that cannot be read is a *domain.FileAccessError.
func Open(format, path string, opener nc.Opener) (Store, error) {
	switch strings.ToLower(format) {
	case "", FormatWOA13:
		s, err := LoadWOA13(path)
		if err != nil {
			return nil, &domain.FileAccessError{Path: path, Err: err}
		}
		return s, nil
	case FormatNetCDF:
		s := NewLocalStore(path, opener)
		if err := s.Err(); err != nil {
			return nil, &domain.FileAccessError{Path: path, Err: err}
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown bathymetry format %q (use %s or %s)", format, FormatWOA13, FormatNetCDF)
}

// Filter excludes grid cells that are too shallow to contribute to a
// depth-integrated value.
type Filter struct {
	Store    Store
	MinDepth float64 // Basin minimum depth.
}

// Keep reports whether the cell at (lat, lon) may contribute to an integral
// from the surface to bound metres. A cell is dropped when it is land, shallower
// than the basin minimum depth or shallower than bound. A nil store keeps every cell.
func (f Filter) Keep(lat, lon, bound float64) bool {
	if f.Store == nil {
		return true
	}
	depth, ok := f.Store.Depth(lat, lon)
	if !ok {
		return false
	}
	return depth >= f.MinDepth && depth >= bound
}
