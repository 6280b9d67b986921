// Package grid holds helpers for regular lat/lon grids: longitude conventions,
// circular re-splicing and nearest-cell lookup.
package grid

import (
	"math"

	"github.com/ctessum/sparse"
)

// NormalizeLon360 maps arbitrary degree longitudes into the [0, 360) range.
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}

// NormalizeLons returns a copy of lons with every negative longitude shifted by +360.
func NormalizeLons(lons []float64) []float64 {
	out := make([]float64, len(lons))
	for i, lon := range lons {
		if lon < 0 {
			lon += 360
		}
		out[i] = lon
	}
	return out
}

// RequiresWrap reports whether a longitude axis uses the 0-360 convention.
func RequiresWrap(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	minVal, maxVal := lons[0], lons[len(lons)-1]
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}
	return minVal >= 0 && maxVal > 180
}

// LonForAxis converts lon to the convention of the given axis.
func LonForAxis(lons []float64, lon float64) float64 {
	if RequiresWrap(lons) {
		return NormalizeLon360(lon)
	}
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// Resplice rolls a longitude axis by half its length, moving the second half
// in front of the first. Axes stored as -180..180 become 0..360 after
// normalisation and re-splicing.
func Resplice(lons []float64) []float64 {
	n := len(lons)
	half := n / 2
	out := make([]float64, 0, n)
	out = append(out, lons[half:]...)
	out = append(out, lons[:half]...)
	return out
}

// RespliceField rolls the last (longitude) dimension of a field by half its length.
func RespliceField(a *sparse.DenseArray) *sparse.DenseArray {
	if len(a.Shape) == 0 {
		return a
	}
	nlon := a.Shape[len(a.Shape)-1]
	half := nlon / 2
	out := sparse.ZerosDense(a.Shape...)
	for row := 0; row < len(a.Elements)/nlon; row++ {
		src := a.Elements[row*nlon : (row+1)*nlon]
		dst := out.Elements[row*nlon : (row+1)*nlon]
		copy(dst, src[half:])
		copy(dst[nlon-half:], src[:half])
	}
	return out
}
