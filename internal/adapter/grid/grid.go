package grid

import (
	"fmt"
	"math"
)

// Grid2D is a regular 2D grid.
type Grid2D struct {
	X      []float64   // X coordinates (e.g., longitudes).
	Y      []float64   // Y coordinates (e.g., latitudes).
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]).
}

// Validate checks the grid shape and that both axes increase strictly.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}
	for i := 1; i < len(g.X); i++ {
		if g.X[i] <= g.X[i-1] {
			return fmt.Errorf("X coordinates must be strictly increasing")
		}
	}
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return fmt.Errorf("Y coordinates must be strictly increasing")
		}
	}
	return nil
}

// Nearest returns the value of the cell closest to (x, y).
func (g *Grid2D) Nearest(x, y float64) float64 {
	return g.Values[NearestIndex(g.Y, y)][NearestIndex(g.X, x)]
}

// Contains reports whether (x, y) lies inside the grid extent.
func (g *Grid2D) Contains(x, y float64) bool {
	return x >= g.X[0] && x <= g.X[len(g.X)-1] && y >= g.Y[0] && y <= g.Y[len(g.Y)-1]
}

// InterpolateAt performs bilinear interpolation at (x, y).
//
//	f(x,y) = (1-t)(1-u)f00 + t(1-u)f10 + (1-t)u f01 + tu f11
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if !g.Contains(x, y) {
		return 0, fmt.Errorf("point (%.6f, %.6f) is outside grid [%.6f, %.6f] x [%.6f, %.6f]",
			x, y, g.X[0], g.X[len(g.X)-1], g.Y[0], g.Y[len(g.Y)-1])
	}
	i := cellIndex(g.X, x)
	j := cellIndex(g.Y, y)

	t := (x - g.X[i]) / (g.X[i+1] - g.X[i])
	u := (y - g.Y[j]) / (g.Y[j+1] - g.Y[j])
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	return (1-t)*(1-u)*g.Values[j][i] +
		t*(1-u)*g.Values[j][i+1] +
		(1-t)*u*g.Values[j+1][i] +
		t*u*g.Values[j+1][i+1], nil
}

// cellIndex returns k such that axis[k] <= v <= axis[k+1].
func cellIndex(axis []float64, v float64) int {
	k := NearestIndex(axis, v)
	if k > 0 && (k == len(axis)-1 || axis[k] > v) {
		k--
	}
	return Clamp(k, 0, len(axis)-2)
}

// NearestIndex finds the index of the value closest to target in a sorted array.
// A target halfway between two values resolves to the lower index.
func NearestIndex(arr []float64, target float64) int {
	if len(arr) == 0 {
		return 0
	}
	left, right := 0, len(arr)-1
	for left < right {
		mid := (left + right) / 2
		if arr[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if left > 0 && math.Abs(arr[left-1]-target) <= math.Abs(arr[left]-target) {
		return left - 1
	}
	return left
}

// Clamp ensures value is within [minVal, maxVal].
func Clamp(value, minVal, maxVal int) int {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
