// Package nc provides read access to NetCDF datasets behind a small interface
// with two backends: the NetCDF C library and a pure-Go classic-format reader.
package nc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/sparse"
)

// ErrVarNotFound is returned when a dataset has none of the requested variables.
var ErrVarNotFound = errors.New("variable not found")

// Attribute is a variable attribute. Text holds character attributes, Values numeric ones.
type Attribute struct {
	Text   string
	Values []float64
}

// Dataset is an open NetCDF file.
type Dataset interface {
	Path() string
	Var(name string) (Variable, error)
	HasVar(name string) bool
	Close() error
}

// Variable is a named, sliceable array with attributes.
type Variable interface {
	Name() string
	// Shape returns the dimension lengths, slowest varying first.
	Shape() []int
	Attr(name string) (Attribute, bool)
	// ReadSlab reads the raw values of the hyperslab [start, start+count) in file order.
	ReadSlab(start, count []int) ([]float64, error)
}

// Opener opens datasets by path.
type Opener interface {
	Open(path string) (Dataset, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Dataset, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Dataset, error) {
	return f(path)
}

// Backend names.
const (
	BackendNetCDF = "netcdf"
	BackendCDF    = "cdf"
)

// NewOpener returns the opener for a backend name. An empty name selects the NetCDF C library.
func NewOpener(backend string) (Opener, error) {
	switch strings.ToLower(backend) {
	case "", BackendNetCDF:
		return OpenerFunc(OpenNetCDF), nil
	case BackendCDF:
		return OpenerFunc(OpenCDF), nil
	}
	return nil, fmt.Errorf("unknown reader backend %q (use %s or %s)", backend, BackendNetCDF, BackendCDF)
}

// FindVar returns the first variable present among names.
func FindVar(ds Dataset, names ...string) (Variable, error) {
	for _, name := range names {
		if name == "" || !ds.HasVar(name) {
			continue
		}
		return ds.Var(name)
	}
	return nil, fmt.Errorf("%w in %s (tried: %v)", ErrVarNotFound, ds.Path(), names)
}

// Text returns a character attribute.
func Text(v Variable, name string) (string, bool) {
	a, ok := v.Attr(name)
	if !ok || a.Text == "" {
		return "", false
	}
	return a.Text, true
}

// Number returns the first value of a numeric attribute.
func Number(v Variable, name string) (float64, bool) {
	a, ok := v.Attr(name)
	if !ok || len(a.Values) == 0 {
		return 0, false
	}
	return a.Values[0], true
}

// packing returns the scale_factor and add_offset of v.
func packing(v Variable) (scale, offset float64) {
	scale, offset = 1, 0
	if s, ok := Number(v, "scale_factor"); ok && s != 0 {
		scale = s
	}
	if o, ok := Number(v, "add_offset"); ok {
		offset = o
	}
	return scale, offset
}

func unpack(v Variable, data []float64) {
	scale, offset := packing(v)
	if scale == 1 && offset == 0 {
		return
	}
	for i := range data {
		data[i] = data[i]*scale + offset
	}
}

// FillValue resolves the fill marker of v: _FillValue first, then missing_value.
// The marker is returned in unpacked units so it can be compared with values
// returned by ReadAll and ReadRecord.
func FillValue(v Variable) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if f, ok := Number(v, name); ok {
			scale, offset := packing(v)
			return f*scale + offset, true
		}
	}
	return 0, false
}

// IsFill reports whether x matches fill within the tolerance used for masked
// value comparisons: |x - fill| <= 1e-8 + 1e-5*|fill|.
func IsFill(x, fill float64) bool {
	return math.Abs(x-fill) <= 1e-8+1e-5*math.Abs(fill)
}

// ReadAll reads every value of v, unpacked.
func ReadAll(v Variable) ([]float64, error) {
	shape := v.Shape()
	start := make([]int, len(shape))
	data, err := v.ReadSlab(start, shape)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", v.Name(), err)
	}
	unpack(v, data)
	return data, nil
}

// ReadAxis reads a 1-D coordinate variable, trying each name in order.
func ReadAxis(ds Dataset, names ...string) ([]float64, error) {
	v, err := FindVar(ds, names...)
	if err != nil {
		return nil, err
	}
	if len(v.Shape()) != 1 {
		return nil, fmt.Errorf("expected 1D variable %s, got %dD", v.Name(), len(v.Shape()))
	}
	return ReadAll(v)
}

// NumRecords returns the length of the leading dimension of v.
func NumRecords(v Variable) int {
	shape := v.Shape()
	if len(shape) == 0 {
		return 0
	}
	return shape[0]
}

// ReadRecord reads record i of v along its leading dimension, unpacked.
// Leading unit dimensions of the result are dropped, so a [time, 1, lat, lon]
// variable yields a lat x lon array.
func ReadRecord(v Variable, i int) (*sparse.DenseArray, error) {
	shape := v.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("variable %s has no record dimension", v.Name())
	}
	if i < 0 || i >= shape[0] {
		return nil, fmt.Errorf("record %d out of range for %s (%d records)", i, v.Name(), shape[0])
	}
	start := make([]int, len(shape))
	count := make([]int, len(shape))
	copy(count, shape)
	start[0], count[0] = i, 1

	data, err := v.ReadSlab(start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %d of %s: %w", i, v.Name(), err)
	}
	unpack(v, data)

	dims := squeeze(shape[1:])
	out := sparse.ZerosDense(dims...)
	copy(out.Elements, data)
	return out, nil
}

func squeeze(dims []int) []int {
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	out := make([]int, len(dims))
	copy(out, dims)
	return out
}

func product(xs []int) int {
	n := 1
	for _, x := range xs {
		n *= x
	}
	return n
}
