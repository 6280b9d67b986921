package nc

import (
	"fmt"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
)

// netcdfDataset wraps a file opened with the NetCDF C library.
type netcdfDataset struct {
	path string
	ds   netcdf.Dataset
}

// OpenNetCDF opens a NetCDF-3 or NetCDF-4 file read-only.
func OpenNetCDF(path string) (Dataset, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	return &netcdfDataset{path: path, ds: ds}, nil
}

func (d *netcdfDataset) Path() string { return d.path }

func (d *netcdfDataset) Close() error { return d.ds.Close() }

func (d *netcdfDataset) HasVar(name string) bool {
	_, err := d.ds.Var(name)
	return err == nil
}

func (d *netcdfDataset) Var(name string) (Variable, error) {
	v, err := d.ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrVarNotFound, name, d.path)
	}
	lens, err := v.LenDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	shape := make([]int, len(lens))
	for i, l := range lens {
		shape[i] = int(l)
	}
	typ, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get type of %s: %w", name, err)
	}
	return &netcdfVar{name: name, v: v, shape: shape, typ: typ}, nil
}

type netcdfVar struct {
	name  string
	v     netcdf.Var
	shape []int
	typ   netcdf.Type
}

func (v *netcdfVar) Name() string { return v.name }

func (v *netcdfVar) Shape() []int {
	out := make([]int, len(v.shape))
	copy(out, v.shape)
	return out
}

// Attr reads an attribute, converting numeric types to float64.
func (v *netcdfVar) Attr(name string) (Attribute, bool) {
	a := v.v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return Attribute{}, false
	}
	typ, err := a.Type()
	if err != nil {
		return Attribute{}, false
	}

	switch typ {
	case netcdf.CHAR:
		b := make([]byte, n)
		if err := a.ReadBytes(b); err != nil {
			return Attribute{}, false
		}
		return Attribute{Text: strings.TrimRight(string(b), "\x00")}, true
	case netcdf.DOUBLE:
		vals := make([]float64, n)
		if err := a.ReadFloat64s(vals); err != nil {
			return Attribute{}, false
		}
		return Attribute{Values: vals}, true
	case netcdf.FLOAT:
		f32 := make([]float32, n)
		if err := a.ReadFloat32s(f32); err != nil {
			return Attribute{}, false
		}
		vals := make([]float64, n)
		for i, x := range f32 {
			vals[i] = float64(x)
		}
		return Attribute{Values: vals}, true
	case netcdf.INT:
		i32 := make([]int32, n)
		if err := a.ReadInt32s(i32); err != nil {
			return Attribute{}, false
		}
		vals := make([]float64, n)
		for i, x := range i32 {
			vals[i] = float64(x)
		}
		return Attribute{Values: vals}, true
	case netcdf.SHORT:
		i16 := make([]int16, n)
		if err := a.ReadInt16s(i16); err != nil {
			return Attribute{}, false
		}
		vals := make([]float64, n)
		for i, x := range i16 {
			vals[i] = float64(x)
		}
		return Attribute{Values: vals}, true
	default:
		return Attribute{}, false
	}
}

// ReadSlab reads a hyperslab, converting DOUBLE, FLOAT, INT and SHORT data to float64.
func (v *netcdfVar) ReadSlab(start, count []int) ([]float64, error) {
	if len(start) != len(v.shape) || len(count) != len(v.shape) {
		return nil, fmt.Errorf("slab rank %d does not match %s rank %d", len(start), v.name, len(v.shape))
	}
	//nolint:gosec // G115: Dimension indices are non-negative.
	ustart, ucount := make([]uint64, len(start)), make([]uint64, len(count))
	for i := range start {
		ustart[i] = uint64(start[i])
		ucount[i] = uint64(count[i])
	}
	total := product(count)

	switch v.typ {
	case netcdf.DOUBLE:
		out := make([]float64, total)
		if err := v.v.ReadFloat64Slice(out, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float64 slab: %w", err)
		}
		return out, nil
	case netcdf.FLOAT:
		buf := make([]float32, total)
		if err := v.v.ReadFloat32Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float32 slab: %w", err)
		}
		out := make([]float64, total)
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	case netcdf.INT:
		buf := make([]int32, total)
		if err := v.v.ReadInt32Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int32 slab: %w", err)
		}
		out := make([]float64, total)
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	case netcdf.SHORT:
		buf := make([]int16, total)
		if err := v.v.ReadInt16Slice(buf, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int16 slab: %w", err)
		}
		out := make([]float64, total)
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported data type %v for %s (expected DOUBLE, FLOAT, INT, or SHORT)", v.typ, v.name)
	}
}
