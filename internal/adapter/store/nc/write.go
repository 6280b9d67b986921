package nc

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/fhs/go-netcdf/netcdf"
)

// Element types for written variables.
const (
	Float  = "float"
	Double = "double"
)

// DimSpec is a fixed-length dimension.
type DimSpec struct {
	Name string
	Len  int
}

// VarSpec describes a variable to write. Attrs values are strings or float64.
type VarSpec struct {
	Name  string
	Dims  []string
	Type  string // Float or Double; Double when empty.
	Data  []float64
	Attrs map[string]interface{}
}

// FileSpec describes a classic-format file.
type FileSpec struct {
	Dims []DimSpec
	Vars []VarSpec
}

func (s FileSpec) dimLen(name string) (int, bool) {
	for _, d := range s.Dims {
		if d.Name == name {
			return d.Len, true
		}
	}
	return 0, false
}

// Validate checks that every variable's data matches its dimensions.
func (s FileSpec) Validate() error {
	for _, v := range s.Vars {
		n := 1
		for _, d := range v.Dims {
			l, ok := s.dimLen(d)
			if !ok {
				return fmt.Errorf("variable %s uses undefined dimension %s", v.Name, d)
			}
			n *= l
		}
		if len(v.Data) != n {
			return fmt.Errorf("variable %s has %d values, dimensions need %d", v.Name, len(v.Data), n)
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteNetCDF writes spec as a classic NetCDF file using the NetCDF C library.
func WriteNetCDF(path string, spec FileSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	dims := make(map[string]netcdf.Dim, len(spec.Dims))
	for _, d := range spec.Dims {
		//nolint:gosec // G115: Dimension lengths are non-negative.
		dim, err := ds.AddDim(d.Name, uint64(d.Len))
		if err != nil {
			return fmt.Errorf("failed to add dimension %s: %w", d.Name, err)
		}
		dims[d.Name] = dim
	}

	vars := make([]netcdf.Var, len(spec.Vars))
	for i, vs := range spec.Vars {
		vdims := make([]netcdf.Dim, len(vs.Dims))
		for j, name := range vs.Dims {
			vdims[j] = dims[name]
		}
		typ := netcdf.DOUBLE
		if vs.Type == Float {
			typ = netcdf.FLOAT
		}
		v, err := ds.AddVar(vs.Name, typ, vdims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", vs.Name, err)
		}
		for _, key := range sortedKeys(vs.Attrs) {
			if err := writeNetCDFAttr(v, typ, key, vs.Attrs[key]); err != nil {
				return fmt.Errorf("failed to write %s:%s: %w", vs.Name, key, err)
			}
		}
		vars[i] = v
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}

	for i, vs := range spec.Vars {
		if vs.Type == Float {
			buf := make([]float32, len(vs.Data))
			for k, x := range vs.Data {
				buf[k] = float32(x)
			}
			err = vars[i].WriteFloat32s(buf)
		} else {
			err = vars[i].WriteFloat64s(vs.Data)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", vs.Name, err)
		}
	}
	return nil
}

// Numeric attributes take the variable's element type so _FillValue is valid.
func writeNetCDFAttr(v netcdf.Var, typ netcdf.Type, key string, val interface{}) error {
	switch x := val.(type) {
	case string:
		return v.Attr(key).WriteBytes([]byte(x))
	case float64:
		if typ == netcdf.FLOAT {
			return v.Attr(key).WriteFloat32s([]float32{float32(x)})
		}
		return v.Attr(key).WriteFloat64s([]float64{x})
	default:
		return fmt.Errorf("unsupported attribute type %T", val)
	}
}

// WriteCDF writes spec as a classic NetCDF file with the pure-Go cdf package.
func WriteCDF(path string, spec FileSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	names := make([]string, len(spec.Dims))
	lens := make([]int, len(spec.Dims))
	for i, d := range spec.Dims {
		names[i], lens[i] = d.Name, d.Len
	}
	h := cdf.NewHeader(names, lens)
	for _, vs := range spec.Vars {
		if vs.Type == Float {
			h.AddVariable(vs.Name, vs.Dims, []float32{0})
		} else {
			h.AddVariable(vs.Name, vs.Dims, []float64{0})
		}
		for _, key := range sortedKeys(vs.Attrs) {
			switch x := vs.Attrs[key].(type) {
			case string:
				h.AddAttribute(vs.Name, key, x)
			case float64:
				if vs.Type == Float {
					h.AddAttribute(vs.Name, key, []float32{float32(x)})
				} else {
					h.AddAttribute(vs.Name, key, []float64{x})
				}
			default:
				return fmt.Errorf("unsupported attribute type %T for %s:%s", x, vs.Name, key)
			}
		}
	}
	h.Define()

	//nolint:gosec // G304: Output path chosen by the caller.
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ff.Close() }()

	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("failed to write CDF header: %w", err)
	}
	for _, vs := range spec.Vars {
		end := f.Header.Lengths(vs.Name)
		start := make([]int, len(end))
		w := f.Writer(vs.Name, start, end)
		var data interface{} = vs.Data
		if vs.Type == Float {
			buf := make([]float32, len(vs.Data))
			for k, x := range vs.Data {
				buf[k] = float32(x)
			}
			data = buf
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", vs.Name, err)
		}
	}
	return nil
}
