package nc

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// cdfDataset wraps a classic-format file read with the pure-Go cdf package.
type cdfDataset struct {
	path string
	file *os.File
	f    *cdf.File
}

// OpenCDF opens a NetCDF classic (CDF-1/CDF-2) file without cgo.
func OpenCDF(path string) (Dataset, error) {
	//nolint:gosec // G304: Path built from the configured data directory.
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := cdf.Open(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read CDF header: %w", err)
	}
	return &cdfDataset{path: path, file: file, f: f}, nil
}

func (d *cdfDataset) Path() string { return d.path }

func (d *cdfDataset) Close() error { return d.file.Close() }

func (d *cdfDataset) HasVar(name string) bool {
	for _, v := range d.f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

func (d *cdfDataset) Var(name string) (Variable, error) {
	if !d.HasVar(name) {
		return nil, fmt.Errorf("%w: %s in %s", ErrVarNotFound, name, d.path)
	}
	shape := d.f.Header.Lengths(name)
	if len(shape) > 0 && shape[0] == 0 {
		// Record variables report a zero-length leading dimension; count the
		// records from the full variable size instead.
		n, err := d.records(name, shape)
		if err != nil {
			return nil, err
		}
		shape = append([]int{n}, shape[1:]...)
	}
	return &cdfVar{name: name, f: d.f, shape: shape}, nil
}

func (d *cdfDataset) records(name string, shape []int) (int, error) {
	r := d.f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	total := lengthOf(buf)
	per := product(shape[1:])
	if per == 0 {
		return 0, nil
	}
	if total%per != 0 {
		return 0, fmt.Errorf("record size of %s does not divide %d values", name, total)
	}
	return total / per, nil
}

type cdfVar struct {
	name  string
	f     *cdf.File
	shape []int
}

func (v *cdfVar) Name() string { return v.name }

func (v *cdfVar) Shape() []int {
	out := make([]int, len(v.shape))
	copy(out, v.shape)
	return out
}

func (v *cdfVar) Attr(name string) (Attribute, bool) {
	switch a := v.f.Header.GetAttribute(v.name, name).(type) {
	case string:
		return Attribute{Text: a}, a != ""
	case []float64:
		return Attribute{Values: a}, len(a) > 0
	case []float32:
		return Attribute{Values: toFloat64(a)}, len(a) > 0
	case []int32:
		return Attribute{Values: toFloat64(a)}, len(a) > 0
	case []int16:
		return Attribute{Values: toFloat64(a)}, len(a) > 0
	default:
		return Attribute{}, false
	}
}

func (v *cdfVar) ReadSlab(start, count []int) ([]float64, error) {
	if len(start) != len(v.shape) || len(count) != len(v.shape) {
		return nil, fmt.Errorf("slab rank %d does not match %s rank %d", len(start), v.name, len(v.shape))
	}
	end := make([]int, len(start))
	for i := range start {
		end[i] = start[i] + count[i]
	}
	r := v.f.Reader(v.name, start, end)
	buf := r.Zero(product(count))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", v.name, err)
	}
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		return toFloat64(b), nil
	case []int32:
		return toFloat64(b), nil
	case []int16:
		return toFloat64(b), nil
	default:
		return nil, fmt.Errorf("unsupported data type %T for %s", buf, v.name)
	}
}

type number interface {
	~float32 | ~float64 | ~int16 | ~int32
}

func toFloat64[T number](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func lengthOf(buf interface{}) int {
	switch b := buf.(type) {
	case []float64:
		return len(b)
	case []float32:
		return len(b)
	case []int32:
		return len(b)
	case []int16:
		return len(b)
	case []byte:
		return len(b)
	default:
		return 0
	}
}
