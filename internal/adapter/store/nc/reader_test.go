package nc

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

// fieldSpec is a 2-record 2x3 field with coordinates, a fill value and a time axis.
func fieldSpec(typ string) FileSpec {
	return FileSpec{
		Dims: []DimSpec{{Name: "time", Len: 2}, {Name: "lat", Len: 2}, {Name: "lon", Len: 3}},
		Vars: []VarSpec{
			{Name: "time", Dims: []string{"time"}, Data: []float64{0, 365},
				Attrs: map[string]interface{}{"units": "days since 1993-01-01", "calendar": "noleap"}},
			{Name: "lat", Dims: []string{"lat"}, Data: []float64{-70.5, -69.5}},
			{Name: "lon", Dims: []string{"lon"}, Data: []float64{-1, 0.5, 1.5}},
			{Name: "temp", Dims: []string{"time", "lat", "lon"}, Type: typ,
				Data:  []float64{1, 2, 3, 4, 5, -999, 10, 20, 30, 40, 50, 60},
				Attrs: map[string]interface{}{"_FillValue": -999.0, "units": "degC"}},
		},
	}
}

func checkField(t *testing.T, ds Dataset) {
	t.Helper()
	lons, err := ReadAxis(ds, "longitude", "lon")
	if err != nil {
		t.Fatalf("ReadAxis lon: %v", err)
	}
	if len(lons) != 3 || lons[0] != -1 {
		t.Errorf("unexpected lons %v", lons)
	}

	v, err := FindVar(ds, "temperature", "temp")
	if err != nil {
		t.Fatalf("FindVar: %v", err)
	}
	if NumRecords(v) != 2 {
		t.Errorf("expected 2 records, got %d", NumRecords(v))
	}
	fill, ok := FillValue(v)
	if !ok || fill != -999 {
		t.Errorf("expected fill -999, got %v (ok=%v)", fill, ok)
	}
	if units, _ := Text(v, "units"); units != "degC" {
		t.Errorf("expected units degC, got %q", units)
	}

	rec, err := ReadRecord(v, 1)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if len(rec.Shape) != 2 || rec.Shape[0] != 2 || rec.Shape[1] != 3 {
		t.Fatalf("unexpected record shape %v", rec.Shape)
	}
	if got := rec.Get(1, 2); math.Abs(got-60) > 1e-6 {
		t.Errorf("expected 60 at (1,2), got %v", got)
	}
	first, err := ReadRecord(v, 0)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if !IsFill(first.Get(1, 2), fill) {
		t.Errorf("expected fill at (1,2), got %v", first.Get(1, 2))
	}
	if _, err := ReadRecord(v, 2); err == nil {
		t.Error("expected out-of-range record error")
	}

	tv, err := ds.Var("time")
	if err != nil {
		t.Fatalf("Var time: %v", err)
	}
	if cal, _ := Text(tv, "calendar"); cal != "noleap" {
		t.Errorf("expected calendar noleap, got %q", cal)
	}

	if _, err := FindVar(ds, "salinity"); !errors.Is(err, ErrVarNotFound) {
		t.Errorf("expected ErrVarNotFound, got %v", err)
	}
}

func TestNetCDFBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.nc")
	if err := WriteNetCDF(path, fieldSpec(Float)); err != nil {
		t.Fatalf("WriteNetCDF: %v", err)
	}
	ds, err := OpenNetCDF(path)
	if err != nil {
		t.Fatalf("OpenNetCDF: %v", err)
	}
	defer func() { _ = ds.Close() }()
	checkField(t, ds)
}

func TestCDFBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.nc")
	if err := WriteCDF(path, fieldSpec(Double)); err != nil {
		t.Fatalf("WriteCDF: %v", err)
	}
	ds, err := OpenCDF(path)
	if err != nil {
		t.Fatalf("OpenCDF: %v", err)
	}
	defer func() { _ = ds.Close() }()
	checkField(t, ds)
}

func TestBackendsAgree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.nc")
	if err := WriteNetCDF(path, fieldSpec(Double)); err != nil {
		t.Fatalf("WriteNetCDF: %v", err)
	}
	for _, backend := range []string{BackendNetCDF, BackendCDF} {
		opener, err := NewOpener(backend)
		if err != nil {
			t.Fatalf("NewOpener(%s): %v", backend, err)
		}
		ds, err := opener.Open(path)
		if err != nil {
			t.Fatalf("%s: open: %v", backend, err)
		}
		v, _ := ds.Var("temp")
		all, err := ReadAll(v)
		if err != nil {
			t.Fatalf("%s: ReadAll: %v", backend, err)
		}
		if len(all) != 12 || all[6] != 10 {
			t.Errorf("%s: unexpected data %v", backend, all)
		}
		_ = ds.Close()
	}
	if _, err := NewOpener("hdf5"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestScaleFactorUnpacking(t *testing.T) {
	spec := FileSpec{
		Dims: []DimSpec{{Name: "time", Len: 1}, {Name: "lat", Len: 1}, {Name: "lon", Len: 2}},
		Vars: []VarSpec{
			{Name: "sst", Dims: []string{"time", "lat", "lon"}, Data: []float64{100, -1},
				Attrs: map[string]interface{}{"scale_factor": 0.01, "add_offset": 20.0, "missing_value": -1.0}},
		},
	}
	path := filepath.Join(t.TempDir(), "packed.nc")
	if err := WriteNetCDF(path, spec); err != nil {
		t.Fatalf("WriteNetCDF: %v", err)
	}
	ds, err := OpenNetCDF(path)
	if err != nil {
		t.Fatalf("OpenNetCDF: %v", err)
	}
	defer func() { _ = ds.Close() }()

	v, _ := ds.Var("sst")
	rec, err := ReadRecord(v, 0)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got := rec.Get(0, 0); math.Abs(got-21) > 1e-9 {
		t.Errorf("expected 21, got %v", got)
	}
	fill, ok := FillValue(v)
	if !ok || !IsFill(rec.Get(0, 1), fill) {
		t.Errorf("expected packed missing value to match after unpacking, fill=%v value=%v", fill, rec.Get(0, 1))
	}
}

func TestIsFillTolerance(t *testing.T) {
	if !IsFill(-1e34*(1+1e-7), -1e34) {
		t.Error("expected relative tolerance match for large sentinel")
	}
	if IsFill(0.5, 0) {
		t.Error("0.5 should not match fill 0")
	}
}
