package usecase

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/domain"
)

// The fixture grid has three latitude rows and two longitude columns. The
// Arctic rule (lon <= 100, lat > 80) selects the two northern rows.
var (
	fixtureLats = []float64{79.5, 80.5, 81.5}
	fixtureLons = []float64{0.5, 1.5}
)

const fixtureFill = -999.0

var fixtureCoords = product.Coords{
	Lat:   []string{"lat"},
	Lon:   []string{"lon"},
	Time:  []string{"time"},
	Depth: []string{"depth"},
}

// plane returns a lat x lon field with in inside the basin and out elsewhere.
func plane(in, out float64) []float64 {
	return []float64{out, out, in, in, in, in}
}

// cumulativeProduct integrates to every bound in one file per bound.
func cumulativeProduct(name string) *product.Product {
	variant := func(token string) product.Variant {
		return product.Variant{
			Layout:  product.PerBound,
			Pattern: name + "_int{token}_{start}to{end}_0-{bound}m.nc",
			Token:   token,
			Var:     "vint",
			Time:    product.TimeCF,
			Coords:  fixtureCoords,
		}
	}
	return &product.Product{
		ID: name, Kind: product.Cumulative, First: 1993, Last: 1995, Screen: true,
		T: variant("T"), S: variant("S"),
	}
}

// writeIntegral writes a three-record integral file. The first two records
// (1993, 1994) hold value in the basin with one fill cell; the third (1998)
// holds a large value that must never reach the average.
func writeIntegral(t *testing.T, dir, name, token string, bound, value float64) {
	t.Helper()
	rec0 := plane(value, 1000)
	rec0[2] = fixtureFill
	data := append(append(append([]float64{}, rec0...), plane(value, 1000)...), plane(1e4, 1e4)...)

	spec := nc.FileSpec{
		Dims: []nc.DimSpec{{Name: "time", Len: 3}, {Name: "lat", Len: 3}, {Name: "lon", Len: 2}},
		Vars: []nc.VarSpec{
			{Name: "time", Dims: []string{"time"}, Data: []float64{0, 365, 1825},
				Attrs: map[string]interface{}{"units": "days since 1993-01-01 00:00:00", "calendar": "noleap"}},
			{Name: "lat", Dims: []string{"lat"}, Data: fixtureLats},
			{Name: "lon", Dims: []string{"lon"}, Data: fixtureLons},
			{Name: "vint", Dims: []string{"time", "lat", "lon"}, Data: data,
				Attrs: map[string]interface{}{"_FillValue": fixtureFill}},
		},
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_int%s_1993to1995_0-%gm.nc", name, token, bound))
	if err := nc.WriteNetCDF(path, spec); err != nil {
		t.Fatalf("WriteNetCDF: %v", err)
	}
}

// writeProfileIntegrals writes the integrals of a piecewise-constant profile.
func writeProfileIntegrals(t *testing.T, dir, name, token string, layers []domain.Layer, means []float64) {
	t.Helper()
	total := 0.0
	for i, l := range layers {
		total += means[i] * l.Thickness()
		writeIntegral(t, dir, name, token, l.Lower, total)
	}
}

func layersRequest(basin domain.Basin, layers []domain.Layer) ProfileRequest {
	return ProfileRequest{
		Basin:     basin,
		StartYear: 1993,
		EndYear:   1995,
		Layers: map[domain.Quantity][]domain.Layer{
			domain.Temperature: layers,
			domain.Salinity:    layers,
		},
	}
}

func assertValue(t *testing.T, label string, got domain.Value, want float64) {
	t.Helper()
	x, ok := got.Get()
	if !ok {
		t.Errorf("%s: expected %.6f, got missing", label, want)
		return
	}
	if math.Abs(x-want) > 1e-9 {
		t.Errorf("%s: expected %.6f, got %.6f", label, want, x)
	}
}
