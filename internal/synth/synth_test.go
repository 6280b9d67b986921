package synth

import (
	"context"
	"math"
	"testing"

	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/domain"
	"go.ngs.io/oraip-profiles/internal/usecase"
)

func TestProfileIntegral(t *testing.T) {
	p := Profile{Surface: 2, Deep: 1, Scale: 100}
	// Numerical integral by the midpoint rule.
	sum := 0.0
	for z := 0.05; z < 300; z += 0.1 {
		sum += p.At(z) * 0.1
	}
	if math.Abs(sum-p.Integral(300)) > 1e-3 {
		t.Errorf("expected integral %.4f, got %.4f", sum, p.Integral(300))
	}
	if got := p.LayerMean(domain.Layer{Upper: 0, Lower: 1e6}); math.Abs(got-1) > 1e-3 {
		t.Errorf("expected deep mean near 1, got %.6f", got)
	}
}

func TestRegion(t *testing.T) {
	g, err := Region("arctic", 5)
	if err != nil {
		t.Fatalf("Region: %v", err)
	}
	if lats := g.Lats(); len(lats) != 6 || lats[0] != 62.5 || lats[5] != 87.5 {
		t.Errorf("unexpected latitudes %v", lats)
	}
	if lons := g.Lons(); len(lons) != 72 || lons[71] != 357.5 {
		t.Errorf("unexpected longitudes %d", len(lons))
	}
	if _, err := Region("tropics", 1); err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestFileLons(t *testing.T) {
	got := fileLons([]float64{45, 135, 225, 315})
	want := []float64{-135, -45, 45, 135}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// reduce generates p over the Arctic and reduces it for 1993-1995.
func reduce(t *testing.T, p *product.Product) (*Generator, *domain.Dataset) {
	t.Helper()
	dir := t.TempDir()
	region, _ := Region("arctic", 5)
	g := NewGenerator(dir, region, 1993, 1995)
	paths, err := g.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no files generated")
	}
	r := usecase.NewReducer(nc.OpenerFunc(nc.OpenNetCDF), dir, nil, nil, nil)
	ds, err := r.Reduce(context.Background(), p, usecase.NewProfileRequest(domain.Arctic, 1993, 1995))
	if err != nil {
		t.Fatalf("Reduce %s: %v", p.Name(), err)
	}
	return g, ds
}

func lookup(t *testing.T, name string) *product.Product {
	t.Helper()
	p, err := product.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return p
}

// TestCumulativeRoundTrip checks the reduced layers equal the analytic layer means.
func TestCumulativeRoundTrip(t *testing.T) {
	for _, name := range []string{"ECDA", "GECCO2", "GLORYS", "MOVEG2", "EN4"} {
		t.Run(name, func(t *testing.T) {
			g, ds := reduce(t, lookup(t, name))
			for _, q := range domain.Quantities() {
				prof := g.profile(q)
				pv := ds.Profile(q)
				for i, l := range pv.Layers {
					got, ok := pv.Values[i].Get()
					if !ok {
						t.Fatalf("%s %s: missing", q, l)
					}
					if want := prof.LayerMean(l); math.Abs(got-want) > 1e-6 {
						t.Errorf("%s %s: expected %.6f, got %.6f", q, l, want, got)
					}
				}
			}
		})
	}
}

// TestNativeRoundTrip checks layers average the native levels they contain.
func TestNativeRoundTrip(t *testing.T) {
	for _, name := range []string{"WOA13", "TOPAZ", "ORAP5"} {
		t.Run(name, func(t *testing.T) {
			g, ds := reduce(t, lookup(t, name))
			for _, q := range domain.Quantities() {
				prof := g.profile(q)
				pv := ds.Profile(q)
				for i, l := range pv.Layers {
					var sum float64
					var n int
					for _, z := range g.Levels {
						if l.Contains(z) {
							sum += prof.At(z)
							n++
						}
					}
					got, ok := pv.Values[i].Get()
					if n == 0 {
						if ok {
							t.Errorf("%s %s: expected missing, got %v", q, l, got)
						}
						continue
					}
					if !ok || math.Abs(got-sum/float64(n)) > 1e-6 {
						t.Errorf("%s %s: expected %.6f, got %v", q, l, sum/float64(n), pv.Values[i])
					}
				}
				if lp := ds.Levels[q]; lp == nil || len(lp.Depths) != len(g.Levels) {
					t.Errorf("%s: expected %d native levels", q, len(g.Levels))
				}
			}
		})
	}
}
