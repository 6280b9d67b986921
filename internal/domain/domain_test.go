package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func profileOf(q Quantity, vals ...float64) *ProfileVariable {
	layers := DefaultLayers()[:len(vals)]
	p := NewProfileVariable(q, layers)
	for i, v := range vals {
		p.Values[i] = Some(v)
	}
	return p
}

// TestValueMissingPropagates tests that arithmetic with a missing operand stays missing.
func TestValueMissingPropagates(t *testing.T) {
	a := Some(5)
	m := Missing()

	if !a.Sub(m).IsMissing() || !m.Sub(a).IsMissing() || !a.Add(m).IsMissing() {
		t.Errorf("expected missing result when one operand is missing")
	}
	if !m.Scale(2).IsMissing() || !m.Div(2).IsMissing() {
		t.Errorf("expected missing after scaling a missing value")
	}
	if !a.Div(0).IsMissing() {
		t.Errorf("expected division by zero to be missing")
	}
	if !Some(math.NaN()).IsMissing() {
		t.Errorf("expected NaN to be stored as missing")
	}
	if v, ok := Some(9).Sub(Some(5)).Div(200).Get(); !ok || math.Abs(v-0.02) > 1e-12 {
		t.Errorf("expected 0.02, got %v (ok=%v)", v, ok)
	}
}

// TestValueJSON tests that missing values encode as null.
func TestValueJSON(t *testing.T) {
	b, err := json.Marshal([]Value{Some(1.5), Missing()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[1.5,null]" {
		t.Errorf("expected [1.5,null], got %s", b)
	}
	var back []Value
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 || !back[1].IsMissing() || back[0].Float() != 1.5 {
		t.Errorf("unexpected decode: %v", back)
	}
}

// TestCombineExcludesMissing tests that a missing contribution is skipped, not counted as zero.
func TestCombineExcludesMissing(t *testing.T) {
	mk := func(name string, v Value) *Dataset {
		p := NewProfileVariable(Temperature, DefaultLayers()[:1])
		p.Values[0] = v
		return &Dataset{Name: name, Profiles: Profiles{T: p, S: p}}
	}
	datasets := []*Dataset{mk("A", Some(2)), mk("B", Missing()), mk("C", Some(4))}

	got, err := Combine(datasets, Temperature, nil)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if v, ok := got.Values[0].Get(); !ok || v != 3 {
		t.Errorf("expected mean 3.0, got %v", got.Values[0])
	}

	allMissing := []*Dataset{mk("A", Missing()), mk("B", Missing())}
	got, err = Combine(allMissing, Temperature, nil)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if !got.Values[0].IsMissing() {
		t.Errorf("expected missing when all contributors are missing, got %v", got.Values[0])
	}
}

// TestMultiModelMeanSkipsReferences tests that reference datasets do not enter the mean.
func TestMultiModelMeanSkipsReferences(t *testing.T) {
	a := &Dataset{Name: "A", Profiles: Profiles{T: profileOf(Temperature, 1, 2), S: profileOf(Salinity, 34, 35)}}
	b := &Dataset{Name: "B", Profiles: Profiles{T: profileOf(Temperature, 3, 4), S: profileOf(Salinity, 34.2, 35.2)}}
	ref := &Dataset{Name: "EN4", Reference: true, Profiles: Profiles{T: profileOf(Temperature, 100, 100), S: profileOf(Salinity, 0, 0)}}

	mmm, err := MultiModelMean([]*Dataset{a, b, ref}, Arctic, 1993, 2010)
	if err != nil {
		t.Fatalf("MultiModelMean: %v", err)
	}
	if mmm.Name != MultiModelName {
		t.Errorf("expected name %s, got %s", MultiModelName, mmm.Name)
	}
	want := []float64{2, 3}
	for i, w := range want {
		if v := mmm.Profiles.T.Values[i].Float(); math.Abs(v-w) > 1e-12 {
			t.Errorf("T layer %d: expected %.2f, got %.4f", i, w, v)
		}
	}
	if v := mmm.Profiles.S.Values[1].Float(); math.Abs(v-35.1) > 1e-9 {
		t.Errorf("S layer 1: expected 35.1, got %.4f", v)
	}
}

// TestCombineRejectsMismatchedLayers tests that datasets with different layers cannot be averaged.
func TestCombineRejectsMismatchedLayers(t *testing.T) {
	a := &Dataset{Name: "A", Profiles: Profiles{T: profileOf(Temperature, 1, 2)}}
	b := &Dataset{Name: "B", Profiles: Profiles{T: profileOf(Temperature, 1, 2, 3)}}
	if _, err := Combine([]*Dataset{a, b}, Temperature, nil); err == nil {
		t.Fatal("expected error for mismatched layers")
	}
}

// TestScreenSalinity tests that a salinity drop nulls both quantities at that layer only.
func TestScreenSalinity(t *testing.T) {
	p := Profiles{
		T: profileOf(Temperature, -1.0, 0.5, 0.8),
		S: profileOf(Salinity, 34.5, 34.4, 34.7),
	}

	screened := ScreenSalinity(p)
	if len(screened) != 1 || screened[0] != 1 {
		t.Fatalf("expected layer 1 screened, got %v", screened)
	}
	if !p.S.Values[1].IsMissing() || !p.T.Values[1].IsMissing() {
		t.Errorf("expected T and S missing at layer 1, got T=%v S=%v", p.T.Values[1], p.S.Values[1])
	}
	if p.S.Values[0].IsMissing() || p.T.Values[0].IsMissing() {
		t.Errorf("layer 0 should be untouched")
	}
	if p.S.Values[2].IsMissing() || p.T.Values[2].IsMissing() {
		t.Errorf("layer 2 should be untouched")
	}
}

// TestScreenSalinityEqualIsKept tests that the comparison is strict.
func TestScreenSalinityEqualIsKept(t *testing.T) {
	p := Profiles{
		T: profileOf(Temperature, 1, 1),
		S: profileOf(Salinity, 34.5, 34.5),
	}
	if got := ScreenSalinity(p); len(got) != 0 {
		t.Errorf("expected no screening for equal salinity, got %v", got)
	}
}

// TestBasinSelectIdempotent tests that repeated selection on the same grid is identical.
func TestBasinSelectIdempotent(t *testing.T) {
	lons := make([]float64, 360)
	for i := range lons {
		lons[i] = float64(i) + 0.5
	}
	lats := make([]float64, 180)
	for j := range lats {
		lats[j] = -89.5 + float64(j)
	}

	for _, b := range AllBasins() {
		m1, err := b.Select(lons, lats)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		m2, _ := b.Select(lons, lats)
		if !m1.Equal(m2) {
			t.Errorf("%s: selections differ", b)
		}
		if m1.Count() == 0 {
			t.Errorf("%s: expected a non-empty selection", b)
		}
	}
}

// TestBasinContains tests representative points of each basin rule.
func TestBasinContains(t *testing.T) {
	tests := []struct {
		basin    Basin
		lon, lat float64
		want     bool
	}{
		{Antarctic, 10, -65, true},
		{Antarctic, 10, -55, false},
		{Antarctic, 200, -66, true},
		{Antarctic, 200, -65, false},
		{Antarctic, 250, -69, true},
		{Arctic, 150, 75, true},
		{Arctic, 50, 75, false},
		{Arctic, 50, 85, true},
		{Eurasian, 120, 75, true},
		{Eurasian, 200, 75, false},
		{Eurasian, 320, 85, true},
		{Amerasian, 200, 75, true},
		{Amerasian, 300, 75, false},
		{Amerasian, 300, 85, true},
		{FramStrait, 0.5, 79, true},
		{FramStrait, 20, 79, false},
	}
	for _, tt := range tests {
		if got := tt.basin.Contains(tt.lon, tt.lat); got != tt.want {
			t.Errorf("%s.Contains(%.1f, %.1f) = %v, want %v", tt.basin, tt.lon, tt.lat, got, tt.want)
		}
	}
}

// TestParseBasinUnknown tests that unknown basins are configuration errors.
func TestParseBasinUnknown(t *testing.T) {
	if b, err := ParseBasin("eurasian"); err != nil || b != Eurasian {
		t.Errorf("expected Eurasian, got %q (%v)", b, err)
	}
	_, err := ParseBasin("Baltic")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != KindBasin {
		t.Fatalf("expected basin ConfigError, got %v", err)
	}
	if _, err := Basin("Baltic").Select([]float64{1}, []float64{1}); err == nil {
		t.Error("expected Select to reject an unknown basin")
	}
}

// TestBasinMinDepth tests the bathymetry thresholds.
func TestBasinMinDepth(t *testing.T) {
	want := map[Basin]float64{Antarctic: 1000, Arctic: 500, Eurasian: 500, Amerasian: 500, FramStrait: 0}
	for b, w := range want {
		if got := b.MinDepth(); got != w {
			t.Errorf("%s: expected %.0f, got %.0f", b, w, got)
		}
	}
}

// TestParseLayers tests layer list parsing and validation.
func TestParseLayers(t *testing.T) {
	layers, err := ParseLayers("0-100, 100-300m")
	if err != nil {
		t.Fatalf("ParseLayers: %v", err)
	}
	if len(layers) != 2 || layers[1] != (Layer{Upper: 100, Lower: 300}) {
		t.Errorf("unexpected layers: %v", layers)
	}
	if layers[1].Mid() != 200 {
		t.Errorf("expected mid 200, got %g", layers[1].Mid())
	}
	if _, err := ParseLayers("300-100"); err == nil {
		t.Error("expected error for inverted layer")
	}
}

// TestDiffRange tests the symmetric difference range against a reference.
func TestDiffRange(t *testing.T) {
	ref := &Dataset{Name: "MMM", Profiles: Profiles{T: profileOf(Temperature, 1, 2)}}
	a := &Dataset{Name: "A", Profiles: Profiles{T: profileOf(Temperature, 1.5, 1)}}
	b := &Dataset{Name: "B", Profiles: Profiles{T: NewProfileVariable(Temperature, DefaultLayers()[:2])}}

	lo, hi, err := DiffRange([]*Dataset{a, b}, ref, Temperature)
	if err != nil {
		t.Fatalf("DiffRange: %v", err)
	}
	if lo.Float() != -1 || hi.Float() != 1 {
		t.Errorf("expected [-1, 1], got [%v, %v]", lo, hi)
	}

	mn, mx := DataRange([]*Dataset{a, b, ref}, Temperature)
	if mn.Float() != 1 || mx.Float() != 2 {
		t.Errorf("expected data range [1, 2], got [%v, %v]", mn, mx)
	}
}

// TestCollection tests lookup, aggregation and differences on a collection.
func TestCollection(t *testing.T) {
	mk := func(name string, ref bool, tv, sv float64) *Dataset {
		return &Dataset{Name: name, Reference: ref, Profiles: Profiles{T: profileOf(Temperature, tv), S: profileOf(Salinity, sv)}}
	}
	c := &Collection{
		Basin:      Arctic,
		StartYear:  1993,
		EndYear:    2010,
		Products:   []*Dataset{mk("CGLORS", false, 1, 34), mk("ECDA", false, 3, 35)},
		References: []*Dataset{mk("EN4", true, 0, 30)},
	}
	if err := c.Aggregate(); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := c.MultiModel.Profiles.T.Values[0].Float(); got != 2 {
		t.Errorf("expected MMM T 2, got %v", got)
	}
	if len(c.All()) != 4 {
		t.Errorf("expected 4 datasets, got %d", len(c.All()))
	}
	if _, ok := c.Lookup("mmm"); !ok {
		t.Error("expected case-insensitive lookup of MMM")
	}

	lo, hi := c.DataRange(Salinity)
	if lo.Float() != 30 || hi.Float() != 35 {
		t.Errorf("expected salinity range 30..35, got %v..%v", lo, hi)
	}
	lo, hi, err := c.DiffRange(Temperature, "MMM")
	if err != nil {
		t.Fatalf("DiffRange: %v", err)
	}
	if lo.Float() != -1 || hi.Float() != 1 {
		t.Errorf("expected diff range -1..1, got %v..%v", lo, hi)
	}
	diffs, err := c.Differences(Temperature, "EN4")
	if err != nil {
		t.Fatalf("Differences: %v", err)
	}
	if diffs["ECDA"].Values[0].Float() != 3 || diffs["EN4"].Values[0].Float() != 0 {
		t.Errorf("unexpected differences %v %v", diffs["ECDA"].Values[0], diffs["EN4"].Values[0])
	}

	var ce *ConfigError
	if _, _, err := c.DiffRange(Temperature, "HadEN"); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for unknown reference, got %v", err)
	}
	if id := CollectionID([]string{"CGLORS", "ECDA"}, Arctic, 1993, 2010); id != "CGLORS_ECDA_1993-2010_"+Arctic.Slug() {
		t.Errorf("unexpected id %s", id)
	}
}

func TestCollectionKey(t *testing.T) {
	defaults := map[Quantity][]Layer{Temperature: DefaultLayers(), Salinity: DefaultLayers()}
	names := []string{"A", "B"}
	if got := CollectionKey(names, Arctic, 1993, 1995, defaults, true); got != "A_B_1993-1995_Arctic" {
		t.Errorf("expected the plain id for default options, got %s", got)
	}
	if got := CollectionKey(names, Arctic, 1993, 1995, defaults, false); got != "A_B_1993-1995_Arctic_norefs" {
		t.Errorf("unexpected id without references: %s", got)
	}

	shallow := map[Quantity][]Layer{Temperature: DefaultLayers()[:2], Salinity: DefaultLayers()}
	deep := map[Quantity][]Layer{Temperature: DefaultLayers(), Salinity: DefaultLayers()[:2]}
	a := CollectionKey(names, Arctic, 1993, 1995, shallow, true)
	b := CollectionKey(names, Arctic, 1993, 1995, deep, true)
	if a == b {
		t.Errorf("expected layer lists to give distinct ids, both %s", a)
	}
	if !strings.HasPrefix(a, "A_B_1993-1995_Arctic_L") || len(LayerSignature(shallow)) != 8 {
		t.Errorf("unexpected layer signature in %s", a)
	}
}

// TestDifferencesSkipMissingProfiles tests datasets that carry no profile for a quantity.
func TestDifferencesSkipMissingProfiles(t *testing.T) {
	c := &Collection{
		Basin:     Arctic,
		StartYear: 1993,
		EndYear:   1995,
		Products: []*Dataset{
			{Name: "A", Profiles: Profiles{T: profileOf(Temperature, 2)}},
			{Name: "B", Profiles: Profiles{T: profileOf(Temperature, 4), S: profileOf(Salinity, 35)}},
		},
		References: []*Dataset{{Name: "EN4", Reference: true, Profiles: Profiles{T: profileOf(Temperature, 3)}}},
	}

	lo, hi, err := c.DiffRange(Salinity, "B")
	if err != nil {
		t.Fatalf("DiffRange: %v", err)
	}
	if lo.Float() != 0 || hi.Float() != 0 {
		t.Errorf("expected [0, 0], got [%v, %v]", lo, hi)
	}
	diffs, err := c.Differences(Salinity, "B")
	if err != nil {
		t.Fatalf("Differences: %v", err)
	}
	if _, ok := diffs["A"]; ok || len(diffs) != 1 {
		t.Errorf("expected only B in salinity differences, got %d entries", len(diffs))
	}

	lo, hi, err = c.DiffRange(Salinity, "EN4")
	if err != nil || !lo.IsMissing() || !hi.IsMissing() {
		t.Errorf("expected missing range for a reference without salinity, got [%v, %v] err=%v", lo, hi, err)
	}
	if diffs, err := c.Differences(Salinity, "EN4"); err != nil || len(diffs) != 0 {
		t.Errorf("expected no differences, got %d (err=%v)", len(diffs), err)
	}
}
