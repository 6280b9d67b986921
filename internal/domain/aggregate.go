package domain

import (
	"fmt"
	"math"
)

// MultiModelName is the dataset name of the multi-model mean.
const MultiModelName = "MMM"

// Combine averages layer i over the datasets not named in excluded, skipping
// missing values. A layer is missing when no contributor has a value for it.
func Combine(datasets []*Dataset, q Quantity, excluded []string) (*ProfileVariable, error) {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	var members []*ProfileVariable
	var first string
	for _, d := range datasets {
		if skip[d.Name] {
			continue
		}
		p := d.Profile(q)
		if p == nil {
			continue
		}
		if len(members) > 0 && !members[0].SameLayers(p) {
			return nil, fmt.Errorf("dataset %s: %s layers differ from %s", d.Name, q, first)
		}
		if len(members) == 0 {
			first = d.Name
		}
		members = append(members, p)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no datasets contribute to the %s mean", q)
	}

	out := NewProfileVariable(q, members[0].Layers)
	col := make([]Value, len(members))
	for i := range out.Values {
		for k, p := range members {
			col[k] = p.Values[i]
		}
		out.Values[i] = Mean(col)
	}
	return out, nil
}

// MultiModelMean builds the MMM dataset from the non-reference datasets.
func MultiModelMean(datasets []*Dataset, basin Basin, startYear, endYear int) (*Dataset, error) {
	var excluded []string
	for _, d := range datasets {
		if d.Reference {
			excluded = append(excluded, d.Name)
		}
	}
	mmm := &Dataset{
		Name:      MultiModelName,
		Legend:    MultiModelName,
		Basin:     basin,
		StartYear: startYear,
		EndYear:   endYear,
	}
	for _, q := range Quantities() {
		p, err := Combine(datasets, q, excluded)
		if err != nil {
			return nil, err
		}
		mmm.Profiles.Set(q, p)
	}
	return mmm, nil
}

// DataRange returns the smallest and largest present values of q across datasets.
func DataRange(datasets []*Dataset, q Quantity) (Value, Value) {
	var all []Value
	for _, d := range datasets {
		if p := d.Profile(q); p != nil {
			all = append(all, p.Values...)
		}
	}
	return Extent(all)
}

// DiffRange returns the symmetric range [-m, m] where m is the largest
// absolute difference between any dataset and ref for q. Datasets without a
// q profile are skipped.
func DiffRange(datasets []*Dataset, ref *Dataset, q Quantity) (Value, Value, error) {
	rp := ref.Profile(q)
	if rp == nil {
		return Missing(), Missing(), nil
	}
	var diffs []Value
	for _, d := range datasets {
		p := d.Profile(q)
		if p == nil {
			continue
		}
		dp, err := Difference(p, rp)
		if err != nil {
			return Missing(), Missing(), fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		for _, v := range dp.Values {
			if x, ok := v.Get(); ok {
				diffs = append(diffs, Some(math.Abs(x)))
			}
		}
	}
	_, hi := Extent(diffs)
	if hi.IsMissing() {
		return Missing(), Missing(), nil
	}
	return hi.Scale(-1), hi, nil
}
