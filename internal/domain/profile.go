package domain

import (
	"fmt"
)

// ProfileVariable holds one value per depth layer for a quantity.
// len(Values) == len(Layers) always holds for values built by NewProfileVariable.
type ProfileVariable struct {
	Quantity Quantity `json:"quantity"`
	Layers   []Layer  `json:"layers"`
	Values   []Value  `json:"values"`
}

// NewProfileVariable returns a profile with every layer missing.
func NewProfileVariable(q Quantity, layers []Layer) *ProfileVariable {
	ls := make([]Layer, len(layers))
	copy(ls, layers)
	return &ProfileVariable{
		Quantity: q,
		Layers:   ls,
		Values:   make([]Value, len(layers)),
	}
}

// Len returns the number of layers.
func (p *ProfileVariable) Len() int {
	return len(p.Layers)
}

// Mids returns the layer mid-depths.
func (p *ProfileVariable) Mids() []float64 {
	mz := make([]float64, len(p.Layers))
	for i, l := range p.Layers {
		mz[i] = l.Mid()
	}
	return mz
}

// MissingCount returns the number of missing layers.
func (p *ProfileVariable) MissingCount() int {
	n := 0
	for _, v := range p.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Validate checks the layer/value invariant.
func (p *ProfileVariable) Validate() error {
	if len(p.Values) != len(p.Layers) {
		return fmt.Errorf("%s profile has %d values for %d layers", p.Quantity, len(p.Values), len(p.Layers))
	}
	return nil
}

// SameLayers reports whether p and o share the same layer list.
func (p *ProfileVariable) SameLayers(o *ProfileVariable) bool {
	if len(p.Layers) != len(o.Layers) {
		return false
	}
	for i := range p.Layers {
		if p.Layers[i] != o.Layers[i] {
			return false
		}
	}
	return true
}

// Difference returns p - ref layer by layer. Missing on either side stays missing.
func Difference(p, ref *ProfileVariable) (*ProfileVariable, error) {
	if !p.SameLayers(ref) {
		return nil, fmt.Errorf("cannot difference %s profiles with different layers", p.Quantity)
	}
	out := NewProfileVariable(p.Quantity, p.Layers)
	for i := range p.Values {
		out.Values[i] = p.Values[i].Sub(ref.Values[i])
	}
	return out, nil
}

// Profiles is the temperature/salinity pair owned by one dataset.
type Profiles struct {
	T *ProfileVariable `json:"T"`
	S *ProfileVariable `json:"S"`
}

// Get returns the profile for q.
func (p Profiles) Get(q Quantity) *ProfileVariable {
	if q == Salinity {
		return p.S
	}
	return p.T
}

// Set replaces the profile for q.
func (p *Profiles) Set(q Quantity, v *ProfileVariable) {
	if q == Salinity {
		p.S = v
		return
	}
	p.T = v
}

// LevelProfile is a time-mean basin average at native depth levels, before
// layer binning. Depths increase downward.
type LevelProfile struct {
	Depths []float64 `json:"depths"`
	Values []Value   `json:"values"`
}

// Bin averages the levels falling in each layer, skipping missing levels.
func (lp *LevelProfile) Bin(q Quantity, layers []Layer) *ProfileVariable {
	out := NewProfileVariable(q, layers)
	for i, l := range out.Layers {
		var in []Value
		for k, z := range lp.Depths {
			if l.Contains(z) {
				in = append(in, lp.Values[k])
			}
		}
		out.Values[i] = Mean(in)
	}
	return out
}

// Dataset is a named source with its reduced profiles for one basin and year range.
type Dataset struct {
	Name      string   `json:"name"`
	Legend    string   `json:"legend"`
	Basin     Basin    `json:"basin"`
	StartYear int      `json:"start_year"`
	EndYear   int      `json:"end_year"`
	Reference bool     `json:"reference"`
	Profiles  Profiles `json:"profiles"`
	// Levels holds the unbinned profiles of native-level products.
	Levels map[Quantity]*LevelProfile `json:"levels,omitempty"`
}

// Profile returns the dataset's profile for q.
func (d *Dataset) Profile(q Quantity) *ProfileVariable {
	return d.Profiles.Get(q)
}
