package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is the set of datasets compared for one basin and year range:
// the model products, the reference products and their multi-model mean.
type Collection struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	Created    time.Time  `json:"created"`
	Basin      Basin      `json:"basin"`
	StartYear  int        `json:"start_year"`
	EndYear    int        `json:"end_year"`
	Products   []*Dataset `json:"products"`
	References []*Dataset `json:"references"`
	MultiModel *Dataset   `json:"multi_model,omitempty"`
}

// CollectionID returns the identifier of a collection, e.g.
// "CGLORS_ECDA_1993-2010_Arctic".
func CollectionID(names []string, basin Basin, startYear, endYear int) string {
	return fmt.Sprintf("%s_%04d-%04d_%s", strings.Join(names, "_"), startYear, endYear, basin.Slug())
}

// CollectionKey extends CollectionID with the options that change a
// collection's contents. Non-default layers add "_L" and a short signature of
// the layer lists; leaving out the references adds "_norefs".
func CollectionKey(names []string, basin Basin, startYear, endYear int, layers map[Quantity][]Layer, references bool) string {
	id := CollectionID(names, basin, startYear, endYear)
	if sig := LayerSignature(layers); sig != "" {
		id += "_L" + sig
	}
	if !references {
		id += "_norefs"
	}
	return id
}

// LayerSignature returns a short name-based hash of the per-quantity layer
// lists, or "" when both quantities use the default layers.
func LayerSignature(layers map[Quantity][]Layer) string {
	var b strings.Builder
	custom := false
	for _, q := range Quantities() {
		ls := layers[q]
		if !sameLayers(ls, DefaultLayers()) {
			custom = true
		}
		b.WriteString(q.String())
		for _, l := range ls {
			fmt.Fprintf(&b, ":%g-%g", l.Upper, l.Lower)
		}
		b.WriteByte(';')
	}
	if !custom {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()[:8]
}

func sameLayers(a, b []Layer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// All returns products, references and the multi-model mean, in that order.
func (c *Collection) All() []*Dataset {
	out := make([]*Dataset, 0, len(c.Products)+len(c.References)+1)
	out = append(out, c.Products...)
	out = append(out, c.References...)
	if c.MultiModel != nil {
		out = append(out, c.MultiModel)
	}
	return out
}

// Lookup finds a dataset by name, including the multi-model mean.
func (c *Collection) Lookup(name string) (*Dataset, bool) {
	for _, d := range c.All() {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return nil, false
}

// Aggregate recomputes the multi-model mean from the current members.
func (c *Collection) Aggregate() error {
	members := make([]*Dataset, 0, len(c.Products)+len(c.References))
	members = append(members, c.Products...)
	members = append(members, c.References...)
	mmm, err := MultiModelMean(members, c.Basin, c.StartYear, c.EndYear)
	if err != nil {
		return err
	}
	c.MultiModel = mmm
	return nil
}

// DataRange returns the extent of q over products and references.
func (c *Collection) DataRange(q Quantity) (Value, Value) {
	members := append(append([]*Dataset{}, c.Products...), c.References...)
	return DataRange(members, q)
}

// DiffRange returns the symmetric extent of the product differences from the
// named dataset.
func (c *Collection) DiffRange(q Quantity, ref string) (Value, Value, error) {
	r, ok := c.Lookup(ref)
	if !ok {
		return Missing(), Missing(), &ConfigError{Kind: KindProduct, Value: ref}
	}
	return DiffRange(c.Products, r, q)
}

// Differences returns every dataset's profile minus the named reference profile.
// Datasets without a q profile have no entry.
func (c *Collection) Differences(q Quantity, ref string) (map[string]*ProfileVariable, error) {
	r, ok := c.Lookup(ref)
	if !ok {
		return nil, &ConfigError{Kind: KindProduct, Value: ref}
	}
	out := make(map[string]*ProfileVariable)
	rp := r.Profile(q)
	if rp == nil {
		return out, nil
	}
	for _, d := range c.All() {
		p := d.Profile(q)
		if p == nil {
			continue
		}
		diff, err := Difference(p, rp)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		out[d.Name] = diff
	}
	return out, nil
}
