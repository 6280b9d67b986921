package domain

import (
	"fmt"
	"strings"
)

// Quantity is a physical quantity with a vertical profile.
type Quantity int

const (
	Temperature Quantity = iota
	Salinity
)

// Quantities lists the profiled quantities in reading order.
func Quantities() []Quantity {
	return []Quantity{Temperature, Salinity}
}

// String returns the short key used in file names ("T" or "S").
func (q Quantity) String() string {
	switch q {
	case Temperature:
		return "T"
	case Salinity:
		return "S"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// Label returns the axis label for q.
func (q Quantity) Label() string {
	switch q {
	case Temperature:
		return "Temperature [degC]"
	case Salinity:
		return "Salinity [psu]"
	default:
		return q.String()
	}
}

// ParseQuantity accepts "T", "S", "temperature" or "salinity" in any case.
func ParseQuantity(s string) (Quantity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "temperature", "temp":
		return Temperature, nil
	case "s", "salinity", "salt":
		return Salinity, nil
	}
	return 0, &ConfigError{Kind: KindQuantity, Value: s}
}

// MarshalText encodes q as its short key.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText decodes a short key or name.
func (q *Quantity) UnmarshalText(b []byte) error {
	v, err := ParseQuantity(string(b))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// Layer is a depth interval [Upper, Lower] in metres, Upper above Lower.
type Layer struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// DefaultLayers returns the five reference layers.
func DefaultLayers() []Layer {
	return []Layer{
		{Upper: 0, Lower: 100},
		{Upper: 100, Lower: 300},
		{Upper: 300, Lower: 700},
		{Upper: 700, Lower: 1500},
		{Upper: 1500, Lower: 3000},
	}
}

// Thickness returns Lower - Upper.
func (l Layer) Thickness() float64 {
	return l.Lower - l.Upper
}

// Mid returns the layer mid-depth.
func (l Layer) Mid() float64 {
	return (l.Upper + l.Lower) / 2
}

// Contains reports whether depth lies in the half-open interval [Upper, Lower).
func (l Layer) Contains(depth float64) bool {
	return depth >= l.Upper && depth < l.Lower
}

func (l Layer) String() string {
	return fmt.Sprintf("%g-%gm", l.Upper, l.Lower)
}

// Validate checks that the layer is non-empty and not above the surface.
func (l Layer) Validate() error {
	if l.Upper < 0 || l.Lower <= l.Upper {
		return &ConfigError{Kind: KindLayer, Value: l.String(), Msg: "need 0 <= upper < lower"}
	}
	return nil
}

// ValidateLayers checks each layer and that the list is ordered top to bottom.
func ValidateLayers(layers []Layer) error {
	if len(layers) == 0 {
		return &ConfigError{Kind: KindLayer, Value: "", Msg: "empty layer list"}
	}
	for i, l := range layers {
		if err := l.Validate(); err != nil {
			return err
		}
		if i > 0 && l.Upper < layers[i-1].Upper {
			return &ConfigError{Kind: KindLayer, Value: l.String(), Msg: "layers must be ordered top to bottom"}
		}
	}
	return nil
}

// ParseLayers parses "0-100,100-300" style layer lists.
func ParseLayers(s string) ([]Layer, error) {
	var layers []Layer
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSuffix(strings.TrimSpace(part), "m")
		if part == "" {
			continue
		}
		var l Layer
		if _, err := fmt.Sscanf(part, "%g-%g", &l.Upper, &l.Lower); err != nil {
			return nil, &ConfigError{Kind: KindLayer, Value: part, Msg: "expected upper-lower"}
		}
		layers = append(layers, l)
	}
	if err := ValidateLayers(layers); err != nil {
		return nil, err
	}
	return layers, nil
}
