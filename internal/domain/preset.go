package domain

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownPreset = errors.New("unknown map preset")

// DefaultPreset is the canonical view.
const DefaultPreset = "global"

// LatLng is a map center in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Preset is a named initial map view.
type Preset struct {
	Name      string   `json:"name"`
	Center    LatLng   `json:"center"`
	Zoom      int      `json:"zoom"`
	BaseLayer string   `json:"baseLayer"`
	Overlays  []string `json:"overlays"`
}

var presets = map[string]Preset{
	"global": {
		Name:      "global",
		Center:    LatLng{Lat: 0, Lng: 0},
		Zoom:      2,
		BaseLayer: BaseStreet,
		Overlays:  []string{OverlayQuakes},
	},
	"americas": {
		Name:      "americas",
		Center:    LatLng{Lat: 37.09, Lng: -95.71},
		Zoom:      5,
		BaseLayer: BaseSatellite,
		Overlays:  []string{OverlayQuakes, OverlayPlates},
	},
}

// LookupPreset returns the named preset. An empty name selects DefaultPreset.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	p.Overlays = slices.Clone(p.Overlays)
	return p, nil
}

// PresetNames returns all preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LayerSet builds the initial layer selection for this preset.
func (p Preset) LayerSet(bases []BaseLayer) (*LayerSet, error) {
	names := make([]string, len(bases))
	for i, b := range bases {
		names[i] = b.Name
	}
	return NewLayerSet(names, OverlayNames(), p.BaseLayer, p.Overlays...)
}
