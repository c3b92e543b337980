package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Layer labels shown in the layer control.
const (
	BaseStreet    = "Street Map"
	BaseTopo      = "Topographic Map"
	BaseDark      = "Dark Map"
	BaseSatellite = "Satellite Map"
	OverlayQuakes = "Earthquakes"
	OverlayPlates = "Tectonic Plates"
)

var ErrUnknownLayer = errors.New("unknown layer")

// BaseLayer describes one tile layer. URLTemplate uses Leaflet's {s}/{z}/{x}/{y}
// placeholders.
type BaseLayer struct {
	Name          string `json:"name"`
	URLTemplate   string `json:"url"`
	Attribution   string `json:"attribution"`
	MaxZoom       int    `json:"maxZoom,omitempty"`
	TileSize      int    `json:"tileSize,omitempty"`
	ZoomOffset    int    `json:"zoomOffset,omitempty"`
	RequiresToken bool   `json:"requiresToken"`
}

// OverlayNames lists the overlays in control order.
func OverlayNames() []string {
	return []string{OverlayQuakes, OverlayPlates}
}

// LayerToggle is the serializable state of one control entry.
type LayerToggle struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// LayerState is a snapshot of a LayerSet.
type LayerState struct {
	Bases    []LayerToggle `json:"bases"`
	Overlays []LayerToggle `json:"overlays"`
}

// LayerSet tracks which base layer and overlays are active. Exactly one base
// is active; overlays toggle independently. Not safe for concurrent use.
type LayerSet struct {
	bases          []string
	overlays       []string
	activeBase     string
	activeOverlays map[string]bool
}

// NewLayerSet creates a LayerSet. Base and overlay names must be unique and
// disjoint; activeBase must be one of bases and activeOverlays a subset of overlays.
func NewLayerSet(bases, overlays []string, activeBase string, activeOverlays ...string) (*LayerSet, error) {
	if len(bases) == 0 {
		return nil, errors.New("layer set needs at least one base layer")
	}
	seen := make(map[string]bool, len(bases)+len(overlays))
	for _, name := range append(slices.Clone(bases), overlays...) {
		if seen[name] {
			return nil, fmt.Errorf("duplicate layer name %q", name)
		}
		seen[name] = true
	}

	s := &LayerSet{
		bases:          slices.Clone(bases),
		overlays:       slices.Clone(overlays),
		activeOverlays: make(map[string]bool, len(overlays)),
	}
	if err := s.SelectBase(activeBase); err != nil {
		return nil, err
	}
	for _, name := range activeOverlays {
		if err := s.SetOverlay(name, true); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SelectBase activates name and deactivates every other base layer.
// Overlay state is left unchanged.
func (s *LayerSet) SelectBase(name string) error {
	if !slices.Contains(s.bases, name) {
		return fmt.Errorf("base %q: %w", name, ErrUnknownLayer)
	}
	s.activeBase = name
	return nil
}

// SetOverlay shows or hides one overlay without touching the others.
func (s *LayerSet) SetOverlay(name string, on bool) error {
	if !slices.Contains(s.overlays, name) {
		return fmt.Errorf("overlay %q: %w", name, ErrUnknownLayer)
	}
	if on {
		s.activeOverlays[name] = true
	} else {
		delete(s.activeOverlays, name)
	}
	return nil
}

func (s *LayerSet) ActiveBase() string { return s.activeBase }

func (s *LayerSet) OverlayActive(name string) bool { return s.activeOverlays[name] }

// ActiveOverlays returns the active overlays in control order.
func (s *LayerSet) ActiveOverlays() []string {
	var active []string
	for _, name := range s.overlays {
		if s.activeOverlays[name] {
			active = append(active, name)
		}
	}
	return active
}

func (s *LayerSet) Bases() []string { return slices.Clone(s.bases) }

func (s *LayerSet) Overlays() []string { return slices.Clone(s.overlays) }

// State snapshots the set for serialization.
func (s *LayerSet) State() LayerState {
	st := LayerState{
		Bases:    make([]LayerToggle, len(s.bases)),
		Overlays: make([]LayerToggle, len(s.overlays)),
	}
	for i, name := range s.bases {
		st.Bases[i] = LayerToggle{Name: name, Active: name == s.activeBase}
	}
	for i, name := range s.overlays {
		st.Overlays[i] = LayerToggle{Name: name, Active: s.activeOverlays[name]}
	}
	return st
}
