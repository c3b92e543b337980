package domain

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"time"
)

// PopupTimeLayout renders origin times in popups, e.g.
// "Tue Apr 16 2024 14:05:09 GMT+0000 (UTC)".
const PopupTimeLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

const (
	UnknownPlace = "Unknown location"
	UnknownTime  = "Unknown time"
)

// colorStop is one bin of the magnitude color scale. Magnitudes strictly
// greater than min take color.
type colorStop struct {
	min   float64
	color string
}

// colorScale is ordered highest threshold first; the first match wins.
var colorScale = []colorStop{
	{9, "#156431"},
	{8, "#1B7D4E"},
	{7, "#2AAF9A"},
	{6, "#31C7C7"},
	{5, "#42BCF6"},
	{4, "#56CCF8"},
	{3, "#6ADBFA"},
	{2, "#94F1FD"},
	{1, "#A9F9FE"},
}

// baseColor covers magnitudes <= 1 (and NaN).
const baseColor = "#D4FFFD"

// Radius returns the marker radius for a depth in kilometers: sqrt(depth/π).
// Non-positive and NaN depths return 0.
func Radius(depth float64) float64 {
	if !(depth > 0) {
		return 0
	}
	return math.Sqrt(depth / math.Pi)
}

// Color returns the marker fill color for a magnitude.
func Color(magnitude float64) string {
	for _, s := range colorScale {
		if magnitude > s.min {
			return s.color
		}
	}
	return baseColor
}

// Stylist computes marker styles. Location controls the popup time zone.
type Stylist struct {
	Location *time.Location
}

// NewStylist returns a Stylist rendering times in loc (UTC when nil).
func NewStylist(loc *time.Location) Stylist {
	if loc == nil {
		loc = time.UTC
	}
	return Stylist{Location: loc}
}

// Style computes the full marker style for one feature.
func (s Stylist) Style(f EarthquakeFeature) StyledMarker {
	return StyledMarker{
		Radius:    Radius(f.Depth),
		Color:     Color(f.Magnitude),
		PopupHTML: s.PopupHTML(f),
	}
}

// PopupHTML renders the popup body for a feature. The place is HTML-escaped.
func (s Stylist) PopupHTML(f EarthquakeFeature) string {
	place := f.Place
	if place == "" {
		place = UnknownPlace
	}
	return fmt.Sprintf("<h3>%s</h3><hr><p>Magnitude: %s</p><p>%s</p>",
		html.EscapeString(place), FormatMagnitude(f.Magnitude), html.EscapeString(s.formatTime(f.Time)))
}

func (s Stylist) formatTime(t time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(PopupTimeLayout)
}

// FormatMagnitude prints a magnitude in its shortest decimal form (5.2, not 5.200000).
func FormatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
