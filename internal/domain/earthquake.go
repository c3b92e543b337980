package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	ErrNotFeatureCollection = errors.New("document is not a GeoJSON FeatureCollection")
	ErrNotPoint             = errors.New("feature geometry is not a point")
	ErrMissingDepth         = errors.New("feature has no depth coordinate")
	ErrMissingMagnitude     = errors.New("feature has no magnitude")
)

// EarthquakeFeed mirrors the USGS summary feed document.
type EarthquakeFeed struct {
	Type     string          `json:"type"`
	Metadata FeedMetadata    `json:"metadata"`
	Features []RawEarthquake `json:"features"`
}

// FeedMetadata is the USGS feed header.
type FeedMetadata struct {
	Generated int64  `json:"generated"` // epoch millis
	URL       string `json:"url"`
	Title     string `json:"title"`
	Count     int    `json:"count"`
}

// RawEarthquake is one undecoded element of the feed's feature array.
// Nullable properties are pointers so missing values can be told apart from zero.
type RawEarthquake struct {
	Type       string                  `json:"type"`
	ID         string                  `json:"id"`
	Properties RawEarthquakeProperties `json:"properties"`
	Geometry   *RawGeometry            `json:"geometry"`
}

type RawEarthquakeProperties struct {
	Place *string  `json:"place"`
	Mag   *float64 `json:"mag"`
	Time  *int64   `json:"time"`
}

// RawGeometry keeps coordinates raw so a non-point geometry fails only its own feature.
type RawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// EarthquakeFeature is a parsed, well-formed earthquake.
type EarthquakeFeature struct {
	ID        string    `json:"id"`
	Place     string    `json:"place"`
	Magnitude float64   `json:"mag"`
	Time      time.Time `json:"time"`
	Depth     float64   `json:"depth"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
}

// StyledMarker is the derived view of one EarthquakeFeature.
type StyledMarker struct {
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
	PopupHTML string  `json:"popup"`
}

// Marker pairs a feature with its style; the earthquake layer is a slice of these.
type Marker struct {
	Feature EarthquakeFeature `json:"feature"`
	Style   StyledMarker      `json:"style"`
}

// DecodeEarthquakeFeed unmarshals a feed document. Individual features are
// not validated here; see ParseEarthquake.
func DecodeEarthquakeFeed(data []byte) (EarthquakeFeed, error) {
	var feed EarthquakeFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return EarthquakeFeed{}, fmt.Errorf("decode earthquake feed: %w", err)
	}
	if feed.Type != "FeatureCollection" {
		return EarthquakeFeed{}, fmt.Errorf("decode earthquake feed: %w (type %q)", ErrNotFeatureCollection, feed.Type)
	}
	return feed, nil
}

// ParseEarthquake validates one raw feature and converts it to an EarthquakeFeature.
// Errors wrap ErrNotPoint, ErrMissingDepth, or ErrMissingMagnitude.
func ParseEarthquake(raw RawEarthquake) (EarthquakeFeature, error) {
	if raw.Geometry == nil || raw.Geometry.Type != "Point" {
		return EarthquakeFeature{}, fmt.Errorf("feature %q: %w", raw.ID, ErrNotPoint)
	}

	var coords []float64
	if err := json.Unmarshal(raw.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
		return EarthquakeFeature{}, fmt.Errorf("feature %q: %w", raw.ID, ErrNotPoint)
	}
	if len(coords) < 3 {
		return EarthquakeFeature{}, fmt.Errorf("feature %q: %w", raw.ID, ErrMissingDepth)
	}
	if raw.Properties.Mag == nil {
		return EarthquakeFeature{}, fmt.Errorf("feature %q: %w", raw.ID, ErrMissingMagnitude)
	}

	f := EarthquakeFeature{
		ID:        raw.ID,
		Magnitude: *raw.Properties.Mag,
		Lon:       coords[0],
		Lat:       coords[1],
		Depth:     coords[2],
	}
	if raw.Properties.Place != nil {
		f.Place = strings.TrimSpace(*raw.Properties.Place)
	}
	if raw.Properties.Time != nil {
		f.Time = time.UnixMilli(*raw.Properties.Time).UTC()
	}
	if f.ID == "" {
		f.ID = fallbackID(f)
	}
	return f, nil
}

// SkipReason maps a ParseEarthquake error to a short metric label.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrNotPoint):
		return "not_point"
	case errors.Is(err, ErrMissingDepth):
		return "missing_depth"
	case errors.Is(err, ErrMissingMagnitude):
		return "missing_magnitude"
	default:
		return "other"
	}
}

// fallbackID derives a stable name-based UUID for features the feed left
// without an id, so repeated loads of the same event keep the same key.
func fallbackID(f EarthquakeFeature) string {
	name := fmt.Sprintf("%.4f|%.4f|%.2f|%d|%g", f.Lon, f.Lat, f.Depth, f.Time.UnixMilli(), f.Magnitude)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
