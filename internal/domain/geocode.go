package domain

import (
	"context"
	"log/slog"
)

// MinPlaceConfidence is the lowest provider confidence accepted as a place name.
const MinPlaceConfidence = 0.5

// EnrichPlace fills in a missing place name. Features that already carry a
// place are returned unchanged. If geocoder is nil, fails, finds nothing, or
// answers below MinPlaceConfidence, the place becomes UnknownPlace.
func EnrichPlace(ctx context.Context, f EarthquakeFeature, geocoder Geocoder, logger *slog.Logger) EarthquakeFeature {
	if f.Place != "" {
		return f
	}
	if geocoder == nil {
		f.Place = UnknownPlace
		return f
	}

	result, err := geocoder.ReverseGeocode(ctx, f.Lat, f.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"feature_id", f.ID,
			"lat", f.Lat,
			"lon", f.Lon,
			"error", err,
		)
		f.Place = UnknownPlace
		return f
	}

	switch {
	case result.Confidence < MinPlaceConfidence:
		logger.Debug("reverse geocode below confidence threshold",
			"feature_id", f.ID,
			"confidence", result.Confidence,
		)
		f.Place = UnknownPlace
	case result.PlaceName != "":
		f.Place = result.PlaceName
	case result.FormattedAddress != "":
		f.Place = result.FormattedAddress
	default:
		f.Place = UnknownPlace
	}
	return f
}
