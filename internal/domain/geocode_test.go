package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestEnrichPlace_KeepsExistingPlace(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Elsewhere"}}
	f := EarthquakeFeature{ID: "us1", Place: "5km S of Volcano, Hawaii"}

	got := EnrichPlace(context.Background(), f, geo, discardLogger())

	assert.Equal(t, "5km S of Volcano, Hawaii", got.Place)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichPlace_NilGeocoder(t *testing.T) {
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "us1"}, nil, discardLogger())
	assert.Equal(t, UnknownPlace, got.Place)
}

func TestEnrichPlace_Reverse(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		FormattedAddress: "Ridgecrest, California, United States",
		PlaceName:        "Ridgecrest",
		Confidence:       0.9,
	}}
	f := EarthquakeFeature{ID: "ci1", Lat: 35.76, Lon: -117.59}

	got := EnrichPlace(context.Background(), f, geo, discardLogger())

	assert.Equal(t, "Ridgecrest", got.Place)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichPlace_FormattedAddressFallback(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{FormattedAddress: "Pacific Ocean", Confidence: 1}}
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "x"}, geo, discardLogger())
	assert.Equal(t, "Pacific Ocean", got.Place)
}

func TestEnrichPlace_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "x"}, geo, discardLogger())
	assert.Equal(t, UnknownPlace, got.Place)
}

func TestEnrichPlace_Error(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("api timeout")}
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "x", Lat: 1, Lon: 2}, geo, discardLogger())
	assert.Equal(t, UnknownPlace, got.Place)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichPlace_LowConfidence(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Somewhere", Confidence: 0.2}}
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "x"}, geo, discardLogger())
	assert.Equal(t, UnknownPlace, got.Place)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichPlace_ConfidenceAtThreshold(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Somewhere", Confidence: MinPlaceConfidence}}
	got := EnrichPlace(context.Background(), EarthquakeFeature{ID: "x"}, geo, discardLogger())
	assert.Equal(t, "Somewhere", got.Place)
}
