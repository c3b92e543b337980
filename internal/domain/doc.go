// Package domain models the earthquake map: feed features, marker styling,
// the legend, and the base/overlay layer selection.
//
// # Data Source
//
// Earthquakes come from the USGS real-time summary feeds, e.g.
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson.
// Each feed is a GeoJSON FeatureCollection (RFC 7946) of Point features.
// Tectonic plate boundaries come from the PB2002 dataset republished as
// GeoJSON by fraxen/tectonicplates and are rendered without styling.
//
// # USGS Feed Conventions
//
// Coordinates:
//
//	[longitude, latitude, depth]  →  e.g. [-117.59, 35.76, 7.4]
//	Depth is in kilometers below sea level. Shallow events near the surface
//	can report small negative depths.
//
// Properties used by the map:
//
//	place  "10km NE of Ridgecrest, CA" (may be null for some networks)
//	mag    magnitude as a decimal, may be null for unreviewed events
//	time   origin time in epoch milliseconds (UTC)
//
// A feature with no Point geometry, fewer than three coordinates, or a null
// magnitude cannot be styled and is skipped; the rest of the feed is kept.
// See [ParseEarthquake].
//
// # Marker Styling
//
// Radius grows with the square root of depth so that marker area scales with
// depth: radius = sqrt(depth / π). Non-positive depths collapse to radius 0.
//
// Color is a step function over magnitude with exclusive lower bounds,
// evaluated highest threshold first:
//
//	> 9  #156431   > 6  #31C7C7   > 3  #6ADBFA
//	> 8  #1B7D4E   > 5  #42BCF6   > 2  #94F1FD
//	> 7  #2AAF9A   > 4  #56CCF8   > 1  #A9F9FE
//	otherwise #D4FFFD
//
// The legend is derived from the same table and never from the live feed.
//
// # Popup Timestamps
//
// Popups render the origin time in the configured display time zone using
// [PopupTimeLayout]. The resulting text depends on that configuration and
// must not be treated as a fixed format by consumers.
package domain
