package mapbox

import (
	"net/url"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

const stylesURL = "https://api.mapbox.com/styles/v1/mapbox/"

const (
	osmAttribution  = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	topoAttribution = `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, ` +
		`<a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> ` +
		`(<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`
	mapboxAttribution = `&copy; <a href="https://www.mapbox.com/about/maps/">Mapbox</a> ` + osmAttribution
)

// BaseLayers returns the four base tile layers in control order. The Mapbox
// styles embed token in their URL; with an empty token they are still listed
// and individual tile requests fail in the browser.
func BaseLayers(token string) []domain.BaseLayer {
	return []domain.BaseLayer{
		{
			Name:        domain.BaseStreet,
			URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: osmAttribution,
			MaxZoom:     19,
		},
		{
			Name:        domain.BaseTopo,
			URLTemplate: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
			Attribution: topoAttribution,
			MaxZoom:     17,
		},
		styleLayer(domain.BaseDark, "dark-v11", token),
		styleLayer(domain.BaseSatellite, "satellite-streets-v12", token),
	}
}

func styleLayer(name, style, token string) domain.BaseLayer {
	return domain.BaseLayer{
		Name:          name,
		URLTemplate:   stylesURL + style + "/tiles/{z}/{x}/{y}?access_token=" + url.QueryEscape(token),
		Attribution:   mapboxAttribution,
		MaxZoom:       18,
		TileSize:      512,
		ZoomOffset:    -1,
		RequiresToken: true,
	}
}
