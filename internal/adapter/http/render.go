package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/domain"
)

//go:embed web/index.html.tmpl
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html.tmpl"))

const pageTitle = "Earthquakes and Tectonic Plates"

// LayerSource tells the page where to load one overlay from.
type LayerSource struct {
	URL     string `json:"url"`
	Overlay string `json:"overlay"`
}

// Sources are the overlay data locations embedded in the page.
type Sources struct {
	Earthquakes LayerSource `json:"earthquakes"`
	Plates      LayerSource `json:"plates"`
}

// NewSources points both overlays at the given URLs.
func NewSources(earthquakesURL, platesURL string) Sources {
	return Sources{
		Earthquakes: LayerSource{URL: earthquakesURL, Overlay: domain.OverlayQuakes},
		Plates:      LayerSource{URL: platesURL, Overlay: domain.OverlayPlates},
	}
}

type pageData struct {
	Title   string
	Config  composer.MapConfig
	Sources Sources
}

// RenderPage writes the map shell. The page loads each overlay on its own, so
// either source can fail without affecting the other.
func RenderPage(w io.Writer, cfg composer.MapConfig, sources Sources) error {
	if err := pageTemplate.Execute(w, pageData{Title: pageTitle, Config: cfg, Sources: sources}); err != nil {
		return fmt.Errorf("render map page: %w", err)
	}
	return nil
}
