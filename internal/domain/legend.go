package domain

import (
	"fmt"
	"html"
	"strings"
)

// LegendItem is one row of the magnitude legend.
type LegendItem struct {
	LowerBound float64 `json:"lower_bound"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
}

// Legend is static content built from the color scale.
type Legend struct {
	Title      string       `json:"title"`
	MinCaption string       `json:"min_caption"`
	MaxCaption string       `json:"max_caption"`
	Items      []LegendItem `json:"items"`
}

// NewLegend builds the legend in color-scale order, highest magnitude first,
// ending with the catch-all bin.
func NewLegend() Legend {
	items := make([]LegendItem, 0, len(colorScale)+1)
	upper := 0.0
	for i, s := range colorScale {
		label := fmt.Sprintf("%g+", s.min)
		if i > 0 {
			label = fmt.Sprintf("%g-%g", s.min, upper)
		}
		items = append(items, LegendItem{LowerBound: s.min, Label: label, Color: s.color})
		upper = s.min
	}
	items = append(items, LegendItem{LowerBound: 0, Label: fmt.Sprintf("<%g", upper), Color: baseColor})

	return Legend{
		Title:      "Earthquake Magnitude",
		MinCaption: items[len(items)-1].Label,
		MaxCaption: items[0].Label,
		Items:      items,
	}
}

// Colors returns the item colors in display order.
func (l Legend) Colors() []string {
	colors := make([]string, len(l.Items))
	for i, it := range l.Items {
		colors[i] = it.Color
	}
	return colors
}

// HTML renders the legend control body: a title, min/max captions, and one
// <li> per item.
func (l Legend) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="legend-body">`)
	fmt.Fprintf(&b, `<h4>%s</h4>`, html.EscapeString(l.Title))
	fmt.Fprintf(&b, `<div class="labels"><div class="min">%s</div><div class="max">%s</div></div>`,
		html.EscapeString(l.MinCaption), html.EscapeString(l.MaxCaption))
	b.WriteString("<ul>")
	for _, it := range l.Items {
		fmt.Fprintf(&b, `<li><span class="swatch" style="background-color: %s"></span>%s</li>`,
			html.EscapeString(it.Color), html.EscapeString(it.Label))
	}
	b.WriteString("</ul></div>")
	return b.String()
}
