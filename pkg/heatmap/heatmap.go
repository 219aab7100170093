// Package heatmap renders a 3D deviation heatmap as a plotly-compatible
// figure. It is a pure function of the evaluation success payload (a
// point cloud plus its per-point deviations) and has no effect on
// grading; persistence and display belong to the caller.
package heatmap

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/chazu/calipers/pkg/sample"
)

// Marker styles the scatter points. Color carries the per-point
// deviation; the color axis is capped at the 95th percentile so a single
// outlier does not wash out the scale.
type Marker struct {
	Size       int       `json:"size"`
	Color      []float64 `json:"color"`
	Colorscale string    `json:"colorscale"`
	Reversed   bool      `json:"reversescale"`
	Opacity    float64   `json:"opacity"`
	CMin       float64   `json:"cmin"`
	CMax       float64   `json:"cmax"`
	ColorBar   ColorBar  `json:"colorbar"`
}

// ColorBar labels the color axis.
type ColorBar struct {
	Title string `json:"title"`
}

// Trace is a single scatter3d trace.
type Trace struct {
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Z      []float64 `json:"z"`
	Text   []string  `json:"text"`
	Marker Marker    `json:"marker"`
}

// Axis names one scene axis.
type Axis struct {
	Title string `json:"title"`
}

// Scene configures the 3D scene.
type Scene struct {
	XAxis  Axis   `json:"xaxis"`
	YAxis  Axis   `json:"yaxis"`
	ZAxis  Axis   `json:"zaxis"`
	Camera Camera `json:"camera"`
}

// Camera positions the viewpoint.
type Camera struct {
	Eye struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"eye"`
}

// Layout is the figure layout.
type Layout struct {
	Title  string `json:"title"`
	Scene  Scene  `json:"scene"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Figure is a complete plotly figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Build creates a deviation heatmap figure for a cloud. The deviations
// slice must be position-aligned with the cloud.
func Build(cloud sample.Cloud, deviations []float64, title string) (*Figure, error) {
	if len(cloud) != len(deviations) {
		return nil, fmt.Errorf("heatmap: %d points but %d deviations", len(cloud), len(deviations))
	}
	if len(cloud) == 0 {
		return nil, fmt.Errorf("heatmap: empty cloud")
	}

	xs := make([]float64, len(cloud))
	ys := make([]float64, len(cloud))
	zs := make([]float64, len(cloud))
	text := make([]string, len(cloud))
	for i, p := range cloud {
		xs[i] = float64(p[0])
		ys[i] = float64(p[1])
		zs[i] = float64(p[2])
		text[i] = fmt.Sprintf("Deviation: %.4f", deviations[i])
	}

	fig := &Figure{
		Data: []Trace{{
			Type: "scatter3d",
			Mode: "markers",
			X:    xs,
			Y:    ys,
			Z:    zs,
			Text: text,
			Marker: Marker{
				Size:       4,
				Color:      deviations,
				Colorscale: "RdYlGn",
				Reversed:   true,
				Opacity:    0.8,
				CMin:       0,
				CMax:       p95(deviations),
				ColorBar:   ColorBar{Title: "Deviation"},
			},
		}},
		Layout: Layout{
			Title: title,
			Scene: Scene{
				XAxis: Axis{Title: "X"},
				YAxis: Axis{Title: "Y"},
				ZAxis: Axis{Title: "Z"},
			},
			Width:  900,
			Height: 700,
		},
	}
	fig.Layout.Scene.Camera.Eye.X = 1.5
	fig.Layout.Scene.Camera.Eye.Y = 1.5
	fig.Layout.Scene.Camera.Eye.Z = 1.5
	return fig, nil
}

// WriteJSON writes the figure as JSON.
func (f *Figure) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(f)
}

// p95 is the 95th percentile with linear interpolation between ranks.
func p95(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	rank := 0.95 * float64(len(s)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(s) {
		return s[len(s)-1]
	}
	return s[lo]*(1-frac) + s[lo+1]*frac
}
