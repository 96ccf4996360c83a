// Package plot renders report charts to image files. Filenames derive from
// chart titles so the same report always lands in the same file.
package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
)

// Module provides the chart renderer to Fx.
var Module = fx.Provide(NewRenderer)

// unsafe holds the title characters that are unsafe in filenames.
var unsafe = map[rune]struct{}{
	',': {},
	'!': {},
	'?': {},
	' ': {},
	':': {},
}

// TitleToFilename derives a filename from a chart title: every run of
// unsafe characters collapses to a single underscore and the format is
// appended as the extension.
func TitleToFilename(title, format string) string {
	var b strings.Builder
	b.Grow(len(title))
	inRun := false
	for _, r := range title {
		if _, ok := unsafe[r]; ok {
			if !inRun {
				b.WriteRune('_')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String() + "." + format
}

// Renderer writes bar charts into the configured plots directory.
type Renderer struct {
	dir    string
	format string
	width  int
	height int
	logger *zap.Logger
}

// NewRenderer builds a Renderer from the plots configuration.
func NewRenderer(cfg config.Config, logger *zap.Logger) *Renderer {
	return &Renderer{
		dir:    cfg.Plots.Dir,
		format: cfg.Plots.Format,
		width:  cfg.Plots.Width,
		height: cfg.Plots.Height,
		logger: logger,
	}
}

// Bar is one labeled column of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// SaveBarChart renders a titled bar chart and returns the written path.
func (r *Renderer) SaveBarChart(title string, bars []Bar) (string, error) {
	if len(bars) == 0 {
		return "", fmt.Errorf("chart %q has no data", title)
	}

	values := make([]chart.Value, len(bars))
	for i, b := range bars {
		values[i] = chart.Value{Label: b.Label, Value: b.Value}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    r.width,
		Height:   r.height,
		BarWidth: 48,
		Bars:     values,
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create plots dir: %w", err)
	}

	path := filepath.Join(r.dir, TitleToFilename(title, r.format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(r.provider(), f); err != nil {
		return "", fmt.Errorf("render %q: %w", title, err)
	}

	r.logger.Info("chart saved", zap.String("title", title), zap.String("path", path))
	return path, nil
}

func (r *Renderer) provider() chart.RendererProvider {
	if r.format == "svg" {
		return chart.SVG
	}
	return chart.PNG
}
