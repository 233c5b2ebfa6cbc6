package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/moontrade/hgncd/store"
)

// Options controls the rendered image.
type Options struct {
	Title    string
	XLabel   string
	YLabel   string
	Width    vg.Length // default 8in
	Height   vg.Length // default 6in
	BarWidth vg.Length // default 24pt
	Color    color.Color
}

// LightBlue is the default bar color.
var LightBlue = color.RGBA{R: 173, G: 216, B: 230, A: 255}

func (o *Options) def() {
	if o.Title == "" {
		o.Title = "Number of registered genes per locus group"
	}
	if o.XLabel == "" {
		o.XLabel = "locus group"
	}
	if o.YLabel == "" {
		o.YLabel = "count"
	}
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 6 * vg.Inch
	}
	if o.BarWidth == 0 {
		o.BarWidth = vg.Points(24)
	}
	if o.Color == nil {
		o.Color = LightBlue
	}
}

// Render draws one bar per category and returns PNG bytes.
func Render(t *Tally, opts Options) ([]byte, error) {
	if t == nil || len(t.Counts) == 0 {
		return nil, store.ErrEmpty
	}
	opts.def()

	values := make(plotter.Values, len(t.Counts))
	labels := make([]string, len(t.Counts))
	for i, c := range t.Counts {
		values[i] = float64(c.Count)
		labels[i] = c.Category
		if labels[i] == "" {
			labels[i] = "(none)"
		}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, opts.BarWidth)
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	bars.Color = opts.Color
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	w, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return buf.Bytes(), nil
}
