// Package chart renders analysis results as PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/spectrum"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	Width  = 8 * vg.Inch
	Height = 6 * vg.Inch
)

var ErrNoData = errors.New("no data to plot")

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, xys plotter.XYs, i int, name string) error {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("creating line %s: %w", name, err)
	}
	line.Color = plotutil.Color(i)
	p.Add(line)
	if name != "" {
		p.Legend.Add(name, line)
	}
	return nil
}

func writePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("rendering plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteBode draws magnitude over phase against a log frequency axis.
func WriteBode(w io.Writer, points []analysis.BodePoint, title string) error {
	if len(points) == 0 {
		return ErrNoData
	}

	mag := newPlot(title, "Frequency (Hz)", "Magnitude (dB)")
	phase := newPlot("", "Frequency (Hz)", "Phase (deg)")
	magXYs := make(plotter.XYs, len(points))
	phaseXYs := make(plotter.XYs, len(points))
	for i, pt := range points {
		magXYs[i] = plotter.XY{X: pt.Frequency, Y: pt.MagnitudeDb}
		phaseXYs[i] = plotter.XY{X: pt.Frequency, Y: pt.PhaseDegrees}
	}
	if err := addLine(mag, magXYs, 0, ""); err != nil {
		return err
	}
	if err := addLine(phase, phaseXYs, 1, ""); err != nil {
		return err
	}

	for _, p := range []*plot.Plot{mag, phase} {
		if points[0].Frequency > 0 {
			p.X.Scale = plot.LogScale{}
			p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		}
	}

	img := vgimg.New(Width, Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{{mag}, {phase}}, tiles, dc)
	mag.Draw(canvases[0][0])
	phase.Draw(canvases[1][0])

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

// WriteTransient draws node voltages over time. With no nodes given every
// non-ground node is drawn.
func WriteTransient(w io.Writer, points []analysis.TransientPoint, nodes []int, title string) error {
	if len(points) == 0 {
		return ErrNoData
	}
	if len(nodes) == 0 {
		for n := range points[0].NodeVoltages {
			if n != 0 {
				nodes = append(nodes, n)
			}
		}
		sort.Ints(nodes)
	}

	p := newPlot(title, "Time (s)", "Voltage (V)")
	for i, node := range nodes {
		series := analysis.NodeSeries(points, node)
		xys := make(plotter.XYs, len(points))
		for k, pt := range points {
			xys[k] = plotter.XY{X: pt.Time, Y: series[k]}
		}
		if err := addLine(p, xys, i, fmt.Sprintf("V(%d)", node)); err != nil {
			return err
		}
	}
	return writePNG(w, p)
}

// WriteSpectrum draws the magnitude spectrum in dB.
func WriteSpectrum(w io.Writer, bins []spectrum.Bin, title string) error {
	if len(bins) == 0 {
		return ErrNoData
	}

	p := newPlot(title, "Frequency (Hz)", "Magnitude (dB)")
	xys := make(plotter.XYs, len(bins))
	for i, b := range bins {
		xys[i] = plotter.XY{X: b.Frequency, Y: b.MagnitudeDb}
	}
	if err := addLine(p, xys, 0, ""); err != nil {
		return err
	}
	return writePNG(w, p)
}
