package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

type chartLine struct {
	name   string
	values []int
}

func (series *Series) lines() []chartLine {
	return []chartLine{
		{"Enter", series.Enter},
		{"Exit", series.Exit},
		{"Inside", series.Inside},
		{"Outside", series.Outside},
	}
}

func (series *Series) title() string {
	return fmt.Sprintf("Tracking Data for %s", series.Date)
}

// SaveChart renders series into file. Format is chosen by extension: .html for interactive chart, anything gonum/plot supports otherwise
func SaveChart(series *Series, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".html") {
		file, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "can't create '%s'", path)
		}
		if err := WriteHTML(series, file); err != nil {
			file.Close()
			return err
		}
		return errors.Wrapf(file.Close(), "can't close '%s'", path)
	}
	p, err := newPlot(series)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(14*vg.Inch, 6*vg.Inch, path), "can't save chart '%s'", path)
}

// WritePNG renders series as PNG image
func WritePNG(series *Series, w io.Writer) error {
	p, err := newPlot(series)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "can't create canvas")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "can't write PNG")
}

func newPlot(series *Series) (*plot.Plot, error) {
	if series.Len() == 0 {
		return nil, errors.New("series is empty")
	}
	p := plot.New()
	p.Title.Text = series.title()
	p.X.Label.Text = "Time (6AM - 8PM)"
	p.Y.Label.Text = "Number of Tracks"
	p.Y.Min = 0
	for i, line := range series.lines() {
		pts := make(plotter.XYs, len(line.values))
		for j, v := range line.values {
			pts[j] = plotter.XY{X: float64(j), Y: float64(v)}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "can't create line '%s'", line.name)
		}
		l.Width = vg.Points(1.5)
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(line.name, l)
	}
	p.NominalX(series.Labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteHTML renders series as interactive go-echarts page
func WriteHTML(series *Series, w io.Writer) error {
	if series.Len() == 0 {
		return errors.New("series is empty")
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: series.title(), Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: series.title()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Tracks"}),
	)
	line.SetXAxis(series.Labels)
	for _, l := range series.lines() {
		data := make([]opts.LineData, len(l.values))
		for i, v := range l.values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(l.name, data)
	}
	return errors.Wrap(line.Render(w), "can't render chart")
}
