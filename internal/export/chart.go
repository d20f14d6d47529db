package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette holds the colors of a rendered distribution chart. Levels
// colors the bar of each proficiency level, level 1 first.
type ChartPalette struct {
	Background drawing.Color
	Levels     [rubric.LevelCount]drawing.Color
	Text       drawing.Color
}

// DefaultPalette shades levels 1-3 red and levels 4-6 green.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorWhite,
	Levels: [rubric.LevelCount]drawing.Color{
		drawing.ColorFromHex("b91c1c"),
		drawing.ColorFromHex("ef4444"),
		drawing.ColorFromHex("f87171"),
		drawing.ColorFromHex("4ade80"),
		drawing.ColorFromHex("22c55e"),
		drawing.ColorFromHex("16a34a"),
	},
	Text: drawing.ColorFromHex("333333"),
}

// BarColor returns the color of level l, the first level's for an
// invalid l.
func (p ChartPalette) BarColor(l rubric.Level) drawing.Color {
	if !l.Valid() {
		return p.Levels[0]
	}
	return p.Levels[int(l)-1]
}

// DistributionChart renders h as a PNG bar chart with one bar per level.
// An empty histogram renders a "No data" placeholder.
func DistributionChart(title string, h aggregate.Histogram, palette ChartPalette) ([]byte, error) {
	if h.Total() == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, 0, rubric.LevelCount)
	for _, l := range rubric.Levels() {
		color := palette.BarColor(l)
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(int(l)),
			Value: float64(h.Count(l)),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      640,
		Height:     360,
		BarWidth:   60,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(h.Max())},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderChart, err)
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No data"
	)

	graph := chart.BarChart{
		Width:      width,
		Height:     height,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis:      chart.Style{Hidden: true},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: []chart.Value{{Label: " ", Value: 0}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderChart, err)
	}
	return buffer.Bytes(), nil
}
