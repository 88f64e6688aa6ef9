// Package chart draws the pitfall profile as a horizontal bar chart.
package chart

import (
	"bytes"
	"fmt"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	Width  = 960
	Height = 520

	AxisMin = 1.0
	AxisMax = 5.0

	Title  = "Profil Kecenderungan Pitfalls"
	XLabel = "Rata-rata Skor (1-5)"

	padding    = 16
	titleSize  = 14.0
	labelSize  = 10.0
	barFill    = 0.6 // share of each row occupied by the bar
	tickLength = 4
)

var (
	barColor  = drawing.ColorFromHex("87ceeb") // skyblue
	gridColor = drawing.ColorFromHex("dddddd")
	axisColor = drawing.ColorFromHex("333333")
)

// Render draws one bar per label with the matching score. The x-axis is
// fixed to [1,5]; scores outside it are clipped, not rescaled.
func Render(labels []string, scores []float64) ([]byte, error) {
	if len(labels) != len(scores) {
		return nil, fmt.Errorf("chart: %d labels but %d scores", len(labels), len(scores))
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("chart: nothing to draw")
	}

	r, err := gochart.PNG(Width, Height)
	if err != nil {
		return nil, fmt.Errorf("chart: create renderer: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("chart: load font: %w", err)
	}
	r.SetFont(font)
	r.SetFontColor(axisColor)

	fillRect(r, 0, 0, Width, Height, drawing.ColorWhite)

	// Plot area: labels on the left, title on top, axis caption at the bottom.
	r.SetFontSize(labelSize)
	labelWidth := 0
	for _, l := range labels {
		if w := r.MeasureText(l).Width(); w > labelWidth {
			labelWidth = w
		}
	}
	r.SetFontSize(titleSize)
	titleBox := r.MeasureText(Title)

	left := padding + labelWidth + padding
	right := Width - padding*2
	top := padding + titleBox.Height() + padding
	bottom := Height - padding*4

	r.Text(Title, (Width-titleBox.Width())/2, padding+titleBox.Height())

	xFor := func(v float64) int {
		if v < AxisMin {
			v = AxisMin
		}
		if v > AxisMax {
			v = AxisMax
		}
		return left + int((v-AxisMin)/(AxisMax-AxisMin)*float64(right-left))
	}

	// Grid and ticks.
	r.SetFontSize(labelSize)
	for t := AxisMin; t <= AxisMax; t++ {
		x := xFor(t)
		line(r, x, top, x, bottom, gridColor, 1)
		line(r, x, bottom, x, bottom+tickLength, axisColor, 1)
		tick := strconv.FormatFloat(t, 'f', 0, 64)
		tb := r.MeasureText(tick)
		r.Text(tick, x-tb.Width()/2, bottom+tickLength+tb.Height()+2)
	}

	// Bars, first label at the bottom like a conventional barh plot.
	rowHeight := float64(bottom-top) / float64(len(labels))
	for i, label := range labels {
		rowBottom := bottom - int(rowHeight*float64(i))
		center := rowBottom - int(rowHeight/2)
		half := int(rowHeight * barFill / 2)

		if x := xFor(scores[i]); x > left {
			fillRect(r, left, center-half, x, center+half, barColor)
		}

		lb := r.MeasureText(label)
		r.SetFontColor(axisColor)
		r.Text(label, left-padding/2-lb.Width(), center+lb.Height()/2)
	}

	// Axes on top of the bars.
	line(r, left, top, left, bottom, axisColor, 1)
	line(r, left, bottom, right, bottom, axisColor, 1)

	xb := r.MeasureText(XLabel)
	r.Text(XLabel, left+(right-left-xb.Width())/2, Height-padding)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fillRect(r gochart.Renderer, x0, y0, x1, y1 int, c drawing.Color) {
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.SetStrokeWidth(0)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
	r.Fill()
}

func line(r gochart.Renderer, x0, y0, x1, y1 int, c drawing.Color, width float64) {
	r.SetStrokeColor(c)
	r.SetStrokeWidth(width)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}
