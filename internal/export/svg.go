package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

var ErrNoData = errors.New("export: nothing to draw")

// Line is one trace of a chart.
type Line struct {
	Name   string
	Values []float64
	Color  string
}

// DefaultColors are used for lines without a Color, in order.
var DefaultColors = []string{"#00ffff", "#ffcc00", "#00ff88", "#ff4488", "#8888ff"}

const margin = 40

// SeriesSVG draws lines against a shared time axis as a standalone SVG
// document, with a zero line and a legend.
func SeriesSVG(w io.Writer, times []float64, lines []Line, width, height int) error {
	if len(times) < 2 || len(lines) == 0 {
		return ErrNoData
	}
	for _, l := range lines {
		if len(l.Values) != len(times) {
			return fmt.Errorf("export: line %s has %d values for %d times", l.Name, len(l.Values), len(times))
		}
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for _, v := range l.Values {
			minY, maxY = min(minY, v), max(maxY, v)
		}
	}

	spansZero := minY < 0 && maxY > 0

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	plotW := float64(width - 2*margin)
	plotH := float64(height - 2*margin)
	px := func(x float64) float64 { return margin + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return margin + plotH - (y-minY)/rangeY*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<rect x="%d" y="%d" width="%.0f" height="%.0f" fill="none" stroke="#444466"/>
`, width, height, width, height, margin, margin, plotW, plotH)

	if spansZero {
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#444466" stroke-dasharray="4 4"/>
`, margin, py(0), margin+plotW, py(0))
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#888888" font-size="11">%.3g</text>
<text x="%d" y="%.0f" fill="#888888" font-size="11">%.3g</text>
<text x="%.0f" y="%d" fill="#888888" font-size="11" text-anchor="end">%.3gs</text>
`, 2, margin+4, maxY, 2, margin+plotH, minY, margin+plotW, height-margin/2, maxX)

	for i, l := range lines {
		color := l.Color
		if color == "" {
			color = DefaultColors[i%len(DefaultColors)]
		}

		sb.WriteString(`<path fill="none" stroke="` + color + `" stroke-width="1.5" d="M`)
		for j, v := range l.Values {
			if j > 0 {
				sb.WriteString(" L")
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", px(times[j]), py(v))
		}
		sb.WriteString("\"/>\n")

		fmt.Fprintf(&sb, `<text x="%.0f" y="%d" fill="%s" font-size="12">%s</text>
`, margin+float64(i)*90, margin-10, color, l.Name)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
