// Package export renders stored frames as standalone SVG files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/packing"
)

// palette colours bodies in turn so neighbouring chains stay apart.
var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800"}

// FrameToSVG draws the boundary and every sub-sphere of f at its unit
// radius. The image is width pixels wide; world y points up.
func FrameToSVG(f packing.Frame, shape *assembly.Shape, width int) string {
	n := f.Bodies()
	if n == 0 || shape == nil || f.A <= 0 || f.B <= 0 {
		return ""
	}
	tr := assembly.NewTransformer(shape, n)
	pos := tr.Lift(f.Q, nil)
	k := len(pos) / 2

	margin := 1.5
	vw, vh := 2*(f.A+margin), 2*(f.B+margin)
	height := int(math.Round(float64(width) * vh / vw))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%.4f %.4f %.4f %.4f">
<rect x="%.4f" y="%.4f" width="100%%" height="100%%" fill="#0a0a0a"/>
<ellipse cx="0" cy="0" rx="%.4f" ry="%.4f" fill="none" stroke="#888888" stroke-width="0.15"/>
`, width, height, -vw/2, -vh/2, vw, vh, -vw/2, -vh/2, f.A, f.B))

	for s := 0; s < shape.Len(); s++ {
		for b := 0; b < n; b++ {
			i := s*n + b
			sb.WriteString(fmt.Sprintf(`<circle cx="%.4f" cy="%.4f" r="1" fill="%s" fill-opacity="0.6"/>
`, pos[i], -pos[k+i], palette[b%len(palette)]))
		}
	}
	sb.WriteString(fmt.Sprintf(`<text x="%.4f" y="%.4f" font-size="%.2f" fill="#cccccc">frame %d  R=%.4f  E=%.3e</text>
`, -vw/2+0.5, -vh/2+1.5, 1.2, f.Index, f.ScalarRadius, f.Energy))
	sb.WriteString("</svg>")
	return sb.String()
}

// CurveToSVG plots values as a polyline, on a log10 axis when logY is set
// (non-positive values are dropped there).
func CurveToSVG(values []float64, width, height int, strokeColor string, logY bool) string {
	type point struct{ X, Y float64 }
	points := make([]point, 0, len(values))
	for i, v := range values {
		if logY {
			if v <= 0 {
				continue
			}
			v = math.Log10(v)
		}
		points = append(points, point{float64(i), v})
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
