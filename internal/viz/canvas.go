package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels; dots outside are ignored.
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws a circle outline with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y := r, 0
	err := 1 - r
	for x >= y {
		c.Set(cx+x, cy+y)
		c.Set(cx+y, cy+x)
		c.Set(cx-y, cy+x)
		c.Set(cx-x, cy+y)
		c.Set(cx-x, cy-y)
		c.Set(cx-y, cy-x)
		c.Set(cx+y, cy-x)
		c.Set(cx+x, cy-y)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// DrawEllipse draws an axis-aligned ellipse outline with half-axes rx, ry,
// joining samples along the perimeter with line segments.
func (c *Canvas) DrawEllipse(cx, cy int, rx, ry float64) {
	n := int(2*math.Pi*math.Max(rx, ry)/2) + 8
	px, py := cx+int(math.Round(rx)), cy
	for i := 1; i <= n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		x := cx + int(math.Round(rx*math.Cos(t)))
		y := cy + int(math.Round(ry*math.Sin(t)))
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// Viewport maps world coordinates onto canvas sub-pixels, keeping the aspect
// ratio and putting the origin in the middle. Braille dots are close to
// square on screen, so one scale serves both axes.
type Viewport struct {
	cx, cy float64
	scale  float64
}

// Fit returns a viewport showing the box [-halfA, halfA] x [-halfB, halfB]
// on a canvas.
func Fit(c *Canvas, halfA, halfB float64) Viewport {
	w, h := float64(c.Width*2), float64(c.Height*4)
	scale := math.Min((w-2)/(2*halfA), (h-2)/(2*halfB))
	if halfA <= 0 || halfB <= 0 || scale <= 0 {
		scale = 1
	}
	return Viewport{cx: w / 2, cy: h / 2, scale: scale}
}

// Point returns the sub-pixel for world point (x, y); y grows upwards.
func (v Viewport) Point(x, y float64) (int, int) {
	return int(math.Round(v.cx + x*v.scale)), int(math.Round(v.cy - y*v.scale))
}

// Length scales a world distance to sub-pixels.
func (v Viewport) Length(d float64) float64 { return d * v.scale }

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
