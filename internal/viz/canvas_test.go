package viz

import (
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasSetIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(8, 0)
	c.Set(0, 8)
	blank := strings.Repeat(string(rune(0x2800)), 4) + "\n"
	assert.Equal(t, blank+blank, c.String())

	c.Set(3, 5)
	assert.True(t, c.Lit(3, 5))
	assert.False(t, c.Lit(2, 5))
	c.Clear()
	assert.False(t, c.Lit(3, 5))
}

func TestDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(10, 10, 4)
	for _, p := range [][2]int{{14, 10}, {6, 10}, {10, 14}, {10, 6}} {
		assert.True(t, c.Lit(p[0], p[1]), "point %v", p)
	}
	assert.False(t, c.Lit(10, 10))

	c.Clear()
	c.DrawCircle(5, 5, 0)
	assert.True(t, c.Lit(5, 5))
}

func TestDrawEllipseStaysInBox(t *testing.T) {
	c := NewCanvas(30, 8)
	c.DrawEllipse(20, 12, 16, 8)
	assert.True(t, c.Lit(36, 12))
	assert.True(t, c.Lit(4, 12))
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if c.Lit(x, y) {
				require.True(t, x >= 4 && x <= 36 && y >= 4 && y <= 20, "dot (%d,%d) outside the ellipse box", x, y)
			}
		}
	}
}

func TestViewport(t *testing.T) {
	c := NewCanvas(10, 5)
	vp := Fit(c, 9, 9)

	x, y := vp.Point(0, 0)
	assert.Equal(t, [2]int{10, 10}, [2]int{x, y})
	x, y = vp.Point(9, 0)
	assert.Equal(t, [2]int{19, 10}, [2]int{x, y})
	x, y = vp.Point(0, 9)
	assert.Equal(t, [2]int{10, 1}, [2]int{x, y}, "y grows upwards")
	assert.InDelta(t, 2.0, vp.Length(2), 1e-12)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	path := filepath.Join(t.TempDir(), "out.gif")
	assert.ErrorIs(t, r.Save(path), ErrNoFrames)

	c := NewCanvas(2, 1)
	c.Set(0, 0)
	r.Capture(c)
	require.Equal(t, 1, r.Len())
	require.NoError(t, r.Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 1)
	img := anim.Image[0]
	assert.Equal(t, uint8(1), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(1), img.ColorIndexAt(3, 3))
	assert.Equal(t, uint8(0), img.ColorIndexAt(4, 0))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██░░]", ProgressBar(0.5, 4))
	assert.Equal(t, "[░░░░]", ProgressBar(-1, 4))
	assert.Equal(t, "[████]", ProgressBar(3, 4))
}

func TestNextThemeWraps(t *testing.T) {
	assert.Equal(t, Themes[1].Name, NextTheme(Themes[0]).Name)
	assert.Equal(t, Themes[0].Name, NextTheme(Themes[len(Themes)-1]).Name)
	assert.Equal(t, Themes[0].Name, GetTheme("nope").Name)
	assert.Len(t, ThemeNames(), len(Themes))
}
