package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	charW = 8
	charH = 16
)

var ErrNoFrames = errors.New("viz: nothing recorded")

// Recorder rasterises canvases into GIF frames, one braille dot per
// (charW/2) x (charH/4) block.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if !c.Lit(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Save writes the recorded frames as a looping animation.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 3)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
