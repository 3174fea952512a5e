package display

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	on  = color.Gray{Y: 0xFF}
	off = color.Gray{Y: 0x00}
)

// Renderer draws into a monochrome frame buffer
type Renderer struct {
	img  *image.Gray
	face font.Face
}

// NewRenderer creates a blank width x height frame buffer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		img:  image.NewGray(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
}

func (r *Renderer) Width() int  { return r.img.Bounds().Dx() }
func (r *Renderer) Height() int { return r.img.Bounds().Dy() }

// LineHeight is the font's line advance in pixels
func (r *Renderer) LineHeight() int { return r.face.Metrics().Height.Ceil() }

// Ascent is the distance from a line's top to its baseline
func (r *Renderer) Ascent() int { return r.face.Metrics().Ascent.Ceil() }

// Clear turns every pixel off
func (r *Renderer) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(off), image.Point{}, draw.Src)
}

// DrawText draws text with its baseline at y. Pixels past the right edge
// are dropped.
func (r *Renderer) DrawText(x, y int, text string) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(on),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// DrawTextFit draws as much of text as fits in maxWidth, ending with "~"
// when truncated
func (r *Renderer) DrawTextFit(x, y, maxWidth int, text string) {
	r.DrawText(x, y, r.fit(text, maxWidth))
}

func (r *Renderer) fit(text string, maxWidth int) string {
	if font.MeasureString(r.face, text).Ceil() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		s := string(runes[:n]) + "~"
		if font.MeasureString(r.face, s).Ceil() <= maxWidth {
			return s
		}
	}
	return ""
}

// DrawTextWrapped draws text word-wrapped to maxWidth and returns the
// height used
func (r *Renderer) DrawTextWrapped(x, y, maxWidth int, text string) int {
	lineHeight := r.LineHeight()
	cy := y
	line := ""

	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && font.MeasureString(r.face, candidate).Ceil() > maxWidth {
			r.DrawText(x, cy, line)
			cy += lineHeight
			line = word
			continue
		}
		line = candidate
	}

	if line != "" {
		r.DrawText(x, cy, line)
		cy += lineHeight
	}
	return cy - y
}

// DrawRect draws a one pixel outline
func (r *Renderer) DrawRect(x, y, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.FillRect(x, y, width, 1)
	r.FillRect(x, y+height-1, width, 1)
	r.FillRect(x, y, 1, height)
	r.FillRect(x+width-1, y, 1, height)
}

// FillRect turns on every pixel of the rectangle, clipped to the buffer
func (r *Renderer) FillRect(x, y, width, height int) {
	rect := image.Rect(x, y, x+width, y+height).Intersect(r.img.Bounds())
	draw.Draw(r.img, rect, image.NewUniform(on), image.Point{}, draw.Src)
}

// SetPixel sets a single pixel
func (r *Renderer) SetPixel(x, y int, lit bool) {
	if lit {
		r.img.SetGray(x, y, on)
	} else {
		r.img.SetGray(x, y, off)
	}
}

// Pack returns the frame buffer as 1-bit row-major data, MSB first
func (r *Renderer) Pack() []byte {
	return r.PackRegion(0, 0, r.Width(), r.Height())
}

// PackRegion packs a sub-rectangle the same way as Pack
func (r *Renderer) PackRegion(x, y, width, height int) []byte {
	bytesPerRow := (width + 7) / 8
	data := make([]byte, bytesPerRow*height)

	for dy := 0; dy < height; dy++ {
		row := data[dy*bytesPerRow:]
		for dx := 0; dx < width; dx++ {
			if r.img.GrayAt(x+dx, y+dy).Y > 0x7F {
				row[dx/8] |= 0x80 >> (dx % 8)
			}
		}
	}
	return data
}
