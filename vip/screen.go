package vip

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/nf/ch8/chip8"
)

// renderFrame draws the display onto a 64x32 paletted image whose pixel
// values index pal: 0 for off, 1 for on.
func renderFrame(d *chip8.Framebuffer, pal color.Palette) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, chip8.Width, chip8.Height), pal)
	for y := 0; y < chip8.Height; y++ {
		row := m.Pix[y*m.Stride:]
		for x := 0; x < chip8.Width; x++ {
			if d.Pixel(x, y) {
				row[x] = 1
			}
		}
	}
	return m
}

// scaleFrame renders the display onto dst, scaled with square pixels to
// fill dst's bounds.
func scaleFrame(dst draw.Image, d *chip8.Framebuffer, pal color.Palette) {
	src := renderFrame(d, pal)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// Image returns the display of f scaled by cfg.Scale in cfg's colours.
func Image(f Frame, cfg Config) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, chip8.Width*cfg.Scale, chip8.Height*cfg.Scale))
	scaleFrame(m, &f.Display, cfg.palette())
	return m
}

// WritePNG writes the display of f to a PNG file at path.
func WritePNG(path string, f Frame, cfg Config) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, Image(f, cfg)); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return out.Close()
}
