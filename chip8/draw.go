package chip8

import "strings"

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Framebuffer is the 64x32 monochrome display. Each row is a uint64 whose
// most significant bit is the leftmost pixel.
type Framebuffer [Height]uint64

// Pixel reports whether the pixel at (x, y) is on. Coordinates outside the
// display are off.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f[y]&pixelMask(x) != 0
}

// Clear turns every pixel off.
func (f *Framebuffer) Clear() { *f = Framebuffer{} }

// String renders the framebuffer as text, one line per row.
func (f *Framebuffer) String() string {
	var b strings.Builder
	b.Grow(Height * (Width + 1))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func pixelMask(x int) uint64 { return 1 << (Width - 1 - x) }

// draw XORs the n-row sprite at I onto the display with its top-left corner
// at (Vx mod 64, Vy mod 32). Pixels that fall off the right or bottom edge
// are clipped. VF is set to 1 if any lit pixel was turned off.
func (m *Machine) draw(x, y, n byte) {
	var (
		sprite = m.span(m.I, int(n))
		cx     = int(m.V[x]) % Width
		cy     = int(m.V[y]) % Height
		flag   byte
	)
	for r, b := range sprite {
		py := cy + r
		if py >= Height {
			break
		}
		for c := 0; c < 8; c++ {
			px := cx + c
			if px >= Width {
				break
			}
			if b>>(7-c)&1 == 0 {
				continue
			}
			mask := pixelMask(px)
			if m.Display[py]&mask != 0 {
				flag = 1
			}
			m.Display[py] ^= mask
		}
	}
	m.V[FlagReg] = flag
}
