package chip8

import (
	"strings"
	"testing"
)

// newDrawMachine returns a machine with an 8x8 solid sprite at 0x300.
func newDrawMachine() *Machine {
	m := New()
	m.I = 0x300
	for i := 0; i < 8; i++ {
		m.Mem[0x300+i] = 0xff
	}
	return m
}

func TestDrawCollision(t *testing.T) {
	m := New()
	m.Load([]byte{0xd0, 0x15, 0xd0, 0x15}) // draw glyph 0 twice
	m.V[FlagReg] = 7
	if _, err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.V[FlagReg] != 0 {
		t.Errorf("VF = %d after drawing on a clear screen, want 0", m.V[FlagReg])
	}
	if !m.Display.Pixel(0, 0) || m.Display.Pixel(4, 0) {
		t.Errorf("glyph 0 not drawn:\n%s", m.Display.String())
	}
	if _, err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.V[FlagReg] != 1 {
		t.Errorf("VF = %d after erasing, want 1", m.V[FlagReg])
	}
	if m.Display != (Framebuffer{}) {
		t.Errorf("drawing twice did not erase:\n%s", m.Display.String())
	}
}

func TestDrawClip(t *testing.T) {
	m := newDrawMachine()
	m.V[0], m.V[1] = 60, 30
	m.draw(0, 1, 8)
	var lit int
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if m.Display.Pixel(x, y) {
				lit++
				if x < 60 || y < 30 {
					t.Errorf("pixel (%d, %d) lit", x, y)
				}
			}
		}
	}
	if lit != 4*2 {
		t.Errorf("%d pixels lit, want 8", lit)
	}
}

func TestDrawWrapOrigin(t *testing.T) {
	for _, c := range []struct {
		vx, vy byte
		x, y   int
	}{
		{64, 32, 0, 0},
		{67, 33, 3, 1},
		{0xff, 0xff, 63, 31},
	} {
		m := New()
		m.I = 0x300
		m.Mem[0x300] = 0x80
		m.V[0], m.V[1] = c.vx, c.vy
		m.draw(0, 1, 1)
		if !m.Display.Pixel(c.x, c.y) {
			t.Errorf("V0=%d V1=%d: pixel (%d, %d) not lit", c.vx, c.vy, c.x, c.y)
		}
	}
}

func TestDrawZeroRows(t *testing.T) {
	m := newDrawMachine()
	m.Display[0] = 1
	m.V[FlagReg] = 1
	m.draw(0, 0, 0)
	if m.V[FlagReg] != 0 {
		t.Errorf("VF = %d after empty draw, want 0", m.V[FlagReg])
	}
	if m.Display != (Framebuffer{0: 1}) {
		t.Errorf("empty draw changed the display")
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.Load([]byte{0x00, 0xe0})
	for y := range m.Display {
		m.Display[y] = ^uint64(0)
	}
	if _, err := m.Step(); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if m.Display.Pixel(x, y) {
				t.Fatalf("pixel (%d, %d) lit after clear", x, y)
			}
		}
	}
}

func TestFramebufferSnapshot(t *testing.T) {
	m := newDrawMachine()
	f := m.Framebuffer()
	m.draw(0, 0, 8)
	if f.Pixel(0, 0) {
		t.Errorf("snapshot changed after draw")
	}
	if f := m.Framebuffer(); !f.Pixel(7, 7) || f.Pixel(8, 8) {
		t.Errorf("new snapshot is wrong:\n%s", f.String())
	}
}

func TestFramebufferPixelBounds(t *testing.T) {
	var f Framebuffer
	for y := range f {
		f[y] = ^uint64(0)
	}
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {Width, 0}, {0, Height}} {
		if f.Pixel(p[0], p[1]) {
			t.Errorf("Pixel(%d, %d) is on", p[0], p[1])
		}
	}
}

func TestFramebufferString(t *testing.T) {
	var f Framebuffer
	f[0] = pixelMask(0) | pixelMask(63)
	lines := strings.Split(f.String(), "\n")
	if len(lines) != Height+1 {
		t.Fatalf("String has %d lines, want %d", len(lines), Height+1)
	}
	if want := "#" + strings.Repeat(".", 62) + "#"; lines[0] != want {
		t.Errorf("row 0 is %q, want %q", lines[0], want)
	}
	if want := strings.Repeat(".", 64); lines[1] != want {
		t.Errorf("row 1 is %q, want %q", lines[1], want)
	}
}
