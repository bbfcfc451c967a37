package vip

import (
	"fmt"
	"image"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/draw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/ch8/chip8"
)

// GUI is a Frontend that shows the display in a window. Escape or closing
// the window quits.
type GUI struct {
	cfg  Config
	size image.Point

	buf   screen.Buffer
	tex   screen.Texture
	frame Frame
}

// NewGUI returns a window frontend using cfg's scale and colours.
func NewGUI(cfg Config) *GUI {
	return &GUI{
		cfg:  cfg,
		size: image.Pt(chip8.Width*cfg.Scale, chip8.Height*cfg.Scale),
	}
}

type frameEvent struct{ Frame }

type stopEvent struct{}

// Run implements Frontend. It must be called on the main goroutine.
func (g *GUI) Run(h Host, done <-chan struct{}) (err error) {
	driver.Main(func(s screen.Screen) {
		err = g.run(s, h, done)
	})
	return err
}

func (g *GUI) run(s screen.Screen, h Host, done <-chan struct{}) error {
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  "ch8",
		Width:  g.size.X,
		Height: g.size.Y,
	})
	if err != nil {
		return err
	}
	defer w.Release()

	if g.buf, err = s.NewBuffer(g.size); err != nil {
		return err
	}
	defer g.buf.Release()
	if g.tex, err = s.NewTexture(g.size); err != nil {
		return err
	}
	defer g.tex.Release()
	g.render()

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			select {
			case f := <-h.Frames():
				w.Send(frameEvent{f})
			case <-done:
				w.Send(stopEvent{})
				return
			case <-quit:
				return
			}
		}
	}()

	var sz size.Event
	for {
		switch e := w.NextEvent().(type) {
		case stopEvent:
			return nil

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case size.Event:
			sz = e
			if sz.WidthPx+sz.HeightPx == 0 {
				return nil
			}

		case paint.Event:
			g.paint(w, sz)

		case key.Event:
			if e.Code == key.CodeEscape {
				return nil
			}
			if e.Direction == key.DirNone {
				break // auto-repeat
			}
			if k, ok := KeyForCode(e.Code); ok {
				h.SetKey(k, e.Direction == key.DirPress)
			}

		case frameEvent:
			if e.Display == g.frame.Display {
				g.frame = e.Frame
				break
			}
			g.frame = e.Frame
			g.render()
			g.paint(w, sz)

		case error:
			return fmt.Errorf("window: %w", e)
		}
	}
}

// render draws the current frame into the texture.
func (g *GUI) render() {
	scaleFrame(g.buf.RGBA(), &g.frame.Display, g.cfg.palette())
	g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
}

func (g *GUI) paint(w screen.Window, sz size.Event) {
	if sz.WidthPx == 0 || sz.HeightPx == 0 {
		return
	}
	b := sz.Bounds()
	w.Fill(b, g.cfg.Background, draw.Src)
	w.Scale(fitRect(b), g.tex, g.tex.Bounds(), draw.Src, nil)
	w.Publish()
}

// fitRect returns the largest rectangle with the display's aspect ratio
// centred in b.
func fitRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w*chip8.Height > h*chip8.Width {
		w = h * chip8.Width / chip8.Height
	} else {
		h = w * chip8.Height / chip8.Width
	}
	p := b.Min.Add(image.Pt((b.Dx()-w)/2, (b.Dy()-h)/2))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(w, h))}
}
