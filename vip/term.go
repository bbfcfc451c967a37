package vip

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/ch8/chip8"
)

// keyHold is how long a key stays down after a key press in the terminal,
// which reports presses but not releases.
const keyHold = 150 * time.Millisecond

// Terminal is a Frontend that draws the display in a terminal using half
// block characters, with a status line and a log pane below it.
type Terminal struct {
	fg, bg tcell.Color

	app    *tview.Application
	screen *tview.Box
	status *tview.TextView
	log    *tview.TextView
	rows   *tview.Flex

	// The following are only accessed from the tview event goroutine.
	frame    Frame
	sounding bool
	beep     bool
	held     [chip8.NumKeys]time.Time
}

// NewTerminal returns a terminal frontend in cfg's colours.
func NewTerminal(cfg Config) *Terminal {
	t := &Terminal{
		fg:     tcellColor(cfg.Foreground),
		bg:     tcellColor(cfg.Background),
		app:    tview.NewApplication(),
		screen: tview.NewBox(),
		status: tview.NewTextView().
			SetWrap(false),
		log: tview.NewTextView().
			SetMaxLines(1000),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
	}
	t.log.SetChangedFunc(func() { t.app.Draw() })
	t.status.SetBackgroundColor(tcell.ColorDarkGrey)
	t.screen.SetBorder(true).SetTitle(" ch8 ")
	t.screen.SetDrawFunc(t.drawScreen)
	t.rows.
		AddItem(t.screen, chip8.Height/2+2, 0, false).
		AddItem(t.status, 1, 0, false).
		AddItem(t.log, 0, 1, false)
	t.app.SetRoot(t.rows, true)
	return t
}

// LogWriter returns a writer that appends to the log pane.
func (t *Terminal) LogWriter() io.Writer { return t.log }

// Run implements Frontend. Escape or Ctrl-C quits.
func (t *Terminal) Run(h Host, done <-chan struct{}) error {
	t.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			t.app.Stop()
			return nil
		case tcell.KeyRune:
			if k, ok := KeyForRune(ev.Rune()); ok {
				t.press(h, k, time.Now())
				return nil
			}
		}
		return ev
	})
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			select {
			case f := <-h.Frames():
				// A stopped application never runs queued updates,
				// so don't wait on one after Run has returned.
				updated := make(chan struct{})
				go func() {
					t.app.QueueUpdateDraw(func() {
						t.release(h, time.Now())
						t.update(f)
					})
					close(updated)
				}()
				select {
				case <-updated:
				case <-quit:
					return
				}
			case <-done:
				t.app.Stop()
				return
			case <-quit:
				return
			}
		}
	}()
	return t.app.Run()
}

func (t *Terminal) press(h Host, k byte, now time.Time) {
	if t.held[k].IsZero() {
		h.SetKey(k, true)
	}
	t.held[k] = now.Add(keyHold)
}

func (t *Terminal) release(h Host, now time.Time) {
	for k, until := range t.held {
		if !until.IsZero() && now.After(until) {
			h.SetKey(byte(k), false)
			t.held[k] = time.Time{}
		}
	}
}

func (t *Terminal) update(f Frame) {
	t.frame = f
	if f.Sound && !t.sounding {
		t.beep = true
	}
	t.sounding = f.Sound
	t.status.SetText(statusText(f))
	switch {
	case f.Halt != nil:
		t.status.SetBackgroundColor(tcell.ColorDarkRed)
	case f.Waiting:
		t.status.SetBackgroundColor(tcell.ColorDarkBlue)
	default:
		t.status.SetBackgroundColor(tcell.ColorDarkGrey)
	}
}

func statusText(f Frame) string {
	state := "running"
	switch {
	case f.Halt != nil:
		state = f.Halt.Error()
	case f.Waiting:
		state = "waiting for key"
	}
	return fmt.Sprintf(" pc %.4x  %s", f.PC, state)
}

// drawScreen draws two rows of pixels per terminal row inside the border
// of the box at (x, y, w, h).
func (t *Terminal) drawScreen(s tcell.Screen, x, y, w, h int) (int, int, int, int) {
	x, y, w, h = x+1, y+1, w-2, h-2
	if t.beep {
		s.Beep()
		t.beep = false
	}
	d := &t.frame.Display
	for row := 0; row < chip8.Height/2 && row < h; row++ {
		for col := 0; col < chip8.Width && col < w; col++ {
			style := tcell.StyleDefault.
				Foreground(t.pixelColor(d.Pixel(col, 2*row))).
				Background(t.pixelColor(d.Pixel(col, 2*row+1)))
			s.SetContent(x+col, y+row, '▀', nil, style)
		}
	}
	return x, y, w, h
}

func (t *Terminal) pixelColor(on bool) tcell.Color {
	if on {
		return t.fg
	}
	return t.bg
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
