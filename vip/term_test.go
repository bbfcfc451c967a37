package vip

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/retroenv/retrogolib/assert"

	"github.com/nf/ch8/chip8"
)

type fakeHost struct {
	frames chan Frame
	keys   []keyEvent
}

func (h *fakeHost) Frames() <-chan Frame { return h.frames }

func (h *fakeHost) SetKey(k byte, down bool) { h.keys = append(h.keys, keyEvent{k, down}) }

func TestTerminalDraw(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	assert.NoError(t, s.Init())
	defer s.Fini()
	s.SetSize(80, 40)

	cfg := DefaultConfig()
	term := NewTerminal(cfg)
	var d chip8.Framebuffer
	d[0] = 1 << 63 // (0, 0)
	d[3] = 1 << 62 // (1, 3)
	term.update(Frame{Display: d})

	x, y, w, h := term.drawScreen(s, 0, 0, chip8.Width+2, chip8.Height/2+2)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)
	assert.Equal(t, chip8.Width, w)
	assert.Equal(t, chip8.Height/2, h)

	on, off := tcellColor(cfg.Foreground), tcellColor(cfg.Background)
	for _, c := range []struct {
		col, row int
		top, bot tcell.Color
	}{
		{0, 0, on, off},
		{1, 0, off, off},
		{1, 1, off, on},
		{63, 15, off, off},
	} {
		r, _, style, _ := s.GetContent(x+c.col, y+c.row)
		fg, bg, _ := style.Decompose()
		assert.Equal(t, '▀', r)
		assert.Equal(t, c.top, fg)
		assert.Equal(t, c.bot, bg)
	}
}

func TestTerminalKeyHold(t *testing.T) {
	var h fakeHost
	term := NewTerminal(DefaultConfig())
	now := time.Now()

	term.press(&h, 0x5, now)
	term.press(&h, 0x5, now.Add(100*time.Millisecond))
	term.release(&h, now.Add(200*time.Millisecond))
	assert.Equal(t, []keyEvent{{0x5, true}}, h.keys)

	term.release(&h, now.Add(300*time.Millisecond))
	assert.Equal(t, []keyEvent{{0x5, true}, {0x5, false}}, h.keys)

	term.release(&h, now.Add(time.Second))
	assert.Equal(t, 2, len(h.keys))
}

func TestTerminalBeep(t *testing.T) {
	term := NewTerminal(DefaultConfig())
	term.update(Frame{Sound: true})
	assert.True(t, term.beep)
	term.beep = false
	term.update(Frame{Sound: true})
	assert.False(t, term.beep)
	term.update(Frame{})
	term.update(Frame{Sound: true})
	assert.True(t, term.beep)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, " pc 0202  running", statusText(Frame{PC: 0x202}))
	assert.Equal(t, " pc 0300  waiting for key", statusText(Frame{PC: 0x300, Waiting: true}))
	assert.Equal(t, " pc 0204  boom", statusText(Frame{PC: 0x204, Waiting: true, Halt: errors.New("boom")}))
}

func TestTerminalLogWriter(t *testing.T) {
	term := NewTerminal(DefaultConfig())
	_, err := term.LogWriter().Write([]byte("hello\n"))
	assert.NoError(t, err)
	assert.True(t, strings.Contains(term.log.GetText(true), "hello"))
}

func TestTerminalQuit(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminal(DefaultConfig())
	term.app.SetScreen(s)
	term.app.QueueEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))

	h := &fakeHost{frames: make(chan Frame)}
	errc := make(chan error, 1)
	go func() { errc <- term.Run(h, make(chan struct{})) }()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after escape")
	}

	// Once Run has returned, the frame goroutine takes at most the frame
	// it was already selecting on, then exits.
	var taken int
	for i := 0; i < 3; i++ {
		select {
		case h.frames <- Frame{PC: 0x200}:
			taken++
		case <-time.After(100 * time.Millisecond):
		}
	}
	assert.True(t, taken <= 1)
}
