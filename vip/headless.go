package vip

import "io"

// Headless is a Frontend without a display. It runs for a fixed number of
// frames and then writes the final display to out as text.
type Headless struct {
	frames int
	out    io.Writer

	last Frame
}

// NewHeadless returns a Headless frontend that stops after the given
// number of frames.
func NewHeadless(frames int, out io.Writer) *Headless {
	return &Headless{frames: frames, out: out}
}

// Run implements Frontend.
func (h *Headless) Run(host Host, done <-chan struct{}) error {
loop:
	for n := 0; n < h.frames; n++ {
		select {
		case f := <-host.Frames():
			h.last = f
			if f.Halt != nil {
				break loop
			}
		case <-done:
			// Pick up the frame published as the machine halted.
			select {
			case f := <-host.Frames():
				h.last = f
			default:
			}
			break loop
		}
	}
	_, err := io.WriteString(h.out, h.last.Display.String())
	return err
}

// Last returns the last frame received.
func (h *Headless) Last() Frame { return h.last }
