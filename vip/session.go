package vip

import (
	"fmt"

	"github.com/nf/ch8/chip8"
)

// Frame is a snapshot of the machine, published to a frontend once per
// timer tick.
type Frame struct {
	Display chip8.Framebuffer
	Sound   bool
	Waiting bool
	PC      uint16

	// Halt is the error that stopped the machine, if any.
	Halt error
}

// Session is a machine together with its keypad and buzzer.
// It is not safe for concurrent use.
type Session struct {
	m      *chip8.Machine
	keys   chip8.KeyState
	buzzer Buzzer
}

// NewSession returns a Session with rom loaded.
func NewSession(rom []byte, cfg Config) (*Session, error) {
	s := &Session{m: chip8.New()}
	if err := s.m.Load(rom); err != nil {
		return nil, fmt.Errorf("loading rom: %w", err)
	}
	s.m.Keys = &s.keys
	s.m.Rand = chip8.NewRandom(cfg.Seed)
	return s, nil
}

// SetBuzzer sets the sink for the sound timer. A nil Buzzer is silent.
func (s *Session) SetBuzzer(b Buzzer) { s.buzzer = b }

// Step executes up to n instructions and returns the number that completed.
// It returns early if the machine is waiting for a key.
func (s *Session) Step(n int) (int, error) {
	for i := 0; i < n; i++ {
		out, err := s.m.Step()
		if err != nil {
			return i, err
		}
		if out == chip8.WaitingForKey {
			return i, nil
		}
	}
	return n, nil
}

// Tick advances the timers by one 60 Hz period and drives the buzzer with
// the sound state for that period.
func (s *Session) Tick() {
	on := s.m.SoundOn()
	s.m.Tick()
	if s.buzzer != nil {
		s.buzzer.Buzz(on)
	}
}

// SetKey sets the state of hex key k.
func (s *Session) SetKey(k byte, down bool) { s.keys[k&0xf] = down }

// Frame returns a snapshot of the machine.
func (s *Session) Frame() Frame {
	return Frame{
		Display: s.m.Framebuffer(),
		Sound:   s.m.SoundOn(),
		Waiting: s.m.Waiting(),
		PC:      s.m.PC,
	}
}
