// Package chip8 provides an implementation of a CHIP-8 interpreter, called
// Machine, that executes CHIP-8 programs one instruction at a time.
//
// The Machine holds all CPU-visible state and nothing else. Pacing, timer
// clocks, rendering and keyboard handling are the job of the caller, which
// drives the Machine through Step and Tick.
package chip8

import (
	"errors"
	"fmt"
)

// Memory layout.
const (
	MemSize        = 0x1000
	FontAddr       = 0x000
	ProgramStart   = 0x200
	MaxProgramSize = MemSize - ProgramStart
)

// FlagReg is the index of VF, the register written by carry, borrow, shift
// and collision flags.
const FlagReg = 0xf

// Machine is an implementation of a CHIP-8 CPU.
type Machine struct {
	Mem   [MemSize]byte
	V     [16]byte
	I     uint16
	PC    uint16
	Stack Stack

	Delay byte
	Sound byte

	Display Framebuffer

	// Keys reports the state of the hex keypad. A nil Keys behaves as a
	// keypad with no key pressed.
	Keys Keypad

	// Rand provides the bytes used by Cxkk. If nil, Cxkk reads zero.
	Rand Random

	wait keyWait
}

// New returns a CHIP-8 CPU with the font loaded and PC at ProgramStart.
func New() *Machine {
	m := &Machine{PC: ProgramStart}
	copy(m.Mem[FontAddr:], font[:])
	return m
}

// ErrProgramTooLarge is returned by Load if the program does not fit in the
// memory above ProgramStart.
var ErrProgramTooLarge = errors.New("program too large")

// Load copies rom into memory starting at ProgramStart.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrProgramTooLarge, len(rom), MaxProgramSize)
	}
	copy(m.Mem[ProgramStart:], rom)
	return nil
}

// Tick decrements the delay and sound timers if they are non-zero.
// It is meant to be called by a 60 Hz clock that is independent of the rate
// at which instructions are executed.
func (m *Machine) Tick() {
	if m.Delay > 0 {
		m.Delay--
	}
	if m.Sound > 0 {
		m.Sound--
	}
}

// SoundOn reports whether the buzzer should be sounding.
func (m *Machine) SoundOn() bool { return m.Sound > 0 }

// Framebuffer returns a copy of the display.
func (m *Machine) Framebuffer() Framebuffer { return m.Display }

// Waiting reports whether the machine is suspended on Fx0A.
func (m *Machine) Waiting() bool { return m.wait.active }

func (m *Machine) keyPressed(k byte) bool {
	if m.Keys == nil {
		return false
	}
	return m.Keys.KeyPressed(k & 0xf)
}

// span returns n bytes of memory starting at addr, or halts with
// MemoryBounds if any of them lie outside memory.
func (m *Machine) span(addr uint16, n int) []byte {
	if n == 0 {
		return nil
	}
	if int(addr)+n > MemSize {
		panic(MemoryBounds)
	}
	return m.Mem[addr : int(addr)+n]
}
