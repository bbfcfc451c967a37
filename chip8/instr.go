package chip8

import "fmt"

// Instr represents a 16-bit CHIP-8 instruction word.
type Instr uint16

// Class returns the opcode class, bits 15-12.
func (i Instr) Class() byte { return byte(i >> 12) }

// X returns the first register index, bits 11-8.
func (i Instr) X() byte { return byte(i>>8) & 0xf }

// Y returns the second register index, bits 7-4.
func (i Instr) Y() byte { return byte(i>>4) & 0xf }

// N returns the low nibble, bits 3-0.
func (i Instr) N() byte { return byte(i) & 0xf }

// NN returns the low byte, bits 7-0.
func (i Instr) NN() byte { return byte(i) }

// NNN returns the address field, bits 11-0.
func (i Instr) NNN() uint16 { return uint16(i) & 0x0fff }

func (i Instr) String() string { return fmt.Sprintf("%.4x", uint16(i)) }

// Fields holds every field of a decoded instruction. All fields are
// populated whether or not the instruction is implemented.
type Fields struct {
	Class, X, Y, N, NN byte
	NNN                uint16
}

// Decode extracts the fields of the instruction word w.
func Decode(w uint16) Fields {
	i := Instr(w)
	return Fields{
		Class: i.Class(),
		X:     i.X(),
		Y:     i.Y(),
		N:     i.N(),
		NN:    i.NN(),
		NNN:   i.NNN(),
	}
}
