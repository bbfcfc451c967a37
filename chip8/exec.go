package chip8

import "fmt"

// Outcome describes how a call to Step finished.
type Outcome byte

const (
	// Completed means an instruction was executed, or a pending key wait
	// was satisfied.
	Completed Outcome = iota

	// WaitingForKey means the machine is suspended on Fx0A. The caller
	// should call Step again after the keypad state changes.
	WaitingForKey
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case WaitingForKey:
		return "waiting for key"
	}
	return fmt.Sprintf("unknown outcome (%d)", byte(o))
}

// Step executes the instruction at m.PC. If the machine is waiting for a key
// it instead checks the keypad and does not fetch.
//
// Step is all-or-nothing: if it returns a HaltError then no state other than
// PC (advanced past the offending instruction by the fetch) has changed.
func (m *Machine) Step() (_ Outcome, err error) {
	if m.wait.active {
		return m.pollWait(), nil
	}

	var (
		pc  = m.PC
		in  Instr
		out = Completed
	)
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(HaltCode); ok {
				err = HaltError{
					HaltCode: code,
					Instr:    in,
					Addr:     pc,
				}
			} else {
				panic(e)
			}
		}
	}()

	in = m.fetch()
	m.exec(in)
	if m.wait.active {
		out = WaitingForKey
	}
	return out, nil
}

func (m *Machine) fetch() Instr {
	b := m.span(m.PC, 2)
	m.PC += 2
	return Instr(uint16(b[0])<<8 | uint16(b[1]))
}

type opFunc func(m *Machine, in Instr)

func (m *Machine) exec(in Instr) {
	classOps[in.Class()](m, in)
}

// classOps is indexed by the opcode class. Classes 0x0, 0x8, 0xE and 0xF
// select their operation from a second table.
var classOps = [16]opFunc{
	0x0: execSys,
	0x1: func(m *Machine, in Instr) { m.PC = in.NNN() },
	0x2: func(m *Machine, in Instr) {
		m.Stack.push(m.PC)
		m.PC = in.NNN()
	},
	0x3: func(m *Machine, in Instr) { m.skipIf(m.V[in.X()] == in.NN()) },
	0x4: func(m *Machine, in Instr) { m.skipIf(m.V[in.X()] != in.NN()) },
	0x5: func(m *Machine, in Instr) { m.skipIf(m.V[in.X()] == m.V[in.Y()]) },
	0x6: func(m *Machine, in Instr) { m.V[in.X()] = in.NN() },
	0x7: func(m *Machine, in Instr) { m.V[in.X()] += in.NN() },
	0x8: execALU,
	0x9: func(m *Machine, in Instr) { m.skipIf(m.V[in.X()] != m.V[in.Y()]) },
	0xa: func(m *Machine, in Instr) { m.I = in.NNN() },
	0xb: unimplemented,
	0xc: func(m *Machine, in Instr) {
		var r byte
		if m.Rand != nil {
			r = m.Rand.Byte()
		}
		m.V[in.X()] = r & in.NN()
	},
	0xd: func(m *Machine, in Instr) { m.draw(in.X(), in.Y(), in.N()) },
	0xe: execKey,
	0xf: execMisc,
}

func unimplemented(*Machine, Instr) { panic(Unimplemented) }

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC += 2
	}
}

func execSys(m *Machine, in Instr) {
	switch in {
	case 0x00e0:
		m.Display.Clear()
	case 0x00ee:
		m.PC = m.Stack.pop()
	default:
		panic(Unimplemented)
	}
}

func execALU(m *Machine, in Instr) {
	op := aluOps[in.N()]
	if op == nil {
		panic(Unimplemented)
	}
	x := in.X()
	v, flag, setFlag := op(m.V[x], m.V[in.Y()])
	m.V[x] = v
	if setFlag {
		m.V[FlagReg] = flag
	}
}

// aluOps is indexed by the low nibble of an 8xyN instruction. Each operation
// returns the new value of Vx and, if setFlag is true, the new value of VF.
// VF is written after Vx so that the flag survives when x is 0xF.
var aluOps = [16]func(vx, vy byte) (v, flag byte, setFlag bool){
	0x0: func(vx, vy byte) (byte, byte, bool) { return vy, 0, false },
	0x1: func(vx, vy byte) (byte, byte, bool) { return vx | vy, 0, false },
	0x2: func(vx, vy byte) (byte, byte, bool) { return vx & vy, 0, false },
	0x3: func(vx, vy byte) (byte, byte, bool) { return vx ^ vy, 0, false },
	0x4: func(vx, vy byte) (byte, byte, bool) {
		sum := uint16(vx) + uint16(vy)
		return byte(sum), boolByte(sum > 0xff), true
	},
	0x5: func(vx, vy byte) (byte, byte, bool) { return vx - vy, boolByte(vx > vy), true },
	0x6: func(vx, _ byte) (byte, byte, bool) { return vx >> 1, vx & 1, true },
	0x7: func(vx, vy byte) (byte, byte, bool) { return vy - vx, boolByte(vy > vx), true },
	0xe: func(vx, _ byte) (byte, byte, bool) { return vx << 1, vx >> 7, true },
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func execKey(m *Machine, in Instr) {
	switch in.NN() {
	case 0x9e:
		m.skipIf(m.keyPressed(m.V[in.X()]))
	case 0xa1:
		m.skipIf(!m.keyPressed(m.V[in.X()]))
	default:
		panic(Unimplemented)
	}
}

func execMisc(m *Machine, in Instr) {
	op, ok := miscOps[in.NN()]
	if !ok {
		panic(Unimplemented)
	}
	op(m, in)
}

// miscOps holds the Fx?? operations, keyed by the low byte.
var miscOps = map[byte]opFunc{
	0x07: func(m *Machine, in Instr) { m.V[in.X()] = m.Delay },
	0x0a: func(m *Machine, in Instr) { m.beginWait(in.X()) },
	0x15: func(m *Machine, in Instr) { m.Delay = m.V[in.X()] },
	0x18: func(m *Machine, in Instr) { m.Sound = m.V[in.X()] },
	0x1e: func(m *Machine, in Instr) { m.I += uint16(m.V[in.X()]) },
	0x29: func(m *Machine, in Instr) { m.I = FontAddr + uint16(m.V[in.X()])*GlyphSize },
	0x33: func(m *Machine, in Instr) {
		v := m.V[in.X()]
		b := m.span(m.I, 3)
		b[0], b[1], b[2] = v/100, v/10%10, v%10
	},
	0x55: func(m *Machine, in Instr) {
		x := int(in.X())
		copy(m.span(m.I, x+1), m.V[:x+1])
	},
	0x65: func(m *Machine, in Instr) {
		x := int(in.X())
		copy(m.V[:x+1], m.span(m.I, x+1))
	},
}

// HaltError is returned by Step if execution cannot continue.
type HaltError struct {
	HaltCode
	Instr Instr
	Addr  uint16
}

func (e HaltError) Error() string {
	if e.HaltCode == MemoryBounds && e.Instr == 0 {
		return fmt.Sprintf("%s fetching at %.4x", e.HaltCode, e.Addr)
	}
	return fmt.Sprintf("%s executing %s at %.4x", e.HaltCode, e.Instr, e.Addr)
}

// Unwrap returns the HaltCode, so that errors.Is(err, StackOverflow) and
// friends work on errors returned by Step.
func (e HaltError) Unwrap() error { return e.HaltCode }

// HaltCode signifies the type of condition that halted execution.
type HaltCode byte

const (
	MemoryBounds HaltCode = iota + 1
	StackOverflow
	StackUnderflow
	Unimplemented
)

func (c HaltCode) Error() string { return c.String() }

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		MemoryBounds:   "memory access out of bounds",
		StackOverflow:  "stack overflow",
		StackUnderflow: "stack underflow",
		Unimplemented:  "unimplemented opcode",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}
