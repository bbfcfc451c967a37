package chip8

// NumKeys is the number of keys on the hex keypad.
const NumKeys = 16

// Keypad reports whether a key of the hex keypad is held down.
// k is always in the range 0x0-0xf.
type Keypad interface {
	KeyPressed(k byte) bool
}

// KeyState is a Keypad backed by a vector of key states.
type KeyState [NumKeys]bool

// KeyPressed implements Keypad.
func (s *KeyState) KeyPressed(k byte) bool { return s[k&0xf] }

// keyWait tracks a pending Fx0A.
type keyWait struct {
	active bool
	reg    byte
	prev   KeyState
}

func (m *Machine) snapshotKeys() (s KeyState) {
	for k := range s {
		s[k] = m.keyPressed(byte(k))
	}
	return s
}

// beginWait suspends the machine until a key transitions to pressed.
func (m *Machine) beginWait(reg byte) {
	m.wait = keyWait{active: true, reg: reg, prev: m.snapshotKeys()}
}

// pollWait completes a pending wait if a key went down since the last poll.
func (m *Machine) pollWait() Outcome {
	now := m.snapshotKeys()
	for k := range now {
		if now[k] && !m.wait.prev[k] {
			m.V[m.wait.reg] = byte(k)
			m.wait = keyWait{}
			return Completed
		}
	}
	m.wait.prev = now
	return WaitingForKey
}
