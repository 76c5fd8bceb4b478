package clockgen

import "github.com/pkg/errors"

// Model is a cycle-accurate model of one distributor instance. Each Step is one
// rising edge of the physical clock; every register updates from the values it
// held before the edge, as the generated processes do.
type Model struct {
	high, low int
	counter   int
	derived   []bool
	buf       [2]bool
	out       [4]bool
}

// NewModel returns a model in its power-up state: every register cleared.
// phase is the shift register length, at least 1.
func NewModel(high, low, phase int) (*Model, error) {
	if high < 1 || low < 1 || phase < 1 {
		return nil, errors.Errorf("invalid divider high=%d low=%d phase=%d", high, low, phase)
	}
	return &Model{high: high, low: low, derived: make([]bool, phase)}, nil
}

// Tap is the delayed derived clock, before the output pipeline.
func (m *Model) Tap() bool { return m.derived[len(m.derived)-1] }

// Bus returns the registered bus bits 0 through 3. Bit 4 is the physical clock
// itself and is not modelled.
func (m *Model) Bus() [4]bool { return m.out }

// Step advances one physical clock cycle. tick is the global enable pulse for
// this cycle.
func (m *Model) Step(tick bool) [4]bool {
	isZero := m.counter == 0
	next := m.counter - 1
	if isZero {
		if m.derived[0] {
			next = m.low - 1
		} else {
			next = m.high - 1
		}
	}
	tap := m.Tap()

	m.out = [4]bool{m.buf[0], m.buf[1], !m.buf[0] && tap, m.buf[0] && !tap}
	m.buf = [2]bool{tap, !tap}
	if tick {
		copy(m.derived[1:], m.derived[:len(m.derived)-1])
		m.derived[0] = m.derived[0] != isZero
		m.counter = next
	}
	return m.out
}
