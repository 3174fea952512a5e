package input

import (
	"fmt"

	"github.com/benbjohnson/clock"
)

// MaxBankSize is the number of levels a button mask can address
const MaxBankSize = 16

// Bank is a fixed set of levels addressed by button index, fed from device
// reports that carry every button's state at once.
type Bank struct {
	levels []*Level
}

// NewBank creates size levels, all low
func NewBank(clk clock.Clock, size int) (*Bank, error) {
	if size <= 0 || size > MaxBankSize {
		return nil, fmt.Errorf("bank size %d out of range 1..%d", size, MaxBankSize)
	}
	b := &Bank{levels: make([]*Level, size)}
	for i := range b.levels {
		b.levels[i] = NewLevel(clk, false)
	}
	return b, nil
}

// Len returns the number of levels
func (b *Bank) Len() int { return len(b.levels) }

// Level returns the level at index, or nil if out of range
func (b *Bank) Level(index int) *Level {
	if index < 0 || index >= len(b.levels) {
		return nil
	}
	return b.levels[index]
}

// Set sets one level; out of range indices are ignored
func (b *Bank) Set(index int, high bool) {
	if l := b.Level(index); l != nil {
		l.Set(high)
	}
}

// Toggle inverts one level; out of range indices are ignored
func (b *Bank) Toggle(index int) {
	if l := b.Level(index); l != nil {
		l.Toggle()
	}
}

// ApplyMask sets level i high when bit i of mask is set and low otherwise
func (b *Bank) ApplyMask(mask uint16) {
	for i, l := range b.levels {
		l.Set(mask&(1<<i) != 0)
	}
}

// Mask returns the current levels as a bitmask
func (b *Bank) Mask() uint16 {
	var mask uint16
	for i, l := range b.levels {
		if l.Read() {
			mask |= 1 << i
		}
	}
	return mask
}
