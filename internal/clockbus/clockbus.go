// Package clockbus defines the bit layout of the clock bus exposed by every
// clock distributor and consumed by every clocked component. The indices are
// shared by producers and consumers and must never be renumbered.
package clockbus

import "strconv"

const (
	// DerivedClock is the divided, phase-shifted clock.
	DerivedClock = 0
	// InvertedDerivedClock is the complement of DerivedClock.
	InvertedDerivedClock = 1
	// PositiveEdgeTick is high for one physical clock cycle after each rising
	// edge of the derived clock.
	PositiveEdgeTick = 2
	// NegativeEdgeTick is high for one physical clock cycle after each falling
	// edge of the derived clock.
	NegativeEdgeTick = 3
	// GlobalClock is the raw physical oscillator.
	GlobalClock = 4

	// Width is the number of bits in a clock bus.
	Width = 5
)

const (
	// TreePrefix names the bus signal of a clock source: TreePrefix + id.
	TreePrefix = "busClk"
	// FPGAClock is the physical oscillator net of the top level.
	FPGAClock = "fpgaGlobalClock"
	// FPGATick is the global per-cycle enable pulse of the top level.
	FPGATick = "s_fpgaTick"
)

// NetName is the name of the bus signal carrying clock source id.
func NetName(id int) string {
	return TreePrefix + strconv.Itoa(id)
}

// Names maps bus indices to short labels, in index order.
var Names = [Width]string{
	DerivedClock:         "derived clock",
	InvertedDerivedClock: "inverted derived clock",
	PositiveEdgeTick:     "positive edge tick",
	NegativeEdgeTick:     "negative edge tick",
	GlobalClock:          "global clock",
}
