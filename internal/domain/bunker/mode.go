package bunker

import "fmt"

// Mode controls whether a commodity is replenished automatically
type Mode string

const (
	ModeOff   Mode = "off"
	ModeBasic Mode = "basic"

	// ModeIntelligent is accepted for fuel only and currently decides exactly like ModeBasic
	ModeIntelligent Mode = "intelligent"
)

func (m Mode) String() string {
	return string(m)
}

// Enabled returns true for any mode that may produce a purchase
func (m Mode) Enabled() bool {
	return m == ModeBasic || m == ModeIntelligent
}

// IsValidFor reports whether the mode is allowed for the given commodity
func (m Mode) IsValidFor(c Commodity) bool {
	switch m {
	case ModeOff, ModeBasic:
		return true
	case ModeIntelligent:
		return c == CommodityFuel
	default:
		return false
	}
}

// ParseMode parses a mode for the given commodity
func ParseMode(s string, c Commodity) (Mode, error) {
	m := Mode(s)
	if !m.IsValidFor(c) {
		return "", fmt.Errorf("invalid %s mode: %s", c, s)
	}
	return m, nil
}
