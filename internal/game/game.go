package game

import (
	"fmt"
	"slices"
	"strings"
)

// Defaults applied when a configuration omits a field.
const (
	DefaultGameName     = "Untitled"
	DefaultTargetScore  = 500
	DefaultGhaltaValue  = 10
	DefaultFrich1Value  = 10
	DefaultFrich2Value  = 20
	DefaultMemnechValue = 50
)

// StarterMode selects who begins each round.
type StarterMode int

const (
	StarterManual StarterMode = iota
	StarterRotation
	StarterRandom
)

func (m StarterMode) String() string {
	switch m {
	case StarterRandom:
		return "RANDOM"
	case StarterRotation:
		return "ROTATION"
	default:
		return "MANUAL"
	}
}

// ParseStarterMode accepts the persisted tag of a mode, case-insensitively.
// ALEATOIRE is the legacy tag for RANDOM.
func ParseStarterMode(s string) (StarterMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RANDOM", "ALEATOIRE":
		return StarterRandom, nil
	case "ROTATION":
		return StarterRotation, nil
	case "MANUAL":
		return StarterManual, nil
	}
	return StarterManual, fmt.Errorf("unknown starter mode %q", s)
}

// Initial resolves the starter of the first round.
func (m StarterMode) Initial(first, count int, intn func(int) int) int {
	if m == StarterRandom && count > 0 {
		return intn(count)
	}
	return first
}

// Next resolves the starter of the round following one started by current.
func (m StarterMode) Next(current, count int, intn func(int) int) int {
	if count <= 0 {
		return current
	}
	switch m {
	case StarterRotation:
		return (current + 1) % count
	case StarterRandom:
		return intn(count)
	default:
		return current
	}
}

// Config describes one game. A Config is never modified once a game has
// started with it; a new game always gets a new Config.
type Config struct {
	Name             string
	PlayerCount      int
	PlayerNames      []string
	TargetScore      int
	StarterMode      StarterMode
	FirstPlayerIndex int

	// Shortcut values for the round entry buttons. Only GhaltaValue is
	// used by the scoring UI; the rest are carried through unchanged.
	GhaltaValue  int
	Frich1Value  int
	Frich2Value  int
	MemnechValue int
}

// Clone returns a copy that shares no memory with c.
func (c Config) Clone() Config {
	c.PlayerNames = slices.Clone(c.PlayerNames)
	return c
}
