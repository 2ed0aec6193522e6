// Package setup turns the new-game form into a game.Config and remembers
// the last values entered.
package setup

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"scorepad/internal/game"
)

// Limits enforced by Validate.
const (
	MinPlayers     = 2
	MaxPlayers     = 4
	MaxTargetScore = 10000
)

// Values the form starts with when nothing has been saved.
const (
	DefaultTargetScore = 500
	DefaultPlayerCount = 2
	DefaultGhaltaValue = 50
)

// ValidationError names the form field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Form is what the player fills in before a game.
type Form struct {
	GameName    string   `json:"gameName"`
	TargetScore int      `json:"targetScore"`
	PlayerCount int      `json:"playerCount"`
	PlayerNames []string `json:"playerNames"`
	GhaltaValue int      `json:"ghaltaValue"`
	StarterMode string   `json:"startingPlayerMode,omitempty"`
	FirstPlayer int      `json:"firstPlayerIndex,omitempty"`
}

// Names returns the trimmed names of the seated players.
func (f Form) Names() []string {
	n := min(f.PlayerCount, len(f.PlayerNames))
	names := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		names = append(names, strings.TrimSpace(f.PlayerNames[i]))
	}
	return names
}

// Validate checks the form the way the setup screen does. Player names
// must be present and distinct ignoring case.
func (f Form) Validate() error {
	if f.TargetScore <= 0 {
		return &ValidationError{Field: "targetScore", Message: "must be greater than 0"}
	}
	if f.TargetScore > MaxTargetScore {
		return &ValidationError{Field: "targetScore", Message: fmt.Sprintf("must be at most %d", MaxTargetScore)}
	}
	if f.PlayerCount < MinPlayers || f.PlayerCount > MaxPlayers {
		return &ValidationError{Field: "playerCount", Message: fmt.Sprintf("must be between %d and %d", MinPlayers, MaxPlayers)}
	}
	if len(f.PlayerNames) < f.PlayerCount {
		return &ValidationError{Field: "playerNames", Message: fmt.Sprintf("need %d names, got %d", f.PlayerCount, len(f.PlayerNames))}
	}
	if f.GhaltaValue < 0 {
		return &ValidationError{Field: "ghaltaValue", Message: "must not be negative"}
	}

	fold := cases.Fold()
	seen := make(map[string]bool, f.PlayerCount)
	for i, name := range f.Names() {
		field := fmt.Sprintf("playerNames[%d]", i)
		if name == "" {
			return &ValidationError{Field: field, Message: "name required"}
		}
		key := fold.String(name)
		if seen[key] {
			return &ValidationError{Field: field, Message: fmt.Sprintf("duplicate name %q", name)}
		}
		seen[key] = true
	}

	if f.StarterMode != "" {
		if _, err := game.ParseStarterMode(f.StarterMode); err != nil {
			return &ValidationError{Field: "startingPlayerMode", Message: err.Error()}
		}
	}
	if f.FirstPlayer < 0 || f.FirstPlayer >= f.PlayerCount {
		return &ValidationError{Field: "firstPlayerIndex", Message: "no such player"}
	}
	return nil
}

// Config builds the game configuration for a validated form. The starter
// rotates from the first player unless the form says otherwise.
func (f Form) Config() game.Config {
	name := strings.TrimSpace(f.GameName)
	if name == "" {
		name = game.DefaultGameName
	}
	mode := game.StarterRotation
	if f.StarterMode != "" {
		if m, err := game.ParseStarterMode(f.StarterMode); err == nil {
			mode = m
		}
	}
	ghalta := f.GhaltaValue
	if ghalta == 0 {
		ghalta = DefaultGhaltaValue
	}
	names := f.Names()
	return game.Config{
		Name:             name,
		PlayerCount:      len(names),
		PlayerNames:      names,
		TargetScore:      f.TargetScore,
		StarterMode:      mode,
		FirstPlayerIndex: f.FirstPlayer,
		GhaltaValue:      ghalta,
		Frich1Value:      10,
		Frich2Value:      20,
		MemnechValue:     100,
	}
}
