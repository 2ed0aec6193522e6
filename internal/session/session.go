package session

import "scorepad/internal/game"

// State is a point-in-time copy of the manager, safe to hand to views.
type State struct {
	Active    bool           `json:"active"`
	Config    *game.Config   `json:"config,omitempty"`
	Players   []*game.Player `json:"players"`
	Standings []*game.Player `json:"standings"`
	Round     int            `json:"round"`
	Starter   int            `json:"starterIndex"`
	Winner    *game.Player   `json:"winner,omitempty"`
	Loser     *game.Player   `json:"loser,omitempty"` // set once the target is reached
}

// Snapshot copies the current game. Players in the snapshot are detached
// from the live table.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := State{
		Active:  m.active,
		Players: clonePlayers(m.players),
		Round:   m.round,
		Starter: m.starter,
	}
	if !m.active {
		st.Players = []*game.Player{}
		st.Standings = []*game.Player{}
		return st
	}
	if m.config != nil {
		cfg := m.config.Clone()
		st.Config = &cfg
		st.Loser = game.Loser(st.Players, cfg.TargetScore)
	}
	st.Standings = game.Standings(st.Players)
	st.Winner = game.Winner(st.Players)
	return st
}

// IsOver reports whether some player has reached the target score.
func (s State) IsOver() bool {
	return s.Loser != nil
}
