package game

import (
	"cmp"
	"slices"
)

// palette is cycled by player id.
var palette = [...]string{
	"#C41E3A", // red
	"#2E7D32", // green
	"#F57C00", // orange
	"#512DA8", // purple
	"#1976D2", // blue
}

// ColorFor returns the colour tag of the player seated at id.
func ColorFor(id int) string {
	if id < 0 {
		id = -id
	}
	return palette[id%len(palette)]
}

// Player is one seat at the table and its running score.
type Player struct {
	name   string
	id     int
	color  string
	score  int
	rounds []int
}

// NewPlayer creates a player with no rounds played.
func NewPlayer(name string, id int) *Player {
	return &Player{name: name, id: id, color: ColorFor(id)}
}

func (p *Player) Name() string  { return p.name }
func (p *Player) ID() int       { return p.id }
func (p *Player) Color() string { return p.color }
func (p *Player) Score() int    { return p.score }

// Rounds returns the number of rounds scored.
func (p *Player) Rounds() int { return len(p.rounds) }

// RoundScores returns a copy of the per-round deltas in play order.
func (p *Player) RoundScores() []int {
	return slices.Clone(p.rounds)
}

// AddRoundScore records the result of one round. A negative delta is a
// round win. Score always equals the sum of RoundScores.
func (p *Player) AddRoundScore(delta int) {
	p.rounds = append(p.rounds, delta)
	p.score += delta
}

// Clone returns a deep copy of p.
func (p *Player) Clone() *Player {
	c := *p
	c.rounds = slices.Clone(p.rounds)
	return &c
}

// Winner returns the player with the lowest score. Ties go to the player
// listed first. It returns nil for an empty table.
func Winner(players []*Player) *Player {
	if len(players) == 0 {
		return nil
	}
	w := players[0]
	for _, p := range players[1:] {
		if p.score < w.score {
			w = p
		}
	}
	return w
}

// Standings returns the players ordered from best (lowest) to worst score,
// keeping seat order between equal scores.
func Standings(players []*Player) []*Player {
	out := slices.Clone(players)
	slices.SortStableFunc(out, func(a, b *Player) int {
		return cmp.Compare(a.score, b.score)
	})
	return out
}

// Loser returns the first player whose score has reached target, or nil
// while the game can go on.
func Loser(players []*Player, target int) *Player {
	for _, p := range players {
		if p.score >= target {
			return p
		}
	}
	return nil
}
