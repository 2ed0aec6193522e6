package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is written into every encoded Config. Data without a
// version predates versioning and is read as version 1.
const SchemaVersion = 1

// ErrCorrupt is matched by every DecodeError.
var ErrCorrupt = errors.New("corrupt game data")

// DecodeError reports persisted data that cannot be turned back into a
// Config or Player.
type DecodeError struct {
	Object string // "config", "player", "players"
	Field  string // JSON key, empty when the whole document is unreadable
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %s", e.Object, e.Reason)
	}
	return fmt.Sprintf("decode %s: field %s: %s", e.Object, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrCorrupt }

type configWire struct {
	SchemaVersion      *int     `json:"schemaVersion,omitempty"`
	GameName           *string  `json:"gameName,omitempty"`
	PlayerCount        *int     `json:"playerCount,omitempty"`
	TargetScore        *int     `json:"targetScore,omitempty"`
	PlayerNames        []string `json:"playerNames,omitempty"`
	StartingPlayerMode *string  `json:"startingPlayerMode,omitempty"`
	FirstPlayerIndex   *int     `json:"firstPlayerIndex,omitempty"`
	GhaltaValue        *int     `json:"ghaltaValue,omitempty"`
	Frich1Value        *int     `json:"frich1Value,omitempty"`
	Frich2Value        *int     `json:"frich2Value,omitempty"`
	MemnechValue       *int     `json:"memnechValue,omitempty"`
}

type playerWire struct {
	Name        *string `json:"name,omitempty"`
	ID          *int    `json:"id,omitempty"`
	Color       *string `json:"color,omitempty"`
	Score       *int    `json:"score,omitempty"`
	RoundScores []int   `json:"roundScores"`
}

func ptr[T any](v T) *T { return &v }

func or[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// EncodeConfig serializes every field of c.
func EncodeConfig(c Config) ([]byte, error) {
	names := c.PlayerNames
	if names == nil {
		names = []string{}
	}
	return json.Marshal(configWire{
		SchemaVersion:      ptr(SchemaVersion),
		GameName:           ptr(c.Name),
		PlayerCount:        ptr(c.PlayerCount),
		TargetScore:        ptr(c.TargetScore),
		PlayerNames:        names,
		StartingPlayerMode: ptr(c.StarterMode.String()),
		FirstPlayerIndex:   ptr(c.FirstPlayerIndex),
		GhaltaValue:        ptr(c.GhaltaValue),
		Frich1Value:        ptr(c.Frich1Value),
		Frich2Value:        ptr(c.Frich2Value),
		MemnechValue:       ptr(c.MemnechValue),
	})
}

// DecodeConfig parses an encoded Config. Optional fields that are absent
// take their documented defaults; playerCount and playerNames are required.
func DecodeConfig(data []byte) (Config, error) {
	var w configWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Config{}, jsonError("config", err)
	}
	if v := or(w.SchemaVersion, 1); v < 1 || v > SchemaVersion {
		return Config{}, &DecodeError{Object: "config", Field: "schemaVersion", Reason: fmt.Sprintf("unsupported version %d", v)}
	}
	if w.PlayerCount == nil {
		return Config{}, &DecodeError{Object: "config", Field: "playerCount", Reason: "missing"}
	}
	count := *w.PlayerCount
	if count <= 0 {
		return Config{}, &DecodeError{Object: "config", Field: "playerCount", Reason: fmt.Sprintf("must be positive, got %d", count)}
	}
	if w.PlayerNames == nil {
		return Config{}, &DecodeError{Object: "config", Field: "playerNames", Reason: "missing"}
	}
	if len(w.PlayerNames) < count {
		return Config{}, &DecodeError{Object: "config", Field: "playerNames", Reason: fmt.Sprintf("have %d names for %d players", len(w.PlayerNames), count)}
	}

	mode := StarterManual
	if w.StartingPlayerMode != nil {
		m, err := ParseStarterMode(*w.StartingPlayerMode)
		if err != nil {
			return Config{}, &DecodeError{Object: "config", Field: "startingPlayerMode", Reason: err.Error()}
		}
		mode = m
	}

	return Config{
		Name:             or(w.GameName, DefaultGameName),
		PlayerCount:      count,
		PlayerNames:      append([]string(nil), w.PlayerNames[:count]...),
		TargetScore:      or(w.TargetScore, DefaultTargetScore),
		StarterMode:      mode,
		FirstPlayerIndex: or(w.FirstPlayerIndex, 0),
		GhaltaValue:      or(w.GhaltaValue, DefaultGhaltaValue),
		Frich1Value:      or(w.Frich1Value, DefaultFrich1Value),
		Frich2Value:      or(w.Frich2Value, DefaultFrich2Value),
		MemnechValue:     or(w.MemnechValue, DefaultMemnechValue),
	}, nil
}

// EncodePlayer serializes p including its round log.
func EncodePlayer(p *Player) ([]byte, error) {
	return json.Marshal(p.wire())
}

func (p *Player) wire() playerWire {
	rounds := p.RoundScores()
	if rounds == nil {
		rounds = []int{}
	}
	return playerWire{
		Name:        ptr(p.name),
		ID:          ptr(p.id),
		Color:       ptr(p.color),
		Score:       ptr(p.score),
		RoundScores: rounds,
	}
}

// DecodePlayer parses an encoded Player. name, id, color and score are
// required. A round log that does not add up to score is rejected; a
// missing log with a non-zero score is read as a single carried-over round.
func DecodePlayer(data []byte) (*Player, error) {
	var w playerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, jsonError("player", err)
	}
	return w.player()
}

func (w playerWire) player() (*Player, error) {
	switch {
	case w.Name == nil:
		return nil, &DecodeError{Object: "player", Field: "name", Reason: "missing"}
	case w.ID == nil:
		return nil, &DecodeError{Object: "player", Field: "id", Reason: "missing"}
	case w.Color == nil:
		return nil, &DecodeError{Object: "player", Field: "color", Reason: "missing"}
	case w.Score == nil:
		return nil, &DecodeError{Object: "player", Field: "score", Reason: "missing"}
	}

	p := &Player{name: *w.Name, id: *w.ID, color: *w.Color}
	if w.RoundScores == nil {
		if *w.Score != 0 {
			p.AddRoundScore(*w.Score)
		}
		return p, nil
	}
	for _, d := range w.RoundScores {
		p.AddRoundScore(d)
	}
	if p.score != *w.Score {
		return nil, &DecodeError{Object: "player", Field: "score", Reason: fmt.Sprintf("is %d but rounds add up to %d", *w.Score, p.score)}
	}
	return p, nil
}

// EncodePlayers serializes the table in seat order.
func EncodePlayers(players []*Player) ([]byte, error) {
	ws := make([]playerWire, 0, len(players))
	for _, p := range players {
		ws = append(ws, p.wire())
	}
	return json.Marshal(ws)
}

// DecodePlayers parses a list written by EncodePlayers. Any bad entry
// fails the whole list.
func DecodePlayers(data []byte) ([]*Player, error) {
	var ws []playerWire
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, jsonError("players", err)
	}
	players := make([]*Player, 0, len(ws))
	for i, w := range ws {
		p, err := w.player()
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Object = fmt.Sprintf("players[%d]", i)
			}
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// MarshalJSON encodes c with EncodeConfig.
func (c Config) MarshalJSON() ([]byte, error) { return EncodeConfig(c) }

// UnmarshalJSON decodes c with DecodeConfig.
func (c *Config) UnmarshalJSON(data []byte) error {
	v, err := DecodeConfig(data)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalJSON encodes p with EncodePlayer.
func (p *Player) MarshalJSON() ([]byte, error) { return EncodePlayer(p) }

// UnmarshalJSON decodes p with DecodePlayer.
func (p *Player) UnmarshalJSON(data []byte) error {
	v, err := DecodePlayer(data)
	if err != nil {
		return err
	}
	*p = *v
	return nil
}

func jsonError(object string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return &DecodeError{Object: object, Field: te.Field, Reason: "expected " + te.Type.String() + ", got " + te.Value}
	}
	return &DecodeError{Object: object, Reason: err.Error()}
}
