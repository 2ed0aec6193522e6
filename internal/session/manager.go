package session

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"scorepad/internal/game"
	"scorepad/internal/history"
	"scorepad/internal/storage"
)

// Keys of the active game in storage.NamespaceGame.
const (
	keyActive  = "game_active"
	keyConfig  = "game_config"
	keyPlayers = "players"
	keyRound   = "current_round"
	keyStarter = "starter_index"
)

var gameKeys = []string{keyActive, keyConfig, keyPlayers, keyRound, keyStarter}

var (
	ErrNoActiveGame    = errors.New("no active game")
	ErrIncompleteRound = errors.New("every player needs exactly one score for the round")
	ErrPlayerCount     = errors.New("player count does not match player names")
)

// Manager owns the single active game of the process.
type Manager struct {
	mu      sync.RWMutex
	store   *storage.Store
	history *history.Store
	logger  *log.Logger
	intn    func(n int) int
	now     func() time.Time

	config  *game.Config
	players []*game.Player
	active  bool
	round   int
	starter int
}

// NewManager creates a manager with no active game.
func NewManager(store *storage.Store, hist *history.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:   store,
		history: hist,
		logger:  logger,
		intn:    rand.IntN,
		now:     time.Now,
		round:   1,
	}
}

// StartNewGame replaces whatever game was active with a fresh one built
// from cfg. cfg is assumed to have been validated by the caller apart from
// the player count.
func (m *Manager) StartNewGame(cfg game.Config) error {
	if cfg.PlayerCount != len(cfg.PlayerNames) {
		return fmt.Errorf("%w: %d players, %d names", ErrPlayerCount, cfg.PlayerCount, len(cfg.PlayerNames))
	}
	cfg = cfg.Clone()

	players := make([]*game.Player, 0, cfg.PlayerCount)
	for i, name := range cfg.PlayerNames {
		players = append(players, game.NewPlayer(name, i))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = &cfg
	m.players = players
	m.round = 1
	m.starter = cfg.StarterMode.Initial(cfg.FirstPlayerIndex, cfg.PlayerCount, m.intn)
	m.active = true
	return nil
}

// Save writes the active game to storage, replacing what was there. It
// does nothing when no game is active.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if !m.active || m.config == nil {
		return nil
	}
	return m.persist(m.players, m.round, m.starter)
}

// persist writes the active config with the given table and counters.
func (m *Manager) persist(table []*game.Player, round, starter int) error {
	cfg, err := game.EncodeConfig(*m.config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	players, err := game.EncodePlayers(table)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	err = m.store.SetMany(storage.NamespaceGame, map[string]string{
		keyActive:  "true",
		keyConfig:  string(cfg),
		keyPlayers: string(players),
		keyRound:   strconv.Itoa(round),
		keyStarter: strconv.Itoa(starter),
	})
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// Restore loads the game saved by Save. Corrupt or partial data leaves the
// manager inactive and is only logged; storage failures are returned.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false

	flag, err := m.get(keyActive)
	if err != nil {
		return err
	}
	if active, _ := strconv.ParseBool(flag); !active {
		return nil
	}

	cfgJSON, err := m.get(keyConfig)
	if err != nil {
		return err
	}
	playersJSON, err := m.get(keyPlayers)
	if err != nil {
		return err
	}
	if cfgJSON == "" || playersJSON == "" {
		m.logger.Printf("restore: saved game is incomplete")
		return nil
	}

	cfg, err := game.DecodeConfig([]byte(cfgJSON))
	if err != nil {
		m.logger.Printf("restore: %v", err)
		return nil
	}
	players, err := game.DecodePlayers([]byte(playersJSON))
	if err != nil {
		m.logger.Printf("restore: %v", err)
		return nil
	}
	if len(players) == 0 {
		m.logger.Printf("restore: saved game has no players")
		return nil
	}
	if len(players) != cfg.PlayerCount {
		m.logger.Printf("restore: config has %d players but %d were saved", cfg.PlayerCount, len(players))
		return nil
	}

	round := m.getInt(keyRound, 1)
	if round < 1 {
		round = 1
	}
	starter := m.getInt(keyStarter, 0)
	if starter < 0 || starter >= len(players) {
		m.logger.Printf("restore: starter index %d out of range, using 0", starter)
		starter = 0
	}

	m.config = &cfg
	m.players = players
	m.round = round
	m.starter = starter
	m.active = true
	return nil
}

// get returns "" for a missing key.
func (m *Manager) get(key string) (string, error) {
	v, err := m.store.Get(storage.NamespaceGame, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (m *Manager) getInt(key string, def int) int {
	v, err := m.get(key)
	if err != nil || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		m.logger.Printf("restore: %s is not a number: %q", key, v)
		return def
	}
	return n
}

// NextRound advances the round counter and picks the next starter. Round
// scores must already have been added to the players.
func (m *Manager) NextRound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || m.config == nil {
		return
	}
	m.round++
	m.starter = m.config.StarterMode.Next(m.starter, m.config.PlayerCount, m.intn)
}

// SetStarter designates who begins the current round. Out-of-range
// indexes are ignored.
func (m *Manager) SetStarter(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || index < 0 || index >= len(m.players) {
		return false
	}
	m.starter = index
	return true
}

// RoundResult is what ScoreRound reports back.
type RoundResult struct {
	Round  int          // round now being played
	Winner *game.Player // lowest score after the round
	Loser  *game.Player // first player at or above the target, if any
}

// ScoreRound applies one delta per player in seat order, advances to the
// next round and saves. Nothing changes in memory unless the save
// succeeds. The game is not ended automatically; Loser tells the caller
// that the target has been reached.
func (m *Manager) ScoreRound(deltas []int) (RoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return RoundResult{}, ErrNoActiveGame
	}
	if len(deltas) != len(m.players) {
		return RoundResult{}, fmt.Errorf("%w: got %d scores for %d players", ErrIncompleteRound, len(deltas), len(m.players))
	}
	players := clonePlayers(m.players)
	for i, p := range players {
		p.AddRoundScore(deltas[i])
	}
	round := m.round + 1
	starter := m.config.StarterMode.Next(m.starter, m.config.PlayerCount, m.intn)
	if err := m.persist(players, round, starter); err != nil {
		return RoundResult{}, err
	}
	m.players, m.round, m.starter = players, round, starter
	return RoundResult{
		Round:  m.round,
		Winner: game.Winner(m.players).Clone(),
		Loser:  cloneOrNil(game.Loser(m.players, m.config.TargetScore)),
	}, nil
}

// Clear ends the active game and erases it from storage. History is kept.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	if err := m.store.Delete(storage.NamespaceGame, gameKeys...); err != nil {
		return fmt.Errorf("clear game: %w", err)
	}
	return nil
}

// SaveToHistory archives the current table. It does nothing when there
// are no players.
func (m *Manager) SaveToHistory(imagePath string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.players) == 0 {
		return nil
	}

	winner := game.Winner(m.players)
	e := history.Entry{
		Winner:      winner.Name(),
		WinnerScore: winner.Score(),
		Date:        m.now().UnixMilli(),
		ImagePath:   imagePath,
		Players:     clonePlayers(m.players),
	}
	if m.config != nil {
		cfg := m.config.Clone()
		e.GameName = cfg.Name
		e.Config = &cfg
	}
	if _, err := m.history.Append(e); err != nil {
		return err
	}
	return nil
}

// Active reports whether a game is in progress.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Config returns a copy of the active configuration.
func (m *Manager) Config() (game.Config, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return game.Config{}, false
	}
	return m.config.Clone(), true
}

// Players returns the live player list. Callers scoring a round by hand
// call AddRoundScore on each entry and then NextRound and Save. ScoreRound
// replaces the list, so it should not be held across rounds.
func (m *Manager) Players() []*game.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.players
}

// Round returns the round being played, starting at 1.
func (m *Manager) Round() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round
}

// Starter returns the index of the player who begins the current round.
func (m *Manager) Starter() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.starter
}

// Winner returns the player with the lowest score, or nil.
func (m *Manager) Winner() *game.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return game.Winner(m.players)
}

// Standings returns the players from best to worst score.
func (m *Manager) Standings() []*game.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return game.Standings(m.players)
}

func clonePlayers(players []*game.Player) []*game.Player {
	out := make([]*game.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

func cloneOrNil(p *game.Player) *game.Player {
	if p == nil {
		return nil
	}
	return p.Clone()
}
