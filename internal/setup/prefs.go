package setup

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"scorepad/internal/storage"
)

const (
	prefGameName    = "gameName"
	prefTargetScore = "targetScore"
	prefCount       = "count"
	prefGhalta      = "ghaltaValue"
)

func prefName(i int) string { return "p" + strconv.Itoa(i+1) }

// LoadPreferences returns the last form submitted, or the defaults. Values
// that fail to parse fall back to their default.
func LoadPreferences(s *storage.Store) (Form, error) {
	f := Form{
		TargetScore: DefaultTargetScore,
		PlayerCount: DefaultPlayerCount,
		PlayerNames: make([]string, MaxPlayers),
		GhaltaValue: DefaultGhaltaValue,
	}
	get := func(key string) (string, bool, error) {
		v, err := s.Get(storage.NamespacePrefs, key)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("load preference %s: %w", key, err)
		}
		return v, true, nil
	}
	getInt := func(key string, dst *int) error {
		v, ok, err := get(key)
		if err != nil || !ok {
			return err
		}
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
		return nil
	}

	v, _, err := get(prefGameName)
	if err != nil {
		return Form{}, err
	}
	f.GameName = v
	for key, dst := range map[string]*int{
		prefTargetScore: &f.TargetScore,
		prefCount:       &f.PlayerCount,
		prefGhalta:      &f.GhaltaValue,
	} {
		if err := getInt(key, dst); err != nil {
			return Form{}, err
		}
	}
	for i := range f.PlayerNames {
		v, _, err := get(prefName(i))
		if err != nil {
			return Form{}, err
		}
		f.PlayerNames[i] = v
	}
	return f, nil
}

// SavePreferences remembers f for the next game. Names of unused seats
// keep their previous value.
func SavePreferences(s *storage.Store, f Form) error {
	values := map[string]string{
		prefGameName:    f.GameName,
		prefTargetScore: strconv.Itoa(f.TargetScore),
		prefCount:       strconv.Itoa(f.PlayerCount),
		prefGhalta:      strconv.Itoa(f.GhaltaValue),
	}
	for i, name := range f.Names() {
		values[prefName(i)] = name
	}
	if err := s.SetMany(storage.NamespacePrefs, values); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
