// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package state holds the combat game state: the grid, the two rosters, the
// initiative order, and the per-turn action economy.
//
// The state is a plain value container. It is constructed by a scenario
// builder, mutated only through the action space and the environment driver,
// and serializes to a canonical nested JSON form used for logging and
// debugging.
package state

import (
	"encoding/json"

	"github.com/KirkDiggler/combatsim/rpgerr"
)

// RosterKind identifies which roster an initiative entry points into.
type RosterKind string

// Roster kinds.
const (
	RosterParty   RosterKind = "party"
	RosterEnemies RosterKind = "enemy"
)

// InitiativeEntry references one actor in turn order.
type InitiativeEntry struct {
	Kind  RosterKind `json:"kind"`
	Index int        `json:"idx"`
}

// ActionEconomy tracks the per-turn resource flags. All four reset on every
// turn boundary.
type ActionEconomy struct {
	Standard bool `json:"standard"`
	Move     bool `json:"move"`
	Bonus    bool `json:"bonus"`
	Reaction bool `json:"reaction"`
}

// Reset restores the economy for a fresh turn.
func (e *ActionEconomy) Reset() {
	e.Standard = true
	e.Move = true
	e.Bonus = false
	e.Reaction = true
}

// Exhausted reports whether neither a standard action nor movement remains.
func (e *ActionEconomy) Exhausted() bool {
	return !e.Standard && !e.Move
}

// GameState is the complete combat state.
type GameState struct {
	Grid          *Grid             `json:"grid"`
	Party         []*Actor          `json:"party"`
	Enemies       []*Actor          `json:"enemies"`
	Initiative    []InitiativeEntry `json:"initiative_order"`
	TurnIndex     int               `json:"turn_index"`
	Round         int               `json:"round"`
	InCombat      bool              `json:"in_combat"`
	ActionEconomy ActionEconomy     `json:"action_economy"`

	// MovementUsed counts grid squares moved by the acting actor this turn.
	MovementUsed int `json:"movement_used"`
}

// New creates an empty in-combat state on the given grid with a fresh
// action economy.
func New(grid *Grid) *GameState {
	s := &GameState{
		Grid:     grid,
		Round:    1,
		InCombat: true,
	}
	s.ActionEconomy.Reset()
	return s
}

// CurrentEntry returns the initiative entry whose turn it is.
func (s *GameState) CurrentEntry() (InitiativeEntry, bool) {
	if len(s.Initiative) == 0 || s.TurnIndex < 0 || s.TurnIndex >= len(s.Initiative) {
		return InitiativeEntry{}, false
	}
	return s.Initiative[s.TurnIndex], true
}

// ActorFor resolves an initiative entry to its actor.
func (s *GameState) ActorFor(entry InitiativeEntry) (*Actor, bool) {
	roster := s.Party
	if entry.Kind == RosterEnemies {
		roster = s.Enemies
	}
	if entry.Index < 0 || entry.Index >= len(roster) {
		return nil, false
	}
	return roster[entry.Index], true
}

// AdvanceTurn moves the initiative cursor to the next entry, wrapping to the
// top of the order and bumping the round counter on wrap. The action economy
// and the movement counter reset on every turn boundary.
func (s *GameState) AdvanceTurn() {
	s.TurnIndex++
	if s.TurnIndex >= len(s.Initiative) {
		s.TurnIndex = 0
		s.Round++
	}
	s.ActionEconomy.Reset()
	s.MovementUsed = 0
}

// IsCombatOver reports whether either roster has no alive actors.
func (s *GameState) IsCombatOver() bool {
	return !anyAlive(s.Party) || !anyAlive(s.Enemies)
}

// Winner returns the winning roster once combat is over. The second return
// is false while combat is still running.
func (s *GameState) Winner() (RosterKind, bool) {
	if !s.IsCombatOver() {
		return "", false
	}
	if anyAlive(s.Party) {
		return RosterParty, true
	}
	return RosterEnemies, true
}

func anyAlive(roster []*Actor) bool {
	for _, a := range roster {
		if a.Alive() {
			return true
		}
	}
	return false
}

// Clone deep-copies the state. The action space clones before every apply so
// callers always keep a usable pre-step state.
func (s *GameState) Clone() *GameState {
	clone := *s
	clone.Grid = s.Grid.Clone()
	clone.Initiative = append([]InitiativeEntry(nil), s.Initiative...)

	clone.Party = make([]*Actor, len(s.Party))
	for i, a := range s.Party {
		clone.Party[i] = a.Clone()
	}
	clone.Enemies = make([]*Actor, len(s.Enemies))
	for i, a := range s.Enemies {
		clone.Enemies[i] = a.Clone()
	}

	return &clone
}

// MarshalCanonical serializes the state to its canonical nested JSON form.
func (s *GameState) MarshalCanonical() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, rpgerr.WrapWithCode(err, rpgerr.CodeInternal, "marshal game state")
	}
	return data, nil
}

// UnmarshalCanonical reconstructs a state from its canonical JSON form.
func UnmarshalCanonical(data []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, rpgerr.WrapWithCode(err, rpgerr.CodeInvalidArgument, "unmarshal game state")
	}
	return &s, nil
}
