// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package state

import (
	"github.com/KirkDiggler/combatsim/rpgerr"
)

// Validate checks the structural invariants a scenario must satisfy before
// the environment will run it. It is called at reset time; a failure means
// the environment refuses to start.
func (s *GameState) Validate() error {
	if s.Grid == nil || s.Grid.Width <= 0 || s.Grid.Height <= 0 {
		return rpgerr.InvalidState("grid missing or empty")
	}
	if s.Grid.SquareSizeFt <= 0 {
		return rpgerr.InvalidStatef("grid square size %d ft", s.Grid.SquareSizeFt)
	}
	if len(s.Grid.Cells) != s.Grid.Height {
		return rpgerr.InvalidStatef("grid has %d rows, want %d", len(s.Grid.Cells), s.Grid.Height)
	}
	for y, row := range s.Grid.Cells {
		if len(row) != s.Grid.Width {
			return rpgerr.InvalidStatef("grid row %d has %d cells, want %d", y, len(row), s.Grid.Width)
		}
	}

	if len(s.Initiative) == 0 {
		return rpgerr.InvalidState("empty initiative order")
	}
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.Initiative) {
		return rpgerr.OutOfRangef("turn index %d outside initiative of length %d", s.TurnIndex, len(s.Initiative))
	}
	for i, entry := range s.Initiative {
		if _, ok := s.ActorFor(entry); !ok {
			return rpgerr.InvalidTarget("initiative entry references missing actor",
				rpgerr.WithMeta("entry", i),
				rpgerr.WithMeta("kind", string(entry.Kind)),
				rpgerr.WithMeta("idx", entry.Index))
		}
	}

	occupied := make(map[Position]string)
	for _, roster := range [][]*Actor{s.Party, s.Enemies} {
		for _, a := range roster {
			if err := s.validateActor(a, occupied); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *GameState) validateActor(a *Actor, occupied map[Position]string) error {
	if a.MaxHP <= 0 {
		return rpgerr.InvalidStatef("actor %q has max hp %d", a.Name, a.MaxHP)
	}
	if a.HP < 0 || a.HP > a.MaxHP {
		return rpgerr.InvalidStatef("actor %q has hp %d outside [0, %d]", a.Name, a.HP, a.MaxHP)
	}

	if !s.Grid.InBounds(a.Pos.X, a.Pos.Y) {
		return rpgerr.OutOfRange("actor placed off the grid",
			rpgerr.WithMeta("actor", a.Name),
			rpgerr.WithMeta("x", a.Pos.X),
			rpgerr.WithMeta("y", a.Pos.Y))
	}

	// Downed actors neither block nor claim cells.
	if !a.Alive() {
		return nil
	}

	if s.Grid.TileAt(a.Pos.X, a.Pos.Y).Blocked() {
		return rpgerr.InvalidState("actor placed on blocked terrain",
			rpgerr.WithMeta("actor", a.Name),
			rpgerr.WithMeta("tile", string(s.Grid.TileAt(a.Pos.X, a.Pos.Y))))
	}

	if other, taken := occupied[a.Pos]; taken {
		return rpgerr.InvalidState("two alive actors share a cell",
			rpgerr.WithMeta("first", other),
			rpgerr.WithMeta("second", a.Name),
			rpgerr.WithMeta("x", a.Pos.X),
			rpgerr.WithMeta("y", a.Pos.Y))
	}
	occupied[a.Pos] = a.Name

	return nil
}
