// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scenario builds initial combat states. The environment accepts any
// Builder; Simple is the stock one used for smoke evaluation — party on the
// left, enemies on the right, alternating initiative.
package scenario

import (
	"fmt"

	"github.com/KirkDiggler/combatsim/rpgerr"
	"github.com/KirkDiggler/combatsim/state"
)

// Config shapes a generated scenario.
type Config struct {
	NumParty   int
	NumEnemies int
	GridWidth  int
	GridHeight int
}

// Builder produces a fully formed initial state from a config.
type Builder func(Config) (*state.GameState, error)

// withDefaults fills zero fields with the stock evaluation shape.
func (c Config) withDefaults() Config {
	if c.NumParty == 0 {
		c.NumParty = 2
	}
	if c.NumEnemies == 0 {
		c.NumEnemies = 2
	}
	if c.GridWidth == 0 {
		c.GridWidth = 15
	}
	if c.GridHeight == 0 {
		c.GridHeight = 15
	}
	return c
}

// Simple builds the stock scenario: heroes with longswords on the left,
// goblins with scimitars and shortbows on the right, enemy-first alternating
// initiative.
func Simple(cfg Config) (*state.GameState, error) {
	cfg = cfg.withDefaults()
	if cfg.NumParty < 1 || cfg.NumEnemies < 1 {
		return nil, rpgerr.InvalidArgumentf("scenario needs at least one actor per side, got %d party / %d enemies",
			cfg.NumParty, cfg.NumEnemies)
	}
	if cfg.GridWidth < 6 || cfg.GridHeight < max(cfg.NumParty, cfg.NumEnemies) {
		return nil, rpgerr.InvalidArgumentf("grid %dx%d too small for scenario", cfg.GridWidth, cfg.GridHeight)
	}

	s := state.New(state.NewGrid(cfg.GridWidth, cfg.GridHeight))

	for i := 0; i < cfg.NumParty; i++ {
		s.Party = append(s.Party, &state.Actor{
			Name:    fmt.Sprintf("Hero %d", i+1),
			HP:      30,
			MaxHP:   30,
			AC:      15,
			SpeedFt: 30,
			Pos:     state.Position{X: 2, Y: cfg.GridHeight/2 - cfg.NumParty/2 + i},
			Abilities: map[state.AbilityScore]int{
				state.STR: 16, state.DEX: 12, state.CON: 14,
				state.INT: 10, state.WIS: 10, state.CHA: 10,
			},
			Attacks: []state.AttackRecord{{
				Name:    "Longsword",
				ToHit:   5,
				Damage:  "1d8+3",
				RangeFt: 5,
				Type:    state.AttackMelee,
			}},
		})
	}

	for i := 0; i < cfg.NumEnemies; i++ {
		s.Enemies = append(s.Enemies, &state.Actor{
			Name:    fmt.Sprintf("Goblin %d", i+1),
			HP:      7,
			MaxHP:   7,
			AC:      15,
			SpeedFt: 30,
			Pos:     state.Position{X: cfg.GridWidth - 3, Y: cfg.GridHeight/2 - cfg.NumEnemies/2 + i},
			Abilities: map[state.AbilityScore]int{
				state.STR: 8, state.DEX: 14, state.CON: 10,
				state.INT: 10, state.WIS: 8, state.CHA: 8,
			},
			Attacks: []state.AttackRecord{
				{
					Name:    "Scimitar",
					ToHit:   4,
					Damage:  "1d6+2",
					RangeFt: 5,
					Type:    state.AttackMelee,
				},
				{
					Name:    "Shortbow",
					ToHit:   4,
					Damage:  "1d6+2",
					RangeFt: 80,
					Type:    state.AttackRanged,
				},
			},
		})
	}

	// Alternating initiative, enemies first.
	for i := 0; i < max(cfg.NumParty, cfg.NumEnemies); i++ {
		if i < cfg.NumEnemies {
			s.Initiative = append(s.Initiative, state.InitiativeEntry{Kind: state.RosterEnemies, Index: i})
		}
		if i < cfg.NumParty {
			s.Initiative = append(s.Initiative, state.InitiativeEntry{Kind: state.RosterParty, Index: i})
		}
	}

	return s, nil
}
