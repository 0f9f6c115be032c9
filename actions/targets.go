// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package actions implements the discrete action space: target ranking, the
// per-state validity mask, and atomic action application.
//
// Mask and Apply are pure with respect to their inputs: Apply clones the
// state before mutating, and an action that fails re-validation returns the
// clone untouched with invalid_action set. Invalid actions are data, not
// errors — a policy can never crash the engine with a bad index.
package actions

import (
	"sort"

	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// Target is one addressable target slot: an alive opposing actor ranked by
// distance from the acting enemy.
type Target struct {
	PartyIndex int
	Actor      *state.Actor
	Distance   int
}

// SortedTargets ranks the alive party members by Chebyshev distance from pos,
// ties broken by roster order, truncated to the addressable slot count.
func SortedTargets(s *state.GameState, pos state.Position) []Target {
	targets := make([]Target, 0, len(s.Party))
	for i, p := range s.Party {
		if !p.Alive() {
			continue
		}
		targets = append(targets, Target{
			PartyIndex: i,
			Actor:      p,
			Distance:   pos.Chebyshev(p.Pos),
		})
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Distance < targets[j].Distance
	})

	if len(targets) > schema.MaxTargets {
		targets = targets[:schema.MaxTargets]
	}
	return targets
}

// attackSlots returns the enemy's addressable attacks.
func attackSlots(enemy *state.Actor) []state.AttackRecord {
	if len(enemy.Attacks) > schema.MaxAttacks {
		return enemy.Attacks[:schema.MaxAttacks]
	}
	return enemy.Attacks
}

// spellSlots returns the enemy's addressable spells.
func spellSlots(enemy *state.Actor) []state.SpellRecord {
	if len(enemy.Spells) > schema.MaxSpells {
		return enemy.Spells[:schema.MaxSpells]
	}
	return enemy.Spells
}

// abilitySlots returns the enemy's addressable special abilities.
func abilitySlots(enemy *state.Actor) []state.SpecialAbility {
	if len(enemy.SpecialAbilities) > schema.MaxAbilities {
		return enemy.SpecialAbilities[:schema.MaxAbilities]
	}
	return enemy.SpecialAbilities
}
