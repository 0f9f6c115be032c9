// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package actions

import (
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// Mask computes the validity mask over the action space for the given enemy.
// END_TURN is always valid; everything else is gated by the action economy,
// the movement budget, target existence, and range.
func Mask(s *state.GameState, enemyIdx int) []bool {
	mask := make([]bool, schema.TotalActions)
	mask[schema.EndTurnAction] = true

	if enemyIdx < 0 || enemyIdx >= len(s.Enemies) {
		return mask
	}
	enemy := s.Enemies[enemyIdx]

	economy := s.ActionEconomy
	squareSize := s.Grid.SquareSizeFt
	targets := SortedTargets(s, enemy.Pos)

	if economy.Move {
		remaining := mechanics.RemainingMovement(s, enemy)
		for dy := -schema.LocalGridRadius; dy <= schema.LocalGridRadius; dy++ {
			for dx := -schema.LocalGridRadius; dx <= schema.LocalGridRadius; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if chebStep(dx, dy) > remaining {
					continue
				}
				if mechanics.IsBlocked(s, enemy.Pos.X+dx, enemy.Pos.Y+dy, enemy) {
					continue
				}

				index, err := schema.MoveOffsetToIndex(dx, dy)
				if err != nil {
					continue
				}
				mask[index] = true
			}
		}
	}

	if economy.Standard {
		for slot, target := range targets {
			for attackSlot, attack := range attackSlots(enemy) {
				if target.Distance <= mechanics.RangeSquares(attack.RangeFt, squareSize) {
					mask[schema.AttackActionStart+slot*schema.MaxAttacks+attackSlot] = true
				}
			}

			for spellSlot, spell := range spellSlots(enemy) {
				if target.Distance > mechanics.RangeSquares(spell.RangeFt, squareSize) {
					continue
				}
				if spell.Kind == state.SpellAttack {
					mask[schema.SpellAttackActionStart+slot*schema.MaxSpells+spellSlot] = true
				} else {
					mask[schema.SpellSaveActionStart+slot*schema.MaxSpells+spellSlot] = true
				}
			}

			for abilitySlot, ability := range abilitySlots(enemy) {
				if !enemy.AbilityAvailable(ability) {
					continue
				}
				if target.Distance <= mechanics.RangeSquares(ability.RangeFt, squareSize) {
					mask[schema.AbilityActionStart+slot*schema.MaxAbilities+abilitySlot] = true
				}
			}
		}

		mask[schema.DodgeAction] = true
		mask[schema.DashAction] = true
		mask[schema.DisengageAction] = true
	}

	return mask
}

func chebStep(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
