// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package featurize converts a game state into the fixed-size numeric
// observation vector consumed by policies.
//
// State is a pure function: no randomness, no mutation, and every component
// lands in [0, 1] (flags are exactly 0 or 1). The block layout and scaling
// maxima live in package schema.
package featurize

import (
	"sort"
	"strings"

	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

func clamp01(v float64) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return float32(v)
}

// scale maps v from [min, max] into [0, 1], clamped.
func scale(v, max, min float64) float32 {
	if max == min {
		return 0
	}
	return clamp01((v - min) / (max - min))
}

// scaleToHit shifts a to-hit modifier by ToHitShift, then scales by MaxToHit.
func scaleToHit(v int) float32 {
	return clamp01(float64(v+schema.ToHitShift) / schema.MaxToHit)
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func hpFraction(a *state.Actor) float32 {
	maxHP := a.MaxHP
	if maxHP < 1 {
		maxHP = 1
	}
	return clamp01(float64(a.HP) / float64(maxHP))
}

// bestAverageDamage is the max parsed average damage over an attack list.
func bestAverageDamage(attacks []state.AttackRecord) float64 {
	best := 0.0
	for _, atk := range attacks {
		if avg := dice.AverageDamage(atk.Damage); avg > best {
			best = avg
		}
	}
	return best
}

// State featurizes the game state from the perspective of the active enemy.
// An out-of-range enemy index yields the all-zero vector.
func State(s *state.GameState, activeEnemyIdx int) []float32 {
	obs := make([]float32, schema.TotalObservations)

	if activeEnemyIdx < 0 || activeEnemyIdx >= len(s.Enemies) {
		return obs
	}
	enemy := s.Enemies[activeEnemyIdx]
	squareSize := s.Grid.SquareSizeFt

	// Global block.
	obs[schema.GlobalStart] = scale(float64(s.Round), schema.MaxRound, 0)
	obs[schema.GlobalStart+1] = flag(s.InCombat)
	obs[schema.GlobalStart+2] = scale(float64(s.Grid.Width), schema.MaxGridDim, 0)
	obs[schema.GlobalStart+3] = scale(float64(s.Grid.Height), schema.MaxGridDim, 0)

	// Self block.
	idx := schema.SelfStart
	obs[idx] = hpFraction(enemy)
	obs[idx+1] = scale(float64(enemy.AC), schema.MaxAC, 0)
	obs[idx+2] = scale(float64(enemy.SpeedFt), schema.MaxSpeedFt, 0)
	obs[idx+3] = scale(float64(enemy.Pos.X), schema.MaxGridDim, 0)
	obs[idx+4] = scale(float64(enemy.Pos.Y), schema.MaxGridDim, 0)
	obs[idx+5] = flag(s.ActionEconomy.Standard)
	obs[idx+6] = flag(s.ActionEconomy.Move)
	obs[idx+7] = flag(s.ActionEconomy.Bonus)
	obs[idx+8] = flag(s.ActionEconomy.Reaction)

	if budget := mechanics.MovementBudget(s, enemy); budget > 0 {
		obs[idx+9] = scale(float64(mechanics.RemainingMovement(s, enemy)), float64(budget), 0)
	}

	for i, name := range schema.ConditionNames {
		obs[idx+10+i] = flag(enemy.HasCondition(name))
	}
	traits := strings.ToLower(enemy.Traits)
	for i, name := range schema.TraitFlagNames {
		obs[idx+10+schema.NumConditions+i] = flag(traitPresent(traits, name))
	}

	// Local terrain block, row-major with the top-left at (x-R, y-R).
	idx = schema.TerrainStart
	for dy := -schema.LocalGridRadius; dy <= schema.LocalGridRadius; dy++ {
		for dx := -schema.LocalGridRadius; dx <= schema.LocalGridRadius; dx++ {
			wx, wy := enemy.Pos.X+dx, enemy.Pos.Y+dy
			local := (dy+schema.LocalGridRadius)*schema.LocalGridSize + (dx + schema.LocalGridRadius)
			base := idx + local*schema.TerrainFeaturesPerCell

			cell, inBounds := s.Grid.CellAt(wx, wy)
			if !inBounds {
				obs[base] = 1
				obs[base+1] = 1
				continue
			}

			obs[base] = flag(cell.Tile.Blocked())
			obs[base+1] = scale(float64(cell.Tile.MoveCost()), state.BlockedMoveCost, 1)
			obs[base+2] = flag(cell.Hazard != "")
		}
	}

	// Target slots.
	targets := aliveByDistance(s.Party, enemy.Pos, -1)
	bestMelee := bestMeleeRange(enemy, squareSize)
	maxMove := mechanics.MovementBudget(s, enemy)
	selfBestDamage := bestAverageDamage(enemy.Attacks)

	idx = schema.TargetsStart
	for slot := 0; slot < schema.MaxTargets && slot < len(targets); slot++ {
		target := targets[slot]
		base := idx + slot*schema.TargetFeatures

		obs[base] = hpFraction(target.actor)
		obs[base+1] = scale(float64(target.actor.AC), schema.MaxAC, 0)
		obs[base+2] = scale(float64(target.dist), schema.MaxDistance, 0)
		obs[base+3] = flag(target.dist <= maxMove+bestMelee)
		obs[base+4] = flag(target.dist <= bestMelee)
		obs[base+5] = scale(selfBestDamage, schema.MaxDamage, 0)
		obs[base+6] = clamp01(float64(alliesAdjacentTo(s, activeEnemyIdx, target.actor.Pos)) / 3)
		obs[base+7] = scale(bestAverageDamage(target.actor.Attacks), schema.MaxDamage, 0)
	}

	// Attack options.
	idx = schema.AttacksStart
	for slot, atk := range enemy.Attacks {
		if slot >= schema.MaxAttacks {
			break
		}
		base := idx + slot*schema.AttackFeatures
		obs[base] = scale(float64(atk.RangeFt)/float64(squareSize), schema.MaxDistance, 0)
		obs[base+1] = scale(dice.AverageDamage(atk.Damage), schema.MaxDamage, 0)
		obs[base+2] = scaleToHit(atk.ToHit)
		obs[base+3] = flag(atk.Type == state.AttackRanged)
	}

	// Spell options.
	idx = schema.SpellsStart
	for slot, spell := range enemy.Spells {
		if slot >= schema.MaxSpells {
			break
		}
		base := idx + slot*schema.SpellFeatures
		obs[base] = flag(spell.Kind == state.SpellSave)
		obs[base+1] = scale(float64(spell.RangeFt)/float64(squareSize), schema.MaxDistance, 0)
		obs[base+2] = scale(dice.AverageDamage(spell.Damage), schema.MaxDamage, 0)
		if spell.Kind == state.SpellSave {
			obs[base+3] = scale(float64(spell.DC), schema.MaxDC, 0)
		} else {
			obs[base+3] = scaleToHit(spell.ToHit)
		}
		obs[base+4] = 1 // spells carry no usage limits in this engine
	}

	// Ability options.
	idx = schema.AbilitiesStart
	for slot, ability := range enemy.SpecialAbilities {
		if slot >= schema.MaxAbilities {
			break
		}
		base := idx + slot*schema.AbilityFeatures
		switch ability.Kind {
		case state.AbilityAttack:
			obs[base] = 0
		case state.AbilitySave:
			obs[base] = 0.5
		default:
			obs[base] = 1
		}
		obs[base+1] = scale(float64(ability.RangeFt)/float64(squareSize), schema.MaxDistance, 0)
		obs[base+2] = scale(dice.AverageDamage(ability.Damage), schema.MaxDamage, 0)
		obs[base+3] = scale(float64(ability.DC), schema.MaxDC, 0)
		obs[base+4] = flag(enemy.AbilityAvailable(ability))
	}

	// Ally awareness: the nearest alive co-roster actors.
	idx = schema.AlliesStart
	allies := aliveByDistance(s.Enemies, enemy.Pos, activeEnemyIdx)
	for slot := 0; slot < schema.MaxAllies && slot < len(allies); slot++ {
		base := idx + slot*schema.AllyFeatures
		obs[base] = scale(float64(allies[slot].dist), schema.MaxDistance, 0)
		obs[base+1] = hpFraction(allies[slot].actor)
		obs[base+2] = 1
	}

	return obs
}

// traitPresent matches a vocabulary keyword as a case-insensitive substring,
// with underscores also matching spaces.
func traitPresent(traitsLower, keyword string) bool {
	if strings.Contains(traitsLower, keyword) {
		return true
	}
	return strings.Contains(traitsLower, strings.ReplaceAll(keyword, "_", " "))
}

type rankedActor struct {
	actor *state.Actor
	dist  int
}

// aliveByDistance ranks a roster's alive actors by distance from pos,
// skipping the actor at skipIdx (-1 to keep everyone). Ties keep roster
// order.
func aliveByDistance(roster []*state.Actor, pos state.Position, skipIdx int) []rankedActor {
	ranked := make([]rankedActor, 0, len(roster))
	for i, a := range roster {
		if i == skipIdx || !a.Alive() {
			continue
		}
		ranked = append(ranked, rankedActor{actor: a, dist: pos.Chebyshev(a.Pos)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].dist < ranked[j].dist
	})
	return ranked
}

// bestMeleeRange is the longest melee reach among the enemy's attacks, in
// squares, never below adjacency.
func bestMeleeRange(enemy *state.Actor, squareSize int) int {
	best := 1
	for _, atk := range enemy.Attacks {
		if atk.Type != state.AttackMelee && atk.Type != state.AttackBoth {
			continue
		}
		if squares := mechanics.RangeSquares(atk.RangeFt, squareSize); squares > best {
			best = squares
		}
	}
	return best
}

// alliesAdjacentTo counts alive enemies other than the active one standing
// adjacent to the target position.
func alliesAdjacentTo(s *state.GameState, activeEnemyIdx int, target state.Position) int {
	count := 0
	for i, other := range s.Enemies {
		if i == activeEnemyIdx || !other.Alive() {
			continue
		}
		if other.Pos.Chebyshev(target) <= 1 {
			count++
		}
	}
	return count
}
