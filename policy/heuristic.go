// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package policy

import (
	"github.com/KirkDiggler/combatsim/actions"
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// Policy selects one action index for the acting enemy.
type Policy interface {
	SelectAction(s *state.GameState, enemyIdx int, r dice.Roller) int
}

// Heuristic is the baseline non-learned enemy policy: best-utility attack if
// one is in range, otherwise close (or open, for hit-and-run actors)
// distance, otherwise dodge.
type Heuristic struct {
	catalog *Catalog
}

// HeuristicConfig configures the heuristic policy.
type HeuristicConfig struct {
	// Catalog defaults to DefaultCatalog.
	Catalog *Catalog
}

// NewHeuristic creates the heuristic policy.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	return &Heuristic{catalog: cfg.Catalog}
}

// hitProb estimates the chance that roll + toHit meets ac, clamped to
// [0.05, 0.95] so nothing is ever a sure thing.
func hitProb(ac, toHit int) float64 {
	needed := ac - toHit
	p := float64(21-needed) / 20
	if p < 0.05 {
		return 0.05
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}

// failProb estimates the chance the target fails a save against dc.
func failProb(dc, saveMod int) float64 {
	needed := dc - saveMod
	p := float64(needed-1) / 20
	if p < 0.05 {
		return 0.05
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}

func killBonus(expected float64, targetHP int) float64 {
	if expected >= float64(targetHP) {
		return expected * 1.5
	}
	return expected
}

// SelectAction implements Policy.
func (h *Heuristic) SelectAction(s *state.GameState, enemyIdx int, _ dice.Roller) int {
	if enemyIdx < 0 || enemyIdx >= len(s.Enemies) {
		return schema.EndTurnAction
	}
	enemy := s.Enemies[enemyIdx]
	squareSize := s.Grid.SquareSizeFt

	mask := actions.Mask(s, enemyIdx)
	targets := actions.SortedTargets(s, enemy.Pos)
	mods := h.catalog.ModifiersFor(enemy.Traits)

	bestIndex := -1
	bestUtility := 0.0
	consider := func(index int, utility float64) {
		if utility > bestUtility && mask[index] {
			bestUtility = utility
			bestIndex = index
		}
	}

	if s.ActionEconomy.Standard {
		for slot, target := range targets {
			for attackSlot, attack := range enemy.Attacks {
				if attackSlot >= schema.MaxAttacks {
					break
				}
				utility := h.attackUtility(attack, target, squareSize, enemy.Traits, mods)
				consider(schema.AttackActionStart+slot*schema.MaxAttacks+attackSlot, utility)
			}

			for spellSlot, spell := range enemy.Spells {
				if spellSlot >= schema.MaxSpells {
					break
				}
				utility := h.spellUtility(spell, target, squareSize, enemy.Traits, mods)
				if spell.Kind == state.SpellAttack {
					consider(schema.SpellAttackActionStart+slot*schema.MaxSpells+spellSlot, utility)
				} else {
					consider(schema.SpellSaveActionStart+slot*schema.MaxSpells+spellSlot, utility)
				}
			}
		}
	}

	if bestIndex >= 0 && bestUtility > 0 {
		return bestIndex
	}

	if s.ActionEconomy.Move && len(targets) > 0 {
		if move, ok := h.bestMove(s, enemy, targets[0], mask, mods); ok {
			return move
		}
	}

	if s.ActionEconomy.Standard && mask[schema.DodgeAction] {
		return schema.DodgeAction
	}
	return schema.EndTurnAction
}

func (h *Heuristic) attackUtility(attack state.AttackRecord, target actions.Target, squareSize int, traits string, mods Modifiers) float64 {
	if target.Distance > mechanics.RangeSquares(attack.RangeFt, squareSize)+mods.ReachBonus {
		return 0
	}

	expected := dice.AverageDamage(attack.Damage) * hitProb(target.Actor.AC, attack.ToHit)
	expected = killBonus(expected, target.Actor.HP)

	// Ranged attacks are worth a bit more when the target is far.
	if attack.Type == state.AttackRanged && target.Distance > 2 {
		expected *= 1.1
	}

	if mods.PreferMelee && (attack.Type == state.AttackMelee || attack.Type == state.AttackBoth) {
		expected *= 1.2
	}
	if mods.PreferRanged && attack.Type == state.AttackRanged {
		expected *= 1.2
	}
	if mods.PreferDamage {
		expected *= 1.1
	}

	actionType := "melee"
	if attack.Type == state.AttackRanged {
		actionType = "ranged"
	}
	return h.catalog.AdjustUtility(traits, BonusEnv{
		Utility:    expected,
		Distance:   target.Distance,
		TargetHP:   target.Actor.HP,
		ActionType: actionType,
	})
}

func (h *Heuristic) spellUtility(spell state.SpellRecord, target actions.Target, squareSize int, traits string, mods Modifiers) float64 {
	if target.Distance > mechanics.RangeSquares(spell.RangeFt, squareSize) {
		return 0
	}

	avg := dice.AverageDamage(spell.Damage)

	var expected float64
	actionType := "spell_attack"
	if spell.Kind == state.SpellAttack {
		expected = avg * hitProb(target.Actor.AC, spell.ToHit)
	} else {
		actionType = "spell_save"
		fail := failProb(spell.DC, target.Actor.SaveModifier(spell.Save))
		expected = avg*fail + (avg/2)*(1-fail)
		if mods.PreferControl {
			expected *= 1.2
		}
	}

	expected = killBonus(expected, target.Actor.HP)

	return h.catalog.AdjustUtility(traits, BonusEnv{
		Utility:    expected,
		Distance:   target.Distance,
		TargetHP:   target.Actor.HP,
		ActionType: actionType,
	})
}

// bestMove scores every valid move offset by how much it closes the distance
// to the nearest target; hit-and-run actors that have spent their standard
// action invert the score and retreat instead.
func (h *Heuristic) bestMove(s *state.GameState, enemy *state.Actor, closest actions.Target, mask []bool, mods Modifiers) (int, bool) {
	currentDist := closest.Distance
	retreat := mods.HitAndRun && !s.ActionEconomy.Standard

	bestIndex := -1
	bestScore := 0
	for dy := -schema.LocalGridRadius; dy <= schema.LocalGridRadius; dy++ {
		for dx := -schema.LocalGridRadius; dx <= schema.LocalGridRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			index, err := schema.MoveOffsetToIndex(dx, dy)
			if err != nil || !mask[index] {
				continue
			}

			dest := state.Position{X: enemy.Pos.X + dx, Y: enemy.Pos.Y + dy}
			score := currentDist - dest.Chebyshev(closest.Actor.Pos)
			if retreat {
				score = -score
			}

			if score > bestScore {
				bestScore = score
				bestIndex = index
			}
		}
	}

	return bestIndex, bestIndex >= 0
}
