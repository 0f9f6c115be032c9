// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package actions

import (
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// StepPenalty is the flat per-step reward component.
const StepPenalty = -0.2

// RewardComponents is the shaped-reward breakdown of one applied action.
type RewardComponents struct {
	DamageDealt      float64 `json:"damage_dealt"`
	DamageTaken      float64 `json:"damage_taken"`
	Kills            int     `json:"kills"`
	InvalidAction    bool    `json:"invalid_action"`
	StepPenalty      float64 `json:"step_penalty"`
	ConditionApplied bool    `json:"condition_applied"`
}

// Info describes what an applied action did.
type Info struct {
	ActionType  schema.ActionType `json:"action_type"`
	ActionValid bool              `json:"action_valid"`
	Details     map[string]any    `json:"action_details,omitempty"`
}

// Apply executes one action atomically: it clones the state, re-validates the
// action against the clone (the mask is advisory; Apply trusts nobody),
// mutates the clone, and returns it with reward components, the combat-over
// flag, and an info record. An invalid action returns the clone unchanged
// apart from nothing — no economy is consumed and no dice are rolled.
func Apply(s *state.GameState, enemyIdx int, actionIndex int, r dice.Roller) (*state.GameState, RewardComponents, bool, Info) {
	next := s.Clone()

	components := RewardComponents{StepPenalty: StepPenalty}
	info := Info{ActionType: "unknown", ActionValid: true}

	invalid := func() (*state.GameState, RewardComponents, bool, Info) {
		components.InvalidAction = true
		info.ActionValid = false
		return next, components, next.IsCombatOver(), info
	}

	spec, err := schema.IndexToSpec(actionIndex)
	if err != nil {
		return invalid()
	}
	info.ActionType = spec.Type

	if enemyIdx < 0 || enemyIdx >= len(next.Enemies) {
		return invalid()
	}
	enemy := next.Enemies[enemyIdx]

	economy := &next.ActionEconomy
	squareSize := next.Grid.SquareSizeFt
	targets := SortedTargets(next, enemy.Pos)

	// resolveTarget re-validates a slotted offensive action: standard action
	// available, both slots populated, target in range.
	resolveTarget := func(targetSlot, slot, slotCount, rangeFt int) (Target, bool) {
		if !economy.Standard || targetSlot >= len(targets) || slot >= slotCount {
			return Target{}, false
		}
		target := targets[targetSlot]
		if target.Distance > mechanics.RangeSquares(rangeFt, squareSize) {
			return Target{}, false
		}
		return target, true
	}

	// dealDamage applies damage to a ranked target and records the reward.
	dealDamage := func(target Target, damage int) {
		result := mechanics.ApplyDamage(target.Actor, damage)
		components.DamageDealt = float64(damage)
		if result.Downed {
			components.Kills = 1
		}
		info.Details["damage"] = damage
	}

	switch spec.Type {
	case schema.ActionMove:
		dx, dy := spec.MoveOffset.DX, spec.MoveOffset.DY
		destX, destY := enemy.Pos.X+dx, enemy.Pos.Y+dy
		step := chebStep(dx, dy)

		if !economy.Move || step > mechanics.RemainingMovement(next, enemy) {
			return invalid()
		}
		if mechanics.IsBlocked(next, destX, destY, enemy) {
			return invalid()
		}

		from := enemy.Pos
		enemy.Pos = state.Position{X: destX, Y: destY}
		next.MovementUsed += step
		if next.MovementUsed >= mechanics.MovementBudget(next, enemy) {
			economy.Move = false
		}

		info.Details = map[string]any{"from": from, "to": enemy.Pos, "distance": step}

	case schema.ActionAttack:
		attacks := attackSlots(enemy)
		var attack state.AttackRecord
		if spec.AttackSlot < len(attacks) {
			attack = attacks[spec.AttackSlot]
		}
		target, ok := resolveTarget(spec.TargetSlot, spec.AttackSlot, len(attacks), attack.RangeFt)
		if !ok {
			return invalid()
		}

		economy.Standard = false
		result := mechanics.ResolveAttack(enemy, target.Actor, attack, r)
		info.Details = map[string]any{
			"attack_name": attack.Name,
			"target_name": target.Actor.Name,
			"roll":        result.Roll,
			"total":       result.Total,
			"ac":          result.AC,
		}

		switch {
		case result.CritMiss:
			info.Details["result"] = "critical_miss"
		case result.Hit:
			info.Details["result"] = "hit"
			dealDamage(target, result.Damage)
		default:
			info.Details["result"] = "miss"
		}

	case schema.ActionSpellAttack, schema.ActionSpellSave:
		spells := spellSlots(enemy)
		var spell state.SpellRecord
		if spec.SpellSlot < len(spells) {
			spell = spells[spec.SpellSlot]
		}
		wantKind := state.SpellAttack
		if spec.Type == schema.ActionSpellSave {
			wantKind = state.SpellSave
		}
		target, ok := resolveTarget(spec.TargetSlot, spec.SpellSlot, len(spells), spell.RangeFt)
		if !ok || spell.Kind != wantKind {
			return invalid()
		}

		economy.Standard = false
		info.Details = map[string]any{
			"spell_name":  spell.Name,
			"target_name": target.Actor.Name,
		}

		if spell.Kind == state.SpellAttack {
			result := mechanics.ResolveSpellAttack(enemy, target.Actor, spell, r)
			info.Details["roll"] = result.Roll
			info.Details["total"] = result.Total
			info.Details["ac"] = result.AC

			switch {
			case result.CritMiss:
				info.Details["result"] = "critical_miss"
			case result.Hit:
				info.Details["result"] = "hit"
				dealDamage(target, result.Damage)
			default:
				info.Details["result"] = "miss"
			}
		} else {
			result := mechanics.ResolveSpellSave(enemy, target.Actor, spell, r)
			info.Details["dc"] = result.DC
			info.Details["save"] = string(result.Save)
			info.Details["roll"] = result.Roll
			info.Details["total"] = result.Total
			if result.Saved {
				info.Details["result"] = "saved"
			} else {
				info.Details["result"] = "failed"
			}
			dealDamage(target, result.Damage)
		}

	case schema.ActionAbility:
		abilities := abilitySlots(enemy)
		var ability state.SpecialAbility
		if spec.AbilitySlot < len(abilities) {
			ability = abilities[spec.AbilitySlot]
		}
		target, ok := resolveTarget(spec.TargetSlot, spec.AbilitySlot, len(abilities), ability.RangeFt)
		if !ok || !enemy.AbilityAvailable(ability) {
			return invalid()
		}

		economy.Standard = false
		info.Details = map[string]any{
			"ability_name": ability.Name,
			"target_name":  target.Actor.Name,
			"ability_type": string(ability.Kind),
		}

		result := mechanics.ResolveAbility(enemy, target.Actor, ability, r)
		if ability.Kind == state.AbilityAttack {
			info.Details["roll"] = result.Attack.Roll
			info.Details["total"] = result.Attack.Total
			info.Details["ac"] = result.Attack.AC
			switch {
			case result.Attack.CritMiss:
				info.Details["result"] = "critical_miss"
			case result.Attack.Hit:
				info.Details["result"] = "hit"
				dealDamage(target, result.Damage)
			default:
				info.Details["result"] = "miss"
			}
		} else {
			info.Details["dc"] = result.SaveRoll.DC
			info.Details["save"] = string(result.SaveRoll.Save)
			info.Details["roll"] = result.SaveRoll.Roll
			info.Details["total"] = result.SaveRoll.Total
			if result.SaveRoll.Saved {
				info.Details["result"] = "saved"
			} else {
				info.Details["result"] = "failed"
			}
			if ability.Damage != "" {
				dealDamage(target, result.Damage)
			}
			if result.ConditionApplied != "" {
				components.ConditionApplied = true
				info.Details["condition_applied"] = result.ConditionApplied
			}
		}

		// Spend the ability after resolution.
		if ability.Recharge != "" {
			if enemy.AbilityRecharge == nil {
				enemy.AbilityRecharge = make(map[string]bool)
			}
			enemy.AbilityRecharge[ability.Name] = false
		}
		if ability.Uses > 0 {
			if enemy.AbilityUses == nil {
				enemy.AbilityUses = make(map[string]int)
			}
			remaining := ability.Uses
			if tracked, ok := enemy.AbilityUses[ability.Name]; ok {
				remaining = tracked
			}
			remaining--
			if remaining < 0 {
				remaining = 0
			}
			enemy.AbilityUses[ability.Name] = remaining
		}

	case schema.ActionDodge:
		if !economy.Standard {
			return invalid()
		}
		economy.Standard = false
		enemy.Dodging = true
		info.Details = map[string]any{"effect": "dodging until next turn"}

	case schema.ActionDash:
		if !economy.Standard {
			return invalid()
		}
		economy.Standard = false
		enemy.Dashing = true
		// A dash refreshes the movement counter rather than widening the
		// budget, so back-to-back dashes keep extending the turn's movement.
		next.MovementUsed = 0
		economy.Move = true
		info.Details = map[string]any{"effect": "can move again this turn"}

	case schema.ActionDisengage:
		if !economy.Standard {
			return invalid()
		}
		economy.Standard = false
		enemy.Disengaging = true
		info.Details = map[string]any{"effect": "no opportunity attacks this turn"}

	case schema.ActionEndTurn:
		// No state change; the environment advances initiative.
	}

	return next, components, next.IsCombatOver(), info
}
