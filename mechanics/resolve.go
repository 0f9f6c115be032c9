// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package mechanics

import (
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/state"
)

// AttackResult reports the outcome of an attack roll.
type AttackResult struct {
	Hit      bool
	Crit     bool
	CritMiss bool
	Damage   int
	Roll     int
	Total    int
	AC       int
}

// resolveToHit runs the shared d20-vs-AC policy: a natural 1 always misses,
// a natural 20 always hits and crits, otherwise hit iff roll + toHit >= AC.
// Crits double the damage dice count, never the flat modifier.
func resolveToHit(target *state.Actor, toHit int, damage string, r dice.Roller) AttackResult {
	d20 := dice.D20(r)
	result := AttackResult{
		Roll:  d20,
		Total: d20 + toHit,
		AC:    target.AC,
	}

	switch {
	case d20 == 1:
		result.CritMiss = true
		return result
	case d20 == 20:
		result.Hit = true
		result.Crit = true
	case result.Total >= target.AC:
		result.Hit = true
	}

	if result.Hit {
		result.Damage = dice.ParseAndRoll(r, damageOr(damage, "1d6"), result.Crit)
	}

	return result
}

func damageOr(damage, fallback string) string {
	if damage == "" {
		return fallback
	}
	return damage
}

// ResolveAttack resolves a weapon attack against a target.
func ResolveAttack(attacker, target *state.Actor, attack state.AttackRecord, r dice.Roller) AttackResult {
	return resolveToHit(target, attack.ToHit, attack.Damage, r)
}

// ResolveSpellAttack resolves an attack-kind spell against a target.
func ResolveSpellAttack(attacker, target *state.Actor, spell state.SpellRecord, r dice.Roller) AttackResult {
	return resolveToHit(target, spell.ToHit, spell.Damage, r)
}

// SaveResult reports the outcome of a saving throw.
type SaveResult struct {
	Saved  bool
	Damage int
	Roll   int
	Total  int
	DC     int
	Save   state.AbilityScore
}

// resolveSave rolls the target's save against dc and computes damage: full on
// a failed save, half (integer division) on a success.
func resolveSave(target *state.Actor, dc int, save state.AbilityScore, damage string, r dice.Roller) SaveResult {
	d20 := dice.D20(r)
	result := SaveResult{
		Roll:  d20,
		Total: d20 + target.SaveModifier(save),
		DC:    dc,
		Save:  save,
	}
	result.Saved = result.Total >= dc

	if damage != "" {
		full := dice.ParseAndRoll(r, damage, false)
		if result.Saved {
			result.Damage = full / 2
		} else {
			result.Damage = full
		}
	}

	return result
}

// ResolveSpellSave resolves a save-kind spell against a target.
func ResolveSpellSave(attacker, target *state.Actor, spell state.SpellRecord, r dice.Roller) SaveResult {
	return resolveSave(target, spell.DC, spell.Save, damageOr(spell.Damage, "1d6"), r)
}

// AbilityResult reports the outcome of a special ability. Exactly one of the
// embedded results is meaningful depending on the ability kind.
type AbilityResult struct {
	Kind             state.AbilityKind
	Attack           AttackResult
	SaveRoll         SaveResult
	Damage           int
	ConditionApplied string
}

// ResolveAbility resolves a special ability: attack-kind abilities follow the
// attack policy, save-kind abilities follow the save policy and additionally
// apply the ability's condition tag to the target on a failed save. The
// condition append is idempotent.
func ResolveAbility(attacker, target *state.Actor, ability state.SpecialAbility, r dice.Roller) AbilityResult {
	result := AbilityResult{Kind: ability.Kind}

	if ability.Kind == state.AbilityAttack {
		result.Attack = resolveToHit(target, ability.ToHit, damageOr(ability.Damage, "2d6"), r)
		result.Damage = result.Attack.Damage
		return result
	}

	result.SaveRoll = resolveSave(target, ability.DC, ability.Save, ability.Damage, r)
	result.Damage = result.SaveRoll.Damage

	if ability.Condition != "" && !result.SaveRoll.Saved {
		if target.AddCondition(ability.Condition) {
			result.ConditionApplied = ability.Condition
		}
	}

	return result
}

// DamageResult reports applied damage.
type DamageResult struct {
	Damage int
	OldHP  int
	NewHP  int
	// Downed is true only on the alive -> 0 hp transition.
	Downed bool
}

// ApplyDamage subtracts damage from the target's hp, flooring at 0.
func ApplyDamage(target *state.Actor, damage int) DamageResult {
	old := target.HP
	target.HP = old - damage
	if target.HP < 0 {
		target.HP = 0
	}

	return DamageResult{
		Damage: damage,
		OldHP:  old,
		NewHP:  target.HP,
		Downed: target.HP == 0 && old > 0,
	}
}
