// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package schema

import (
	"github.com/KirkDiggler/combatsim/rpgerr"
)

// ActionType identifies which sub-range of the action space an index falls in.
type ActionType string

// Action types, one per sub-range plus the four singletons.
const (
	ActionMove        ActionType = "move"
	ActionAttack      ActionType = "attack"
	ActionSpellAttack ActionType = "spell_attack"
	ActionSpellSave   ActionType = "spell_save"
	ActionAbility     ActionType = "ability"
	ActionDodge       ActionType = "dodge"
	ActionDash        ActionType = "dash"
	ActionDisengage   ActionType = "disengage"
	ActionEndTurn     ActionType = "end_turn"
)

// MoveOffset is a Chebyshev step within the local window.
type MoveOffset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// ActionSpec is the structured form of a discrete action index.
// Only the fields relevant to Type are meaningful.
type ActionSpec struct {
	Type        ActionType `json:"action_type"`
	MoveOffset  MoveOffset `json:"move_offset"`
	TargetSlot  int        `json:"target_slot,omitempty"`
	AttackSlot  int        `json:"attack_slot,omitempty"`
	SpellSlot   int        `json:"spell_slot,omitempty"`
	AbilitySlot int        `json:"ability_slot,omitempty"`
}

// moveCenter is the raw row-major index of the (0,0) offset, which has no
// action: indices at or above it are shifted down by one.
const moveCenter = LocalGridRadius*LocalGridSize + LocalGridRadius

// MoveOffsetToIndex converts a local offset to its MOVE sub-range index.
func MoveOffsetToIndex(dx, dy int) (int, error) {
	if dx == 0 && dy == 0 {
		return 0, rpgerr.InvalidArgument("move offset (0,0) has no action index")
	}
	if dx < -LocalGridRadius || dx > LocalGridRadius ||
		dy < -LocalGridRadius || dy > LocalGridRadius {
		return 0, rpgerr.OutOfRangef("move offset (%d,%d) outside local window", dx, dy)
	}

	raw := (dy+LocalGridRadius)*LocalGridSize + (dx + LocalGridRadius)
	if raw > moveCenter {
		raw--
	}
	return MoveActionStart + raw, nil
}

// moveIndexToOffset is the inverse of MoveOffsetToIndex for an index already
// known to be inside the MOVE sub-range.
func moveIndexToOffset(index int) MoveOffset {
	raw := index - MoveActionStart
	if raw >= moveCenter {
		raw++
	}
	return MoveOffset{
		DX: raw%LocalGridSize - LocalGridRadius,
		DY: raw/LocalGridSize - LocalGridRadius,
	}
}

// IndexToSpec converts a discrete action index to its structured form.
func IndexToSpec(index int) (ActionSpec, error) {
	switch {
	case index < 0 || index >= TotalActions:
		return ActionSpec{}, rpgerr.OutOfRangef("action index %d outside [0, %d)", index, TotalActions)

	case index < MoveActionEnd:
		return ActionSpec{Type: ActionMove, MoveOffset: moveIndexToOffset(index)}, nil

	case index < AttackActionEnd:
		slot := index - AttackActionStart
		return ActionSpec{
			Type:       ActionAttack,
			TargetSlot: slot / MaxAttacks,
			AttackSlot: slot % MaxAttacks,
		}, nil

	case index < SpellAttackActionEnd:
		slot := index - SpellAttackActionStart
		return ActionSpec{
			Type:       ActionSpellAttack,
			TargetSlot: slot / MaxSpells,
			SpellSlot:  slot % MaxSpells,
		}, nil

	case index < SpellSaveActionEnd:
		slot := index - SpellSaveActionStart
		return ActionSpec{
			Type:       ActionSpellSave,
			TargetSlot: slot / MaxSpells,
			SpellSlot:  slot % MaxSpells,
		}, nil

	case index < AbilityActionEnd:
		slot := index - AbilityActionStart
		return ActionSpec{
			Type:        ActionAbility,
			TargetSlot:  slot / MaxAbilities,
			AbilitySlot: slot % MaxAbilities,
		}, nil

	case index == DodgeAction:
		return ActionSpec{Type: ActionDodge}, nil
	case index == DashAction:
		return ActionSpec{Type: ActionDash}, nil
	case index == DisengageAction:
		return ActionSpec{Type: ActionDisengage}, nil
	default:
		return ActionSpec{Type: ActionEndTurn}, nil
	}
}

// SpecToIndex converts a structured action back to its discrete index.
func SpecToIndex(spec ActionSpec) (int, error) {
	checkSlot := func(name string, slot, limit int) error {
		if slot < 0 || slot >= limit {
			return rpgerr.OutOfRangef("%s slot %d outside [0, %d)", name, slot, limit)
		}
		return nil
	}

	switch spec.Type {
	case ActionMove:
		return MoveOffsetToIndex(spec.MoveOffset.DX, spec.MoveOffset.DY)

	case ActionAttack:
		if err := checkSlot("target", spec.TargetSlot, MaxTargets); err != nil {
			return 0, err
		}
		if err := checkSlot("attack", spec.AttackSlot, MaxAttacks); err != nil {
			return 0, err
		}
		return AttackActionStart + spec.TargetSlot*MaxAttacks + spec.AttackSlot, nil

	case ActionSpellAttack:
		if err := checkSlot("target", spec.TargetSlot, MaxTargets); err != nil {
			return 0, err
		}
		if err := checkSlot("spell", spec.SpellSlot, MaxSpells); err != nil {
			return 0, err
		}
		return SpellAttackActionStart + spec.TargetSlot*MaxSpells + spec.SpellSlot, nil

	case ActionSpellSave:
		if err := checkSlot("target", spec.TargetSlot, MaxTargets); err != nil {
			return 0, err
		}
		if err := checkSlot("spell", spec.SpellSlot, MaxSpells); err != nil {
			return 0, err
		}
		return SpellSaveActionStart + spec.TargetSlot*MaxSpells + spec.SpellSlot, nil

	case ActionAbility:
		if err := checkSlot("target", spec.TargetSlot, MaxTargets); err != nil {
			return 0, err
		}
		if err := checkSlot("ability", spec.AbilitySlot, MaxAbilities); err != nil {
			return 0, err
		}
		return AbilityActionStart + spec.TargetSlot*MaxAbilities + spec.AbilitySlot, nil

	case ActionDodge:
		return DodgeAction, nil
	case ActionDash:
		return DashAction, nil
	case ActionDisengage:
		return DisengageAction, nil
	case ActionEndTurn:
		return EndTurnAction, nil
	default:
		return 0, rpgerr.InvalidArgumentf("unknown action type %q", spec.Type)
	}
}
