// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package state

// AbilityScore names one of the six ability scores.
type AbilityScore string

// The fixed ability score set.
const (
	STR AbilityScore = "STR"
	DEX AbilityScore = "DEX"
	CON AbilityScore = "CON"
	INT AbilityScore = "INT"
	WIS AbilityScore = "WIS"
	CHA AbilityScore = "CHA"
)

// AttackType distinguishes melee from ranged attacks.
type AttackType string

// Attack types.
const (
	AttackMelee  AttackType = "melee"
	AttackRanged AttackType = "ranged"
	AttackBoth   AttackType = "both"
)

// AttackRecord is one weapon or natural attack an actor can make.
type AttackRecord struct {
	Name    string     `json:"name"`
	ToHit   int        `json:"to_hit"`
	Damage  string     `json:"damage"`
	RangeFt int        `json:"range"`
	Type    AttackType `json:"attack_type"`
}

// SpellKind distinguishes attack-roll spells from saving-throw spells.
type SpellKind string

// Spell kinds.
const (
	SpellAttack SpellKind = "attack"
	SpellSave   SpellKind = "save"
)

// SpellRecord is one spell an actor can cast. ToHit applies to attack-kind
// spells; DC and Save apply to save-kind spells.
type SpellRecord struct {
	Name    string       `json:"name"`
	Kind    SpellKind    `json:"type"`
	RangeFt int          `json:"range"`
	Damage  string       `json:"damage"`
	ToHit   int          `json:"to_hit,omitempty"`
	DC      int          `json:"dc,omitempty"`
	Save    AbilityScore `json:"save,omitempty"`
}

// AbilityKind distinguishes the resolution policies of special abilities.
type AbilityKind string

// Special-ability kinds.
const (
	AbilityAttack  AbilityKind = "attack"
	AbilitySave    AbilityKind = "save"
	AbilityUtility AbilityKind = "utility"
)

// SpecialAbility is a monster feature such as a breath weapon. A non-empty
// Recharge marker (e.g. "5-6") means the ability goes dormant after use and
// is restored probabilistically at turn start. Uses > 0 limits total uses;
// zero means unlimited.
type SpecialAbility struct {
	Name      string       `json:"name"`
	Kind      AbilityKind  `json:"type"`
	RangeFt   int          `json:"range"`
	Damage    string       `json:"damage,omitempty"`
	ToHit     int          `json:"to_hit,omitempty"`
	DC        int          `json:"dc,omitempty"`
	Save      AbilityScore `json:"save,omitempty"`
	Condition string       `json:"condition,omitempty"`
	Recharge  string       `json:"recharge,omitempty"`
	Uses      int          `json:"uses,omitempty"`
}

// Actor is one combatant: a party member or an enemy.
type Actor struct {
	Name             string               `json:"name"`
	HP               int                  `json:"hp"`
	MaxHP            int                  `json:"max_hp"`
	AC               int                  `json:"ac"`
	SpeedFt          int                  `json:"speed_ft"`
	Pos              Position             `json:"pos"`
	Abilities        map[AbilityScore]int `json:"abilities"`
	Attacks          []AttackRecord       `json:"attacks"`
	Spells           []SpellRecord        `json:"spells"`
	SpecialAbilities []SpecialAbility     `json:"special_abilities"`
	Conditions       []string             `json:"conditions"`
	Traits           string               `json:"traits"`

	// AbilityRecharge maps ability name -> available. A missing entry means
	// the ability has never been spent, i.e. available.
	AbilityRecharge map[string]bool `json:"ability_recharge,omitempty"`
	// AbilityUses maps ability name -> remaining uses. A missing entry means
	// the full Uses count remains.
	AbilityUses map[string]int `json:"ability_uses,omitempty"`

	Dodging     bool `json:"dodging,omitempty"`
	Dashing     bool `json:"dashing,omitempty"`
	Disengaging bool `json:"disengaging,omitempty"`
}

// Alive reports whether the actor is still up. Downed actors take no turns,
// block no cells, and cannot be targeted.
func (a *Actor) Alive() bool {
	return a.HP > 0
}

// AbilityScoreOf returns the named score, defaulting to 10.
func (a *Actor) AbilityScoreOf(score AbilityScore) int {
	if v, ok := a.Abilities[score]; ok {
		return v
	}
	return 10
}

// SaveModifier returns the saving-throw modifier for the named score:
// (score - 10) / 2, floored.
func (a *Actor) SaveModifier(score AbilityScore) int {
	v := a.AbilityScoreOf(score) - 10
	if v < 0 {
		// Go integer division truncates toward zero; saves floor.
		return -((-v + 1) / 2)
	}
	return v / 2
}

// AbilityAvailable reports whether the named special ability can be used:
// its recharge flag (if it has one) is up and it has uses remaining (if
// limited).
func (a *Actor) AbilityAvailable(ability SpecialAbility) bool {
	if ability.Recharge != "" {
		if ready, tracked := a.AbilityRecharge[ability.Name]; tracked && !ready {
			return false
		}
	}

	if ability.Uses > 0 {
		remaining := ability.Uses
		if r, tracked := a.AbilityUses[ability.Name]; tracked {
			remaining = r
		}
		if remaining <= 0 {
			return false
		}
	}

	return true
}

// HasCondition reports whether the named condition tag is active.
func (a *Actor) HasCondition(name string) bool {
	for _, c := range a.Conditions {
		if c == name {
			return true
		}
	}
	return false
}

// AddCondition appends a condition tag if not already present and reports
// whether it was added.
func (a *Actor) AddCondition(name string) bool {
	if a.HasCondition(name) {
		return false
	}
	a.Conditions = append(a.Conditions, name)
	return true
}

// Clone deep-copies the actor.
func (a *Actor) Clone() *Actor {
	clone := *a

	if a.Abilities != nil {
		clone.Abilities = make(map[AbilityScore]int, len(a.Abilities))
		for k, v := range a.Abilities {
			clone.Abilities[k] = v
		}
	}

	clone.Attacks = append([]AttackRecord(nil), a.Attacks...)
	clone.Spells = append([]SpellRecord(nil), a.Spells...)
	clone.SpecialAbilities = append([]SpecialAbility(nil), a.SpecialAbilities...)
	clone.Conditions = append([]string(nil), a.Conditions...)

	if a.AbilityRecharge != nil {
		clone.AbilityRecharge = make(map[string]bool, len(a.AbilityRecharge))
		for k, v := range a.AbilityRecharge {
			clone.AbilityRecharge[k] = v
		}
	}
	if a.AbilityUses != nil {
		clone.AbilityUses = make(map[string]int, len(a.AbilityUses))
		for k, v := range a.AbilityUses {
			clone.AbilityUses[k] = v
		}
	}

	return &clone
}
