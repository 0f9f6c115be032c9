// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schema defines the observation and action space contract shared by
// the featurizer, the action space, and the environment driver.
//
// The constants here ARE the model-compatibility contract: any change to the
// slot counts, the local radius, or the sub-range order breaks every policy
// trained against the previous layout. Version gates them in the rollout
// logger's startup record.
package schema

// Version tags the action/observation layout for downstream consumers.
const Version = "0.1.0"

// Slot counts and the local movement window.
const (
	// LocalGridRadius is the Chebyshev radius of the local terrain and
	// movement window around the active actor.
	LocalGridRadius = 5
	// LocalGridSize is the side length of the local window.
	LocalGridSize = 2*LocalGridRadius + 1

	// MaxTargets is the number of addressable target slots.
	MaxTargets = 6
	// MaxAttacks is the number of addressable attack slots.
	MaxAttacks = 6
	// MaxSpells is the number of addressable spell slots.
	MaxSpells = 6
	// MaxAbilities is the number of addressable special-ability slots.
	MaxAbilities = 6
	// MaxAllies is the number of ally slots in the observation.
	MaxAllies = 4
)

// Action sub-range boundaries. Starts are inclusive, ends exclusive.
// The order MOVE, ATTACK, SPELL_ATTACK, SPELL_SAVE, ABILITY, then the four
// singletons is fixed.
const (
	MoveActionStart = 0
	MoveActionEnd   = MoveActionStart + LocalGridSize*LocalGridSize - 1

	AttackActionStart = MoveActionEnd
	AttackActionEnd   = AttackActionStart + MaxTargets*MaxAttacks

	SpellAttackActionStart = AttackActionEnd
	SpellAttackActionEnd   = SpellAttackActionStart + MaxTargets*MaxSpells

	SpellSaveActionStart = SpellAttackActionEnd
	SpellSaveActionEnd   = SpellSaveActionStart + MaxTargets*MaxSpells

	AbilityActionStart = SpellSaveActionEnd
	AbilityActionEnd   = AbilityActionStart + MaxTargets*MaxAbilities

	DodgeAction     = AbilityActionEnd
	DashAction      = DodgeAction + 1
	DisengageAction = DashAction + 1
	EndTurnAction   = DisengageAction + 1

	// TotalActions is the size of the discrete action space.
	TotalActions = EndTurnAction + 1
)

// Observation block layout. All blocks are concatenated in this order.
const (
	GlobalSize = 4
	SelfSize   = 30

	TerrainFeaturesPerCell = 3
	TerrainSize            = LocalGridSize * LocalGridSize * TerrainFeaturesPerCell

	TargetFeatures = 8
	TargetsSize    = MaxTargets * TargetFeatures

	AttackFeatures = 4
	AttacksSize    = MaxAttacks * AttackFeatures

	SpellFeatures = 5
	SpellsSize    = MaxSpells * SpellFeatures

	AbilityFeatures = 5
	AbilitiesSize   = MaxAbilities * AbilityFeatures

	AllyFeatures = 3
	AlliesSize   = MaxAllies * AllyFeatures

	GlobalStart    = 0
	SelfStart      = GlobalStart + GlobalSize
	TerrainStart   = SelfStart + SelfSize
	TargetsStart   = TerrainStart + TerrainSize
	AttacksStart   = TargetsStart + TargetsSize
	SpellsStart    = AttacksStart + AttacksSize
	AbilitiesStart = SpellsStart + SpellsSize
	AlliesStart    = AbilitiesStart + AbilitiesSize

	// TotalObservations is the size of the observation vector.
	TotalObservations = AlliesStart + AlliesSize
)

// Featurizer scaling maxima. Values are divided by these to land in [0, 1];
// to-hit modifiers are shifted by ToHitShift first.
const (
	MaxHP       = 500
	MaxAC       = 30
	MaxSpeedFt  = 120
	MaxGridDim  = 50
	MaxRound    = 50
	MaxDistance = 50
	MaxDamage   = 100
	MaxDC       = 30
	MaxToHit    = 20
	ToHitShift  = 5
)

// ConditionNames is the fixed ordered vocabulary of condition flags in the
// self block. Expanding it changes TotalObservations and must bump Version.
var ConditionNames = [...]string{
	"prone",
	"poisoned",
	"stunned",
	"paralyzed",
	"restrained",
	"frightened",
	"charmed",
	"blinded",
	"grappled",
	"unconscious",
}

// TraitFlagNames is the fixed ordered vocabulary of trait keywords detected
// as case-insensitive substrings of an actor's trait text. Underscores match
// as either underscores or spaces.
var TraitFlagNames = [...]string{
	"pack_tactics",
	"regeneration",
	"skirmisher",
	"brute",
	"reckless",
	"nimble",
	"reach",
	"flyby",
	"ambusher",
	"magic_resistance",
}

// NumConditions and NumTraitFlags are folded into SelfSize.
const (
	NumConditions = len(ConditionNames)
	NumTraitFlags = len(TraitFlagNames)
)

func init() {
	// The self block is hp, ac, speed, x, y, four economy flags, movement
	// remaining, then the two vocabularies. A vocabulary edit that forgets to
	// adjust SelfSize would silently shift every later block.
	if SelfSize != 10+NumConditions+NumTraitFlags {
		panic("schema: self block size disagrees with vocabularies")
	}
	if TotalActions != MoveActionEnd-MoveActionStart+
		4*MaxTargets*MaxAttacks+4 {
		panic("schema: action sub-ranges disagree with total")
	}
}
