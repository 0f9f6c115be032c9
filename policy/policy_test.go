// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combatsim/actions"
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/policy"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

func duelState() *state.GameState {
	gs := state.New(state.NewGrid(12, 12))
	gs.Party = []*state.Actor{{
		Name: "Hero", HP: 20, MaxHP: 20, AC: 14, SpeedFt: 30,
		Pos:     state.Position{X: 2, Y: 6},
		Attacks: []state.AttackRecord{{Name: "Longsword", ToHit: 5, Damage: "1d8+3", RangeFt: 5, Type: state.AttackMelee}},
	}}
	gs.Enemies = []*state.Actor{{
		Name: "Goblin", HP: 7, MaxHP: 7, AC: 15, SpeedFt: 30,
		Pos: state.Position{X: 3, Y: 6},
		Attacks: []state.AttackRecord{
			{Name: "Scimitar", ToHit: 4, Damage: "1d6+2", RangeFt: 5, Type: state.AttackMelee},
			{Name: "Shortbow", ToHit: 4, Damage: "1d6+2", RangeFt: 80, Type: state.AttackRanged},
		},
	}}
	gs.Initiative = []state.InitiativeEntry{
		{Kind: state.RosterEnemies, Index: 0},
		{Kind: state.RosterParty, Index: 0},
	}
	return gs
}

func TestHeuristic_AttacksInMelee(t *testing.T) {
	gs := duelState()
	h := policy.NewHeuristic(policy.HeuristicConfig{})

	action := h.SelectAction(gs, 0, dice.NewSeededRoller(1))

	spec, err := schema.IndexToSpec(action)
	require.NoError(t, err)
	assert.Equal(t, schema.ActionAttack, spec.Type)
	assert.Equal(t, 0, spec.TargetSlot)
	assert.True(t, actions.Mask(gs, 0)[action], "the policy only returns valid indices")
}

func TestHeuristic_MovesTowardDistantTarget(t *testing.T) {
	gs := duelState()
	gs.Enemies[0].Pos = state.Position{X: 11, Y: 6}
	gs.Enemies[0].Attacks = gs.Enemies[0].Attacks[:1] // melee only

	h := policy.NewHeuristic(policy.HeuristicConfig{})
	action := h.SelectAction(gs, 0, dice.NewSeededRoller(1))

	spec, err := schema.IndexToSpec(action)
	require.NoError(t, err)
	require.Equal(t, schema.ActionMove, spec.Type)

	dest := state.Position{
		X: gs.Enemies[0].Pos.X + spec.MoveOffset.DX,
		Y: gs.Enemies[0].Pos.Y + spec.MoveOffset.DY,
	}
	before := gs.Enemies[0].Pos.Chebyshev(gs.Party[0].Pos)
	assert.Less(t, dest.Chebyshev(gs.Party[0].Pos), before, "the move closes distance")
}

func TestHeuristic_HitAndRunRetreatsAfterAttacking(t *testing.T) {
	gs := duelState()
	gs.Enemies[0].Traits = "Skirmisher: darts in and out of reach"
	gs.ActionEconomy.Standard = false // already attacked this turn

	h := policy.NewHeuristic(policy.HeuristicConfig{})
	action := h.SelectAction(gs, 0, dice.NewSeededRoller(1))

	spec, err := schema.IndexToSpec(action)
	require.NoError(t, err)
	require.Equal(t, schema.ActionMove, spec.Type)

	dest := state.Position{
		X: gs.Enemies[0].Pos.X + spec.MoveOffset.DX,
		Y: gs.Enemies[0].Pos.Y + spec.MoveOffset.DY,
	}
	before := gs.Enemies[0].Pos.Chebyshev(gs.Party[0].Pos)
	assert.Greater(t, dest.Chebyshev(gs.Party[0].Pos), before, "hit-and-run opens distance")
}

func TestHeuristic_DodgeWhenNothingElse(t *testing.T) {
	gs := duelState()
	gs.Party[0].HP = 0 // no targets at all

	h := policy.NewHeuristic(policy.HeuristicConfig{})
	action := h.SelectAction(gs, 0, dice.NewSeededRoller(1))
	assert.Equal(t, schema.DodgeAction, action)

	gs.ActionEconomy.Standard = false
	gs.ActionEconomy.Move = false
	action = h.SelectAction(gs, 0, dice.NewSeededRoller(1))
	assert.Equal(t, schema.EndTurnAction, action)
}

func TestHeuristic_PrefersSaveSpellForController(t *testing.T) {
	gs := duelState()
	enemy := gs.Enemies[0]
	enemy.Attacks = nil
	enemy.Traits = "Controller"
	enemy.Spells = []state.SpellRecord{
		{Name: "Fire Bolt", Kind: state.SpellAttack, RangeFt: 120, Damage: "1d10", ToHit: 5},
		{Name: "Hold Wave", Kind: state.SpellSave, RangeFt: 60, Damage: "2d8", DC: 14, Save: state.WIS},
	}

	h := policy.NewHeuristic(policy.HeuristicConfig{})
	action := h.SelectAction(gs, 0, dice.NewSeededRoller(1))

	spec, err := schema.IndexToSpec(action)
	require.NoError(t, err)
	assert.Equal(t, schema.ActionSpellSave, spec.Type,
		"control preference and the save blend outweigh the cantrip")
}

func TestHeuristic_InvalidEnemyEndsTurn(t *testing.T) {
	gs := duelState()
	h := policy.NewHeuristic(policy.HeuristicConfig{})
	assert.Equal(t, schema.EndTurnAction, h.SelectAction(gs, 9, dice.NewSeededRoller(1)))
}

func TestRandom_ReturnsValidIndex(t *testing.T) {
	gs := duelState()
	p := policy.NewRandom()
	roller := dice.NewSeededRoller(5)

	mask := actions.Mask(gs, 0)
	for i := 0; i < 50; i++ {
		action := p.SelectAction(gs, 0, roller)
		require.True(t, mask[action], "iteration %d returned masked index %d", i, action)
	}
}

func TestCatalog_BonusExpression(t *testing.T) {
	catalog, err := policy.NewCatalog(policy.CatalogConfig{Entries: []policy.CatalogEntry{
		{Match: "ambusher", Bonus: "target_hp <= 10 ? utility * 2.0 : utility"},
	}})
	require.NoError(t, err)

	wounded := catalog.AdjustUtility("Ambusher", policy.BonusEnv{Utility: 4, TargetHP: 8})
	assert.InDelta(t, 8.0, wounded, 1e-9)

	healthy := catalog.AdjustUtility("Ambusher", policy.BonusEnv{Utility: 4, TargetHP: 20})
	assert.InDelta(t, 4.0, healthy, 1e-9)

	unmatched := catalog.AdjustUtility("Brute", policy.BonusEnv{Utility: 4, TargetHP: 8})
	assert.InDelta(t, 4.0, unmatched, 1e-9)
}

func TestCatalog_RejectsBadExpression(t *testing.T) {
	_, err := policy.NewCatalog(policy.CatalogConfig{Entries: []policy.CatalogEntry{
		{Match: "broken", Bonus: "utility +* 2"},
	}})
	assert.Error(t, err)

	_, err = policy.NewCatalog(policy.CatalogConfig{Entries: []policy.CatalogEntry{
		{Match: ""},
	}})
	assert.Error(t, err)
}

func TestCatalog_Modifiers(t *testing.T) {
	catalog := policy.DefaultCatalog()

	mods := catalog.ModifiersFor("Skirmisher, Reckless, Reach weapons")
	assert.True(t, mods.HitAndRun)
	assert.True(t, mods.PreferDamage)
	assert.Equal(t, 1, mods.ReachBonus)
	assert.False(t, mods.PreferControl)

	assert.Zero(t, catalog.ModifiersFor(""))
}
