// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package mechanics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/state"
)

// scriptedRoller returns a fixed roll sequence, then repeats the last value.
type scriptedRoller struct {
	rolls []int
	next  int
}

func (r *scriptedRoller) Roll(_ int) (int, error) {
	if r.next < len(r.rolls) {
		v := r.rolls[r.next]
		r.next++
		return v, nil
	}
	if len(r.rolls) == 0 {
		return 1, nil
	}
	return r.rolls[len(r.rolls)-1], nil
}

func (r *scriptedRoller) RollN(count, size int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		out[i], _ = r.Roll(size)
	}
	return out, nil
}

func testState() *state.GameState {
	gs := state.New(state.NewGrid(10, 10))
	gs.Party = []*state.Actor{
		{Name: "Hero", HP: 20, MaxHP: 20, AC: 14, SpeedFt: 30, Pos: state.Position{X: 2, Y: 5},
			Attacks: []state.AttackRecord{{Name: "Longsword", ToHit: 5, Damage: "1d8+3", RangeFt: 5, Type: state.AttackMelee}}},
	}
	gs.Enemies = []*state.Actor{
		{Name: "Goblin", HP: 7, MaxHP: 7, AC: 13, SpeedFt: 30, Pos: state.Position{X: 7, Y: 5},
			Attacks: []state.AttackRecord{{Name: "Scimitar", ToHit: 4, Damage: "1d6+2", RangeFt: 5, Type: state.AttackMelee}}},
	}
	gs.Initiative = []state.InitiativeEntry{
		{Kind: state.RosterEnemies, Index: 0},
		{Kind: state.RosterParty, Index: 0},
	}
	return gs
}

func TestChebyshev(t *testing.T) {
	assert.Equal(t, 0, state.Position{X: 3, Y: 3}.Chebyshev(state.Position{X: 3, Y: 3}))
	assert.Equal(t, 4, state.Position{X: 0, Y: 0}.Chebyshev(state.Position{X: 4, Y: 2}))
	assert.Equal(t, 5, state.Position{X: 2, Y: 7}.Chebyshev(state.Position{X: 0, Y: 2}))
}

func TestIsBlocked(t *testing.T) {
	gs := testState()
	gs.Grid.Cells[5][4].Tile = state.TileWall
	gs.Grid.Cells[5][3].Tile = state.TileWater

	assert.True(t, mechanics.IsBlocked(gs, -1, 5, nil), "out of bounds")
	assert.True(t, mechanics.IsBlocked(gs, 10, 5, nil), "out of bounds")
	assert.True(t, mechanics.IsBlocked(gs, 4, 5, nil), "wall")
	assert.True(t, mechanics.IsBlocked(gs, 3, 5, nil), "water")
	assert.True(t, mechanics.IsBlocked(gs, 2, 5, nil), "occupied by hero")
	assert.False(t, mechanics.IsBlocked(gs, 2, 5, gs.Party[0]), "excluded actor does not block itself")
	assert.False(t, mechanics.IsBlocked(gs, 5, 5, nil), "open ground")

	gs.Party[0].HP = 0
	assert.False(t, mechanics.IsBlocked(gs, 2, 5, nil), "downed actors do not block")
}

func TestRangeSquares(t *testing.T) {
	assert.Equal(t, 1, mechanics.RangeSquares(5, 5))
	assert.Equal(t, 1, mechanics.RangeSquares(0, 5), "never below adjacency")
	assert.Equal(t, 16, mechanics.RangeSquares(80, 5))
}

func TestDijkstraReachable(t *testing.T) {
	gs := state.New(state.NewGrid(5, 5))
	gs.Enemies = []*state.Actor{{Name: "Goblin", HP: 7, MaxHP: 7, SpeedFt: 30, Pos: state.Position{X: 0, Y: 0}}}
	gs.Initiative = []state.InitiativeEntry{{Kind: state.RosterEnemies, Index: 0}}

	// A wall column at x=2 with a gap at y=4.
	for y := 0; y < 4; y++ {
		gs.Grid.Cells[y][2].Tile = state.TileWall
	}

	reachable := mechanics.DijkstraReachable(gs, state.Position{X: 0, Y: 0}, 4, gs.Enemies[0])

	assert.Equal(t, 0, reachable[state.Position{X: 0, Y: 0}], "start costs nothing")
	assert.Equal(t, 1, reachable[state.Position{X: 1, Y: 1}], "diagonals cost one")

	_, hasWall := reachable[state.Position{X: 2, Y: 1}]
	assert.False(t, hasWall, "walls are unreachable")

	// (3,1) requires going around the wall through (2,4): at least 5 moves.
	_, ok := reachable[state.Position{X: 3, Y: 1}]
	assert.False(t, ok, "cells behind the wall exceed the budget")

	gap, ok := reachable[state.Position{X: 2, Y: 4}]
	require.True(t, ok, "the gap is reachable")
	assert.Equal(t, 4, gap)
}

func TestDijkstraReachable_DifficultTerrain(t *testing.T) {
	gs := state.New(state.NewGrid(5, 1))
	gs.Enemies = []*state.Actor{{Name: "Goblin", HP: 7, MaxHP: 7, SpeedFt: 30, Pos: state.Position{X: 0, Y: 0}}}
	gs.Initiative = []state.InitiativeEntry{{Kind: state.RosterEnemies, Index: 0}}
	gs.Grid.Cells[0][1].Tile = state.TileDifficult

	reachable := mechanics.DijkstraReachable(gs, state.Position{X: 0, Y: 0}, 3, gs.Enemies[0])

	assert.Equal(t, 2, reachable[state.Position{X: 1, Y: 0}], "difficult terrain costs two")
	assert.Equal(t, 3, reachable[state.Position{X: 2, Y: 0}])
	_, ok := reachable[state.Position{X: 3, Y: 0}]
	assert.False(t, ok)
}

func TestResolveAttack_Natural1AlwaysMisses(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]

	// to_hit 100 would clear any AC, but the natural 1 rules it out.
	attack := state.AttackRecord{Name: "Scimitar", ToHit: 100, Damage: "1d6+2", RangeFt: 5}
	result := mechanics.ResolveAttack(attacker, target, attack, &scriptedRoller{rolls: []int{1}})

	assert.True(t, result.CritMiss)
	assert.False(t, result.Hit)
	assert.Zero(t, result.Damage)
}

func TestResolveAttack_Natural20AlwaysHitsAndDoublesDice(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]
	target.AC = 30

	// d20 = 20, then two d6 for the doubled 1d6+2.
	roller := &scriptedRoller{rolls: []int{20, 3, 4}}
	attack := state.AttackRecord{Name: "Scimitar", ToHit: 0, Damage: "1d6+2", RangeFt: 5}
	result := mechanics.ResolveAttack(attacker, target, attack, roller)

	assert.True(t, result.Hit)
	assert.True(t, result.Crit)
	assert.Equal(t, 9, result.Damage, "doubled dice, modifier added once")
}

func TestResolveAttack_HitVsAC(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]
	attack := state.AttackRecord{Name: "Scimitar", ToHit: 4, Damage: "1d6+2", RangeFt: 5}

	miss := mechanics.ResolveAttack(attacker, target, attack, &scriptedRoller{rolls: []int{9}})
	assert.False(t, miss.Hit, "9 + 4 < 14")

	hit := mechanics.ResolveAttack(attacker, target, attack, &scriptedRoller{rolls: []int{10, 5}})
	assert.True(t, hit.Hit, "10 + 4 >= 14")
	assert.Equal(t, 7, hit.Damage)
}

func TestResolveSpellSave_HalvesOnSuccess(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]
	target.Abilities = map[state.AbilityScore]int{state.DEX: 14}

	spell := state.SpellRecord{Name: "Burning Hands", Kind: state.SpellSave, RangeFt: 15, Damage: "3d6", DC: 13, Save: state.DEX}

	// Save roll 11 + 2 = 13 >= DC 13: success; damage 3+4+5=12 halves to 6.
	saved := mechanics.ResolveSpellSave(attacker, target, spell, &scriptedRoller{rolls: []int{11, 3, 4, 5}})
	assert.True(t, saved.Saved)
	assert.Equal(t, 6, saved.Damage)

	// Save roll 10 + 2 = 12 < 13: failure; full 12.
	failed := mechanics.ResolveSpellSave(attacker, target, spell, &scriptedRoller{rolls: []int{10, 3, 4, 5}})
	assert.False(t, failed.Saved)
	assert.Equal(t, 12, failed.Damage)
}

func TestResolveSpellSave_OddDamageFloors(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]
	spell := state.SpellRecord{Name: "Poison Spray", Kind: state.SpellSave, RangeFt: 10, Damage: "1d12", DC: 5, Save: state.CON}

	saved := mechanics.ResolveSpellSave(attacker, target, spell, &scriptedRoller{rolls: []int{20, 7}})
	assert.True(t, saved.Saved)
	assert.Equal(t, 3, saved.Damage, "7 / 2 floors to 3")
}

func TestResolveAbility_ConditionOnFailedSave(t *testing.T) {
	gs := testState()
	attacker, target := gs.Enemies[0], gs.Party[0]

	trip := state.SpecialAbility{
		Name: "Trip", Kind: state.AbilitySave, RangeFt: 5, DC: 13, Save: state.STR, Condition: "prone",
	}

	// Failed save applies the condition.
	result := mechanics.ResolveAbility(attacker, target, trip, &scriptedRoller{rolls: []int{2}})
	assert.False(t, result.SaveRoll.Saved)
	assert.Equal(t, "prone", result.ConditionApplied)
	assert.Equal(t, []string{"prone"}, target.Conditions)

	// Reapplying never duplicates the tag.
	again := mechanics.ResolveAbility(attacker, target, trip, &scriptedRoller{rolls: []int{2}})
	assert.Empty(t, again.ConditionApplied)
	assert.Equal(t, []string{"prone"}, target.Conditions)

	// A successful save applies nothing.
	target.Conditions = nil
	saved := mechanics.ResolveAbility(attacker, target, trip, &scriptedRoller{rolls: []int{20}})
	assert.True(t, saved.SaveRoll.Saved)
	assert.Empty(t, target.Conditions)
}

func TestCheckAbilityRecharge(t *testing.T) {
	actor := &state.Actor{
		Name:            "Dragon",
		AbilityRecharge: map[string]bool{"Fire Breath": false},
	}

	// Three rolls below the threshold keep it down.
	for i, roll := range []int{1, 3, 4} {
		ok := mechanics.CheckAbilityRecharge(actor, "Fire Breath", &scriptedRoller{rolls: []int{roll}})
		assert.False(t, ok, "roll %d (%d) should not recharge", i, roll)
		assert.False(t, actor.AbilityRecharge["Fire Breath"])
	}

	ok := mechanics.CheckAbilityRecharge(actor, "Fire Breath", &scriptedRoller{rolls: []int{5}})
	assert.True(t, ok)
	assert.True(t, actor.AbilityRecharge["Fire Breath"])

	// Already available: no roll consumed.
	roller := &scriptedRoller{rolls: []int{1}}
	assert.True(t, mechanics.CheckAbilityRecharge(actor, "Fire Breath", roller))
	assert.Zero(t, roller.next)
}

func TestProcessStartOfTurn_Regeneration(t *testing.T) {
	troll := &state.Actor{Name: "Troll", HP: 20, MaxHP: 84, Traits: "Regeneration: the troll regains hit points"}

	result := mechanics.ProcessStartOfTurn(troll, &scriptedRoller{})
	assert.Equal(t, 10, result.Regenerated)
	assert.Equal(t, 30, troll.HP)

	// Caps at max hp.
	troll.HP = 80
	result = mechanics.ProcessStartOfTurn(troll, &scriptedRoller{})
	assert.Equal(t, 4, result.Regenerated)
	assert.Equal(t, 84, troll.HP)

	// Downed trolls stay down.
	troll.HP = 0
	result = mechanics.ProcessStartOfTurn(troll, &scriptedRoller{})
	assert.Zero(t, result.Regenerated)
	assert.Zero(t, troll.HP)
}

func TestApplyDamage(t *testing.T) {
	target := &state.Actor{Name: "Hero", HP: 5, MaxHP: 20}

	result := mechanics.ApplyDamage(target, 3)
	assert.Equal(t, 2, target.HP)
	assert.False(t, result.Downed)

	result = mechanics.ApplyDamage(target, 10)
	assert.Zero(t, target.HP, "hp floors at zero")
	assert.True(t, result.Downed, "alive to zero is the downed transition")

	result = mechanics.ApplyDamage(target, 10)
	assert.Zero(t, target.HP)
	assert.False(t, result.Downed, "already-downed actors do not re-down")
}

func TestPartySimpleTurn_MovesThenAttacks(t *testing.T) {
	gs := testState()
	hero := gs.Party[0]
	goblin := gs.Enemies[0]

	// 5 squares apart with melee range 1 and 6 squares of speed: the hero
	// closes to adjacency and swings. d20 10 + 5 >= 13 hits for 1d8+3.
	roller := &scriptedRoller{rolls: []int{10, 4}}
	result := mechanics.PartySimpleTurn(gs, 0, roller)

	assert.Equal(t, mechanics.PartyTurnAttack, result.Action)
	assert.True(t, result.Moved)
	assert.Equal(t, 1, hero.Pos.Chebyshev(goblin.Pos))
	assert.True(t, result.Hit)
	assert.Equal(t, 7, result.Damage)
	assert.Equal(t, 0, goblin.HP)
	assert.True(t, result.TargetDowned)
}

func TestPartySimpleTurn_NoTargets(t *testing.T) {
	gs := testState()
	gs.Enemies[0].HP = 0

	result := mechanics.PartySimpleTurn(gs, 0, &scriptedRoller{})
	assert.Equal(t, mechanics.PartyTurnNone, result.Action)
}

func TestPartySimpleTurn_Deterministic(t *testing.T) {
	run := func() state.Position {
		gs := testState()
		gs.Enemies[0].Pos = state.Position{X: 9, Y: 9}
		mechanics.PartySimpleTurn(gs, 0, dice.NewSeededRoller(3))
		return gs.Party[0].Pos
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}
