// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package mechanics

import (
	"sort"
	"strings"

	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/state"
)

// RechargeThreshold is the minimum d6 roll that restores a spent recharge
// ability at the start of its owner's turn.
const RechargeThreshold = 5

// RegenerationAmount is the hp restored per turn by the regeneration trait.
const RegenerationAmount = 10

// CheckAbilityRecharge rolls for a spent recharge ability. An ability that is
// not tracked as spent counts as available without rolling. Returns whether
// the ability is available after the check.
func CheckAbilityRecharge(actor *state.Actor, name string, r dice.Roller) bool {
	if ready, tracked := actor.AbilityRecharge[name]; !tracked || ready {
		return true
	}

	if dice.Sum(r, 1, 6) >= RechargeThreshold {
		actor.AbilityRecharge[name] = true
		return true
	}

	return false
}

// StartOfTurnResult reports what happened when a turn began.
type StartOfTurnResult struct {
	// Recharged lists abilities restored by this turn's recharge rolls.
	Recharged []string
	// Regenerated is the hp restored by the regeneration trait.
	Regenerated int
}

// ProcessStartOfTurn runs start-of-turn effects for the actor: recharge rolls
// for every spent recharge ability, then regeneration for actors whose trait
// text carries the regeneration marker. Downed actors do not regenerate.
func ProcessStartOfTurn(actor *state.Actor, r dice.Roller) StartOfTurnResult {
	var result StartOfTurnResult

	// Deterministic roll order: ability list order, not map order.
	for _, ability := range actor.SpecialAbilities {
		if ready, tracked := actor.AbilityRecharge[ability.Name]; tracked && !ready {
			if CheckAbilityRecharge(actor, ability.Name, r) {
				result.Recharged = append(result.Recharged, ability.Name)
			}
		}
	}

	if strings.Contains(strings.ToLower(actor.Traits), "regeneration") {
		if actor.HP > 0 && actor.HP < actor.MaxHP {
			old := actor.HP
			actor.HP += RegenerationAmount
			if actor.HP > actor.MaxHP {
				actor.HP = actor.MaxHP
			}
			result.Regenerated = actor.HP - old
		}
	}

	return result
}

// PartyTurnAction names what a scripted party turn did.
type PartyTurnAction string

// Scripted party turn outcomes.
const (
	PartyTurnNone     PartyTurnAction = "none"
	PartyTurnAttack   PartyTurnAction = "attack"
	PartyTurnMoveOnly PartyTurnAction = "move_only"
)

// PartyTurnResult reports a scripted party member turn.
type PartyTurnResult struct {
	Action       PartyTurnAction
	Moved        bool
	TargetIdx    int
	AttackName   string
	Hit          bool
	Crit         bool
	CritMiss     bool
	Damage       int
	TargetDowned bool
}

// PartySimpleTurn runs the scripted "attack nearest" party policy for one
// party member: close distance along the weighted grid if out of range, then
// swing the first attack if in range.
func PartySimpleTurn(s *state.GameState, partyIdx int, r dice.Roller) PartyTurnResult {
	if partyIdx < 0 || partyIdx >= len(s.Party) {
		return PartyTurnResult{Action: PartyTurnNone, TargetIdx: -1}
	}

	member := s.Party[partyIdx]
	if !member.Alive() {
		return PartyTurnResult{Action: PartyTurnNone, TargetIdx: -1}
	}

	// Nearest alive enemy; ties go to roster order.
	targetIdx := -1
	targetDist := 0
	for i, enemy := range s.Enemies {
		if !enemy.Alive() {
			continue
		}
		d := member.Pos.Chebyshev(enemy.Pos)
		if targetIdx < 0 || d < targetDist {
			targetIdx = i
			targetDist = d
		}
	}
	if targetIdx < 0 {
		return PartyTurnResult{Action: PartyTurnNone, TargetIdx: -1}
	}
	target := s.Enemies[targetIdx]

	if len(member.Attacks) == 0 {
		return PartyTurnResult{Action: PartyTurnNone, TargetIdx: targetIdx}
	}
	attack := member.Attacks[0]
	rangeSquares := RangeSquares(attack.RangeFt, s.Grid.SquareSizeFt)

	result := PartyTurnResult{TargetIdx: targetIdx}

	if targetDist > rangeSquares {
		if dest, ok := bestApproach(s, member, target.Pos, targetDist); ok {
			member.Pos = dest
			result.Moved = true
			targetDist = dest.Chebyshev(target.Pos)
		}
	}

	if targetDist > rangeSquares {
		result.Action = PartyTurnMoveOnly
		return result
	}

	result.Action = PartyTurnAttack
	result.AttackName = attack.Name

	attackResult := ResolveAttack(member, target, attack, r)
	result.Hit = attackResult.Hit
	result.Crit = attackResult.Crit
	result.CritMiss = attackResult.CritMiss

	if attackResult.Hit {
		damageResult := ApplyDamage(target, attackResult.Damage)
		result.Damage = attackResult.Damage
		result.TargetDowned = damageResult.Downed
	}

	return result
}

// bestApproach picks the reachable cell within the member's movement budget
// that minimizes Chebyshev distance to goal, breaking ties by path cost then
// coordinates so turns replay identically.
func bestApproach(s *state.GameState, member *state.Actor, goal state.Position, currentDist int) (state.Position, bool) {
	reachable := DijkstraReachable(s, member.Pos, MovementBudget(s, member), member)

	type candidate struct {
		pos  state.Position
		dist int
		cost int
	}

	candidates := make([]candidate, 0, len(reachable))
	for pos, cost := range reachable {
		if pos == member.Pos {
			continue
		}
		candidates = append(candidates, candidate{pos: pos, dist: pos.Chebyshev(goal), cost: cost})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.pos.Y != b.pos.Y {
			return a.pos.Y < b.pos.Y
		}
		return a.pos.X < b.pos.X
	})

	if len(candidates) == 0 || candidates[0].dist >= currentDist {
		return state.Position{}, false
	}
	return candidates[0].pos, true
}
