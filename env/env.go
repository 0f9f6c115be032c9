// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package env drives combat episodes step by step from the enemies'
// perspective. One step is one atomic enemy sub-action; scripted party turns
// run inside the driver whenever initiative passes through party entries.
//
// An Env owns its state exclusively and is single-threaded by contract:
// shard parallel rollouts by giving each worker its own Env with its own
// seed.
package env

import (
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/combatsim/actions"
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/featurize"
	"github.com/KirkDiggler/combatsim/mechanics"
	"github.com/KirkDiggler/combatsim/rpgerr"
	"github.com/KirkDiggler/combatsim/scenario"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// PartyPolicy selects how scripted party members act on their turns.
type PartyPolicy string

// Party policies.
const (
	// PartySimple attacks the nearest enemy, closing distance first.
	PartySimple PartyPolicy = "simple"
	// PartyPassive passes every party turn.
	PartyPassive PartyPolicy = "passive"
)

// Reward shaping weights.
const (
	DamageDealtWeight = 0.1
	DamageTakenWeight = 0.1
	KillReward        = 5.0
	InvalidPenalty    = 1.0
	TerminalBonus     = 10.0
	DefaultMaxSteps   = 100
)

// Config configures an environment instance.
type Config struct {
	// Seed is the default seed used when Reset is called with a negative one.
	Seed int64

	// Scenario shapes the generated initial state.
	Scenario scenario.Config

	// Build produces the initial state; defaults to scenario.Simple.
	Build scenario.Builder

	// MaxSteps truncates episodes; defaults to DefaultMaxSteps.
	MaxSteps int

	// PartyPolicy defaults to PartySimple.
	PartyPolicy PartyPolicy

	// Logger receives non-fatal warnings; defaults to a no-op logger.
	Logger zerolog.Logger
}

// Info accompanies every observation.
type Info struct {
	ActionMask      []bool
	CurrentEnemyIdx int
	Round           int
	StepCount       int

	// RewardComponents and ActionSpec are populated by Step only.
	RewardComponents *actions.RewardComponents
	ActionSpec       *schema.ActionSpec
}

// Env is a step-based combat environment.
type Env struct {
	cfg   Config
	build scenario.Builder
	log   zerolog.Logger

	state           *state.GameState
	roller          *dice.SeededRoller
	currentEnemyIdx int
	stepCount       int
	terminalGiven   bool
}

// New creates an environment. Reset must be called before Step.
func New(cfg Config) *Env {
	if cfg.Build == nil {
		cfg.Build = scenario.Simple
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.PartyPolicy == "" {
		cfg.PartyPolicy = PartySimple
	}

	return &Env{
		cfg:   cfg,
		build: cfg.Build,
		log:   cfg.Logger,
	}
}

// NObs returns the observation vector size.
func (e *Env) NObs() int { return schema.TotalObservations }

// NAct returns the action space size.
func (e *Env) NAct() int { return schema.TotalActions }

// State exposes the current game state for stateless callers (policies, the
// runner). Callers must not mutate it.
func (e *Env) State() *state.GameState { return e.state }

// CurrentEnemyIdx returns the index of the enemy whose turn it is.
func (e *Env) CurrentEnemyIdx() int { return e.currentEnemyIdx }

// StepCount returns the number of steps taken this episode.
func (e *Env) StepCount() int { return e.stepCount }

// Roller exposes the episode's dice roller for policies that want randomness
// on the same deterministic stream.
func (e *Env) Roller() dice.Roller { return e.roller }

// Reset starts a new episode. A negative seed falls back to the configured
// one. The returned info carries the first enemy turn's action mask.
func (e *Env) Reset(seed int64) ([]float32, Info, error) {
	if seed < 0 {
		seed = e.cfg.Seed
	}

	e.roller = dice.NewSeededRoller(seed)
	e.stepCount = 0
	e.terminalGiven = false

	built, err := e.build(e.cfg.Scenario)
	if err != nil {
		return nil, Info{}, rpgerr.Wrap(err, "build scenario")
	}
	if err := built.Validate(); err != nil {
		return nil, Info{}, rpgerr.Wrap(err, "validate scenario")
	}
	e.state = built

	e.warnUnparseableDice()
	e.advanceToEnemyTurn()

	return featurize.State(e.state, e.currentEnemyIdx), e.info(), nil
}

// Step applies one enemy action and advances the episode.
//
// After the action, the turn is finalized when the agent ended it explicitly
// or exhausted its economy: initiative advances, scripted party turns run
// (their damage lands in this step's damage_taken component), and the driver
// stops on the next enemy turn or at combat end. The terminal bonus is
// applied exactly once per episode.
func (e *Env) Step(actionIndex int) ([]float32, float64, bool, bool, Info, error) {
	if e.state == nil {
		return nil, 0, false, false, Info{}, rpgerr.InvalidState("environment not reset")
	}

	e.stepCount++

	next, components, done, _ := actions.Apply(e.state, e.currentEnemyIdx, actionIndex, e.roller)
	e.state = next

	if actionIndex == schema.EndTurnAction || e.state.ActionEconomy.Exhausted() {
		components.DamageTaken += e.finalizeTurn()
	}

	reward := DamageDealtWeight*components.DamageDealt +
		KillReward*float64(components.Kills) -
		DamageTakenWeight*components.DamageTaken +
		components.StepPenalty
	if components.InvalidAction {
		reward -= InvalidPenalty
	}

	if e.state.IsCombatOver() {
		done = true
		if !e.terminalGiven {
			e.terminalGiven = true
			if winner, _ := e.state.Winner(); winner == state.RosterEnemies {
				reward += TerminalBonus
			} else {
				reward -= TerminalBonus
			}
		}
	}

	truncated := e.stepCount >= e.cfg.MaxSteps

	info := e.info()
	info.RewardComponents = &components
	if spec, err := schema.IndexToSpec(actionIndex); err == nil {
		info.ActionSpec = &spec
	}

	return featurize.State(e.state, e.currentEnemyIdx), reward, done, truncated, info, nil
}

// finalizeTurn advances initiative past the acting enemy and any party
// entries, running the scripted party policy along the way. It returns the
// damage party members dealt to enemies while the driver held the turn.
func (e *Env) finalizeTurn() float64 {
	e.state.AdvanceTurn()
	return e.advanceToEnemyTurn()
}

// advanceToEnemyTurn walks initiative until an enemy's turn begins or combat
// ends, running start-of-turn processing for every actor whose turn starts
// and the scripted policy for party members.
func (e *Env) advanceToEnemyTurn() float64 {
	damageTaken := 0.0

	// Bounded walk: a full lap of dead or passive entries means nothing left
	// to do.
	for i := 0; i <= 2*len(e.state.Initiative); i++ {
		if e.state.IsCombatOver() {
			return damageTaken
		}

		entry, ok := e.state.CurrentEntry()
		if !ok {
			return damageTaken
		}
		actor, ok := e.state.ActorFor(entry)
		if !ok {
			e.state.AdvanceTurn()
			continue
		}

		if entry.Kind == state.RosterEnemies {
			if actor.Alive() {
				e.currentEnemyIdx = entry.Index
				actor.Dodging = false
				actor.Dashing = false
				actor.Disengaging = false
				mechanics.ProcessStartOfTurn(actor, e.roller)
				return damageTaken
			}
			e.state.AdvanceTurn()
			continue
		}

		if actor.Alive() {
			mechanics.ProcessStartOfTurn(actor, e.roller)
			if e.cfg.PartyPolicy == PartySimple {
				result := mechanics.PartySimpleTurn(e.state, entry.Index, e.roller)
				damageTaken += float64(result.Damage)
			}
		}
		e.state.AdvanceTurn()
	}

	return damageTaken
}

func (e *Env) info() Info {
	return Info{
		ActionMask:      actions.Mask(e.state, e.currentEnemyIdx),
		CurrentEnemyIdx: e.currentEnemyIdx,
		Round:           e.state.Round,
		StepCount:       e.stepCount,
	}
}

// warnUnparseableDice scans damage expressions once per episode so bad
// content is reported instead of silently rolling 1d6 forever.
func (e *Env) warnUnparseableDice() {
	warn := func(actor, kind, name, expr string) {
		if expr == "" {
			return
		}
		if _, err := dice.Parse(expr); err != nil {
			e.log.Warn().
				Str("actor", actor).
				Str(kind, name).
				Str("damage", expr).
				Msg("unparseable damage expression, rolls will fall back to 1d6")
		}
	}

	for _, roster := range [][]*state.Actor{e.state.Party, e.state.Enemies} {
		for _, a := range roster {
			for _, atk := range a.Attacks {
				warn(a.Name, "attack", atk.Name, atk.Damage)
			}
			for _, sp := range a.Spells {
				warn(a.Name, "spell", sp.Name, sp.Damage)
			}
			for _, ab := range a.SpecialAbilities {
				warn(a.Name, "ability", ab.Name, ab.Damage)
			}
		}
	}
}
