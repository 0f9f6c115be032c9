// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package runner_test

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combatsim/env"
	"github.com/KirkDiggler/combatsim/policy"
	"github.com/KirkDiggler/combatsim/rollout"
	"github.com/KirkDiggler/combatsim/runner"
	"github.com/KirkDiggler/combatsim/scenario"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// weakPartyBuilder produces a scenario the heuristic enemies reliably win:
// one-hit-point heroes that never act.
func weakPartyBuilder(cfg scenario.Config) (*state.GameState, error) {
	gs, err := scenario.Simple(cfg)
	if err != nil {
		return nil, err
	}
	for _, hero := range gs.Party {
		hero.HP = 1
		hero.MaxHP = 1
	}
	for _, goblin := range gs.Enemies {
		for i := range goblin.Attacks {
			goblin.Attacks[i].ToHit = 10
		}
	}
	return gs, nil
}

func TestRunEpisode_HeuristicBeatsPassiveParty(t *testing.T) {
	e := env.New(env.Config{
		Build:       weakPartyBuilder,
		PartyPolicy: env.PartyPassive,
	})

	result, err := runner.RunEpisode(e, policy.NewHeuristic(policy.HeuristicConfig{}), 6, nil)
	require.NoError(t, err)

	assert.True(t, result.Done, "the episode terminates")
	assert.Equal(t, state.RosterEnemies, result.Winner)
	assert.Equal(t, 2, result.Kills)
	assert.Greater(t, result.TotalReward, 5.0, "terminal bonus and kill rewards dominate")
	assert.Greater(t, result.Steps, 0)
}

func TestRunEpisode_Logs(t *testing.T) {
	dir := t.TempDir()
	logger, err := rollout.New(rollout.Config{Dir: dir, Enabled: true})
	require.NoError(t, err)

	e := env.New(env.Config{Build: weakPartyBuilder, PartyPolicy: env.PartyPassive})
	result, err := runner.RunEpisode(e, policy.NewHeuristic(policy.HeuristicConfig{}), 6, logger)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Greater(t, result.Steps, 0)
}

func TestRunEpisodes_Aggregates(t *testing.T) {
	e := env.New(env.Config{Build: weakPartyBuilder, PartyPolicy: env.PartyPassive})

	batch, err := runner.RunEpisodes(e, policy.NewHeuristic(policy.HeuristicConfig{}), 5, 100, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 5, batch.Episodes)
	require.Len(t, batch.Results, 5)

	assert.Equal(t, 1.0, batch.EnemyWinRate)
	assert.Zero(t, batch.PartyWinRate)
	assert.Equal(t, 2.0, batch.AvgKills)
	assert.Greater(t, batch.AvgSteps, 0.0)
	assert.GreaterOrEqual(t, batch.StdReward, 0.0)
	assert.Zero(t, batch.InvalidActionRate, "the heuristic only plays valid actions")

	// Same seeds reproduce the same batch.
	again, err := runner.RunEpisodes(e, policy.NewHeuristic(policy.HeuristicConfig{}), 5, 100, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, batch.AvgReward, again.AvgReward)
	assert.Equal(t, batch.AvgSteps, again.AvgSteps)
}

func TestRunEpisodes_RejectsBadCount(t *testing.T) {
	e := env.New(env.Config{Build: weakPartyBuilder})
	_, err := runner.RunEpisodes(e, policy.NewRandom(), 0, 1, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestDimensions(t *testing.T) {
	nObs, nAct := runner.Dimensions()
	assert.Equal(t, schema.TotalObservations, nObs)
	assert.Equal(t, schema.TotalActions, nAct)
}
