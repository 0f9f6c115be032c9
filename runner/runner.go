// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package runner orchestrates batches of combat episodes under a policy and
// aggregates the statistics a training loop cares about.
package runner

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/combatsim/env"
	"github.com/KirkDiggler/combatsim/policy"
	"github.com/KirkDiggler/combatsim/rollout"
	"github.com/KirkDiggler/combatsim/rpgerr"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// EpisodeResult summarizes one episode.
type EpisodeResult struct {
	Seed           int64
	TotalReward    float64
	Steps          int
	DamageDealt    float64
	DamageTaken    float64
	Kills          int
	InvalidActions int
	Winner         state.RosterKind
	Done           bool
	Truncated      bool
}

// BatchResult aggregates a batch of episodes.
type BatchResult struct {
	Episodes          int
	AvgReward         float64
	StdReward         float64
	AvgSteps          float64
	AvgDamageDealt    float64
	AvgKills          float64
	InvalidActionRate float64
	EnemyWinRate      float64
	PartyWinRate      float64
	Results           []EpisodeResult
}

// RunEpisode runs a single seeded episode of e under p, optionally logging
// every transition.
func RunEpisode(e *env.Env, p policy.Policy, seed int64, logger *rollout.Logger) (EpisodeResult, error) {
	obs, _, err := e.Reset(seed)
	if err != nil {
		return EpisodeResult{}, rpgerr.Wrap(err, "reset episode")
	}

	if logger != nil {
		logger.StartEpisode(seed, "")
	}

	result := EpisodeResult{Seed: seed}

	for {
		actionIndex := p.SelectAction(e.State(), e.CurrentEnemyIdx(), e.Roller())

		nextObs, reward, done, truncated, info, err := e.Step(actionIndex)
		if err != nil {
			return result, rpgerr.Wrap(err, "step episode")
		}

		result.TotalReward += reward
		result.Steps++
		if components := info.RewardComponents; components != nil {
			result.DamageDealt += components.DamageDealt
			result.DamageTaken += components.DamageTaken
			result.Kills += components.Kills
			if components.InvalidAction {
				result.InvalidActions++
			}
		}

		if logger != nil {
			record := rollout.StepRecord{
				Obs:         obs,
				ActionIndex: actionIndex,
				ActionSpec:  info.ActionSpec,
				Reward:      reward,
				Done:        done,
				Truncated:   truncated,
				NextObs:     nextObs,
			}
			if info.RewardComponents != nil {
				record.RewardComponents = *info.RewardComponents
			}
			record.Info = rollout.StepInfo{ActionValid: !record.RewardComponents.InvalidAction}
			if info.ActionSpec != nil {
				record.Info.ActionType = info.ActionSpec.Type
			}
			logger.LogStep(record)
		}

		obs = nextObs

		if done || truncated {
			result.Done = done
			result.Truncated = truncated
			break
		}
	}

	if winner, over := e.State().Winner(); over {
		result.Winner = winner
	}

	if logger != nil {
		logger.EndEpisode(result.TotalReward, string(result.Winner))
	}

	return result, nil
}

// RunEpisodes runs n episodes with consecutive seeds starting at baseSeed
// and aggregates their statistics.
func RunEpisodes(e *env.Env, p policy.Policy, n int, baseSeed int64, logger *rollout.Logger, log zerolog.Logger) (BatchResult, error) {
	if n <= 0 {
		return BatchResult{}, rpgerr.InvalidArgumentf("episode count %d", n)
	}

	batch := BatchResult{Episodes: n, Results: make([]EpisodeResult, 0, n)}

	for i := 0; i < n; i++ {
		seed := baseSeed + int64(i)

		result, err := RunEpisode(e, p, seed, logger)
		if err != nil {
			return batch, rpgerr.Wrap(err, "run episode",
				rpgerr.WithMeta("episode", i),
				rpgerr.WithMeta("seed", seed))
		}
		batch.Results = append(batch.Results, result)

		log.Debug().
			Int("episode", i).
			Int64("seed", seed).
			Float64("reward", result.TotalReward).
			Int("steps", result.Steps).
			Str("winner", string(result.Winner)).
			Msg("episode complete")
	}

	aggregate(&batch)
	return batch, nil
}

func aggregate(batch *BatchResult) {
	n := float64(len(batch.Results))
	if n == 0 {
		return
	}

	totalSteps := 0
	enemyWins, partyWins, invalid := 0, 0, 0
	for _, r := range batch.Results {
		batch.AvgReward += r.TotalReward
		batch.AvgDamageDealt += r.DamageDealt
		batch.AvgKills += float64(r.Kills)
		totalSteps += r.Steps
		invalid += r.InvalidActions

		switch r.Winner {
		case state.RosterEnemies:
			enemyWins++
		case state.RosterParty:
			partyWins++
		}
	}

	batch.AvgReward /= n
	batch.AvgDamageDealt /= n
	batch.AvgKills /= n
	batch.AvgSteps = float64(totalSteps) / n
	batch.EnemyWinRate = float64(enemyWins) / n
	batch.PartyWinRate = float64(partyWins) / n
	if totalSteps > 0 {
		batch.InvalidActionRate = float64(invalid) / float64(totalSteps)
	}

	variance := 0.0
	for _, r := range batch.Results {
		d := r.TotalReward - batch.AvgReward
		variance += d * d
	}
	batch.StdReward = math.Sqrt(variance / n)
}

// Dimensions returns the observation/action sizes a consumer should
// validate against before training on logged rollouts.
func Dimensions() (nObs, nAct int) {
	return schema.TotalObservations, schema.TotalActions
}
