// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rollout writes reinforcement-learning training data as
// newline-delimited JSON, one file per episode.
//
// Writes are append-only and best-effort: a failed write is reported through
// the warning logger and the episode keeps running. Training-data gaps are
// recoverable; aborted episodes are not.
package rollout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/combatsim/actions"
	"github.com/KirkDiggler/combatsim/rpgerr"
	"github.com/KirkDiggler/combatsim/schema"
)

// Config configures a rollout logger.
type Config struct {
	// Dir is the directory rollout files are written into.
	Dir string

	// Enabled gates all writes; a disabled logger is a no-op.
	Enabled bool

	// Logger receives write-failure warnings; defaults to a no-op logger.
	Logger zerolog.Logger
}

// Logger writes episode rollouts in JSONL format.
type Logger struct {
	enabled bool
	dir     string
	log     zerolog.Logger

	file      *os.File
	episodeID string
	stepIdx   int
	seed      int64
}

// New creates a rollout logger, creating the directory if needed.
func New(cfg Config) (*Logger, error) {
	if cfg.Enabled {
		if cfg.Dir == "" {
			return nil, rpgerr.InvalidArgument("rollout logger enabled without a directory")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, rpgerr.WrapWithCode(err, rpgerr.CodeInternal, "create rollout directory")
		}
	}

	return &Logger{
		enabled: cfg.Enabled,
		dir:     cfg.Dir,
		log:     cfg.Logger,
	}, nil
}

// startupRecord is the first line of every rollout file. Downstream
// consumers validate dimensions against it before touching the data.
type startupRecord struct {
	Type          string `json:"type"`
	EngineVersion string `json:"engine_version"`
	NObs          int    `json:"n_obs"`
	NAct          int    `json:"n_act"`
	Timestamp     string `json:"timestamp"`
}

// episodeStartRecord marks an episode boundary.
type episodeStartRecord struct {
	Type      string `json:"type"`
	EpisodeID string `json:"episode_id"`
	Seed      int64  `json:"seed"`
	Timestamp string `json:"timestamp"`
}

// StepRecord is one logged transition.
type StepRecord struct {
	Timestamp        string                   `json:"timestamp"`
	Seed             int64                    `json:"seed"`
	EpisodeID        string                   `json:"episode_id"`
	StepIdx          int                      `json:"step_idx"`
	Obs              []float32                `json:"obs"`
	ActionIndex      int                      `json:"action_index"`
	ActionSpec       *schema.ActionSpec       `json:"action_spec,omitempty"`
	Reward           float64                  `json:"reward"`
	RewardComponents actions.RewardComponents `json:"reward_components"`
	Done             bool                     `json:"done"`
	Truncated        bool                     `json:"truncated"`
	Info             StepInfo                 `json:"info"`
	NextObs          []float32                `json:"next_obs,omitempty"`
}

// StepInfo is the excerpt of the step info worth persisting.
type StepInfo struct {
	ActionType  schema.ActionType `json:"action_type"`
	ActionValid bool              `json:"action_valid"`
}

// episodeEndRecord closes an episode.
type episodeEndRecord struct {
	Type        string  `json:"type"`
	EpisodeID   string  `json:"episode_id"`
	TotalSteps  int     `json:"total_steps"`
	TotalReward float64 `json:"total_reward"`
	Winner      string  `json:"winner"`
	Timestamp   string  `json:"timestamp"`
}

// StartEpisode opens a new rollout file. An empty episodeID gets a fresh
// UUID. The previous episode's file, if still open, is closed first.
func (l *Logger) StartEpisode(seed int64, episodeID string) string {
	if episodeID == "" {
		episodeID = uuid.NewString()
	}
	if !l.enabled {
		return episodeID
	}

	l.closeFile()
	l.episodeID = episodeID
	l.stepIdx = 0
	l.seed = seed

	name := fmt.Sprintf("rollout_%s_%s.jsonl", time.Now().Format("20060102_150405"), episodeID)
	file, err := os.OpenFile(filepath.Join(l.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.log.Warn().Err(err).Str("episode", episodeID).Msg("open rollout file failed, episode will not be logged")
		return episodeID
	}
	l.file = file

	l.write(startupRecord{
		Type:          "startup",
		EngineVersion: schema.Version,
		NObs:          schema.TotalObservations,
		NAct:          schema.TotalActions,
		Timestamp:     timestamp(),
	})
	l.write(episodeStartRecord{
		Type:      "episode_start",
		EpisodeID: episodeID,
		Seed:      seed,
		Timestamp: timestamp(),
	})

	return episodeID
}

// LogStep appends one transition. The seed, episode id, step index, and
// timestamp are filled in by the logger.
func (l *Logger) LogStep(record StepRecord) {
	if !l.enabled || l.file == nil {
		return
	}

	record.Timestamp = timestamp()
	record.Seed = l.seed
	record.EpisodeID = l.episodeID
	record.StepIdx = l.stepIdx
	l.stepIdx++

	l.write(record)
}

// EndEpisode writes the episode-end record and closes the file.
func (l *Logger) EndEpisode(totalReward float64, winner string) {
	if !l.enabled || l.file == nil {
		return
	}

	l.write(episodeEndRecord{
		Type:        "episode_end",
		EpisodeID:   l.episodeID,
		TotalSteps:  l.stepIdx,
		TotalReward: totalReward,
		Winner:      winner,
		Timestamp:   timestamp(),
	})
	l.closeFile()
}

// Close releases the current file, if any.
func (l *Logger) Close() {
	l.closeFile()
}

func (l *Logger) write(record any) {
	data, err := json.Marshal(record)
	if err != nil {
		l.log.Warn().Err(err).Str("episode", l.episodeID).Msg("marshal rollout record failed")
		return
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		l.log.Warn().Err(err).Str("episode", l.episodeID).Msg("write rollout record failed")
	}
}

func (l *Logger) closeFile() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}
