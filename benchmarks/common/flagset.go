package common

import (
	"errors"
	"path"
	"time"

	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/soccer"
	"github.com/zeu5/soccer-push/util"
)

type Flags struct {
	SavePath string
	SceneFlags
	RunFlags
	Parallelism       int
	Debug             bool
	RecordEventTraces bool
	RecordReplay      bool
	LogLevel          string
	ServeFlags
}

type SceneFlags struct {
	// ConfigPath points at a YAML scene config, defaults are used when empty
	ConfigPath      string
	Seed            int64
	SpeedMultiplier float64
	DeltaTime       float64
}

type RunFlags struct {
	NumRuns                int
	Episodes               int
	Horizon                int
	MaxConsecutiveErrors   int
	MaxConsecutiveTimeouts int
	EpisodeTimeout         time.Duration
	RewardWindow           int
	ReplaySize             int
}

type ServeFlags struct {
	Addr         string
	StepInterval time.Duration
}

// HierarchySet is a named ordered list of subgoals
type HierarchySet struct {
	Name       string
	Predicates []policies.Predicate
}

func DefaultFlags() *Flags {
	return &Flags{
		SavePath: "results",
		SceneFlags: SceneFlags{
			Seed:            1,
			SpeedMultiplier: soccer.DefaultSpeedMultiplier,
			DeltaTime:       soccer.DefaultDeltaTime,
		},
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               1000,
			Horizon:                1000,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         10 * time.Second,
			RewardWindow:           50,
			ReplaySize:             100000,
		},
		Parallelism:       4,
		Debug:             false,
		RecordEventTraces: false,
		RecordReplay:      false,
		LogLevel:          "info",
		ServeFlags: ServeFlags{
			Addr:         "localhost:8080",
			StepInterval: 20 * time.Millisecond,
		},
	}
}

func (f *Flags) Validate() error {
	if f.NumRuns <= 0 || f.Episodes <= 0 || f.Horizon <= 0 {
		return errors.New("runs, episodes and horizon must be positive")
	}
	if f.Parallelism <= 0 {
		return errors.New("parallelism must be positive")
	}
	if f.SavePath == "" {
		return errors.New("save path is required")
	}
	return nil
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
