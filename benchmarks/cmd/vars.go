package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zeu5/soccer-push/benchmarks/common"
	"github.com/zeu5/soccer-push/soccer"
	"github.com/zeu5/soccer-push/util"
)

var (
	flags      *common.Flags = common.DefaultFlags()
	configFile string
)

func AddFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML file with flag values")
	pf.String("save-path", flags.SavePath, "Path to save results")
	pf.String("scene-config", flags.ConfigPath, "YAML scene config, defaults when empty")
	pf.Int64("seed", flags.Seed, "Base seed for environments and policies")
	pf.Float64("speed", flags.SpeedMultiplier, "Agent speed multiplier")
	pf.Float64("dt", flags.DeltaTime, "Seconds per decision step")

	pf.Int("num-runs", flags.NumRuns, "Number of runs")
	pf.Int("episodes", flags.Episodes, "Number of episodes")
	pf.Int("horizon", flags.Horizon, "Maximum steps per episode")
	pf.Int("max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	pf.Int("max-consecutive-timeouts", flags.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	pf.Duration("episode-timeout", flags.EpisodeTimeout, "Episode timeout")
	pf.Int("reward-window", flags.RewardWindow, "Episodes averaged in the reward chart")
	pf.Int("replay-size", flags.ReplaySize, "Transitions kept in the replay buffer")
	pf.Int("parallelism", flags.Parallelism, "Number of parallel experiments")

	pf.Bool("debug", flags.Debug, "Write every episode trace")
	pf.Bool("record-events", flags.RecordEventTraces, "Write the traces of notable episodes")
	pf.Bool("record-replay", flags.RecordReplay, "Export the transitions of every run")
	pf.String("log-level", flags.LogLevel, "Log level (debug, info, warn, error)")

	pf.String("addr", flags.Addr, "Listen address of the viewer stream")
	pf.Duration("step-interval", flags.StepInterval, "Delay between streamed steps")

	viper.BindPFlags(pf)
	viper.SetEnvPrefix("SOCCER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// UpdateFlags copies the flag, environment and config file values into flags
func UpdateFlags() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	flags.SavePath = viper.GetString("save-path")
	flags.ConfigPath = viper.GetString("scene-config")
	flags.Seed = viper.GetInt64("seed")
	flags.SpeedMultiplier = viper.GetFloat64("speed")
	flags.DeltaTime = viper.GetFloat64("dt")

	flags.NumRuns = viper.GetInt("num-runs")
	flags.Episodes = viper.GetInt("episodes")
	flags.Horizon = viper.GetInt("horizon")
	flags.MaxConsecutiveErrors = viper.GetInt("max-consecutive-errors")
	flags.MaxConsecutiveTimeouts = viper.GetInt("max-consecutive-timeouts")
	flags.EpisodeTimeout = viper.GetDuration("episode-timeout")
	flags.RewardWindow = viper.GetInt("reward-window")
	flags.ReplaySize = viper.GetInt("replay-size")
	flags.Parallelism = viper.GetInt("parallelism")

	flags.Debug = viper.GetBool("debug")
	flags.RecordEventTraces = viper.GetBool("record-events")
	flags.RecordReplay = viper.GetBool("record-replay")
	flags.LogLevel = viper.GetString("log-level")

	flags.Addr = viper.GetString("addr")
	flags.StepInterval = viper.GetDuration("step-interval")
	return flags.Validate()
}

// sceneConfig loads the scene config file if one is given and applies the
// speed and dt flags on top when they were set explicitly
func sceneConfig(cmd *cobra.Command) (soccer.SceneConfig, error) {
	config := soccer.DefaultSceneConfig()
	if flags.ConfigPath != "" {
		var err error
		if config, err = soccer.LoadSceneConfig(flags.ConfigPath); err != nil {
			return config, err
		}
	}
	if flags.ConfigPath == "" || cmd.Flags().Changed("speed") {
		config.SpeedMultiplier = flags.SpeedMultiplier
	}
	if flags.ConfigPath == "" || cmd.Flags().Changed("dt") {
		config.DeltaTime = flags.DeltaTime
	}
	return config, config.Validate()
}

func newLogger() (*zap.Logger, error) {
	return util.NewLogger(flags.LogLevel)
}
