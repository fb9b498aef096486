package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeu5/soccer-push/benchmarks/push"
)

func PlayCommand() *cobra.Command {
	var repeat int
	var color bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Control the agent by hand",
		Long: `Reads one line of keys per move from stdin and redraws the arena.

  W/S  move along x      A/D  move along z      Q/E  rotate
  !    restart the episode

Each line is held for --repeat decision steps. Ctrl-D quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := sceneConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "keys: w a s d q e, ! to restart, ctrl-d to quit")
			return push.Play(push.PlayConfig{
				Scene:  config,
				Seed:   flags.Seed,
				Repeat: repeat,
				Color:  color,
			}, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 10, "Decision steps per input line")
	cmd.Flags().BoolVar(&color, "color", true, "Colored output")

	return cmd
}
