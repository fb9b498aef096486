package cmd

import "github.com/spf13/cobra"

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "soccer-push",
		Short:         "Train and compare agents that push a ball onto a target",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := UpdateFlags(); err != nil {
				return err
			}
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		RunCommand(),
		PlayCommand(),
		ServeCommand(),
	)

	return cmd
}
