package profile

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/racetagger/raceident/pkg/config"
	"github.com/racetagger/raceident/pkg/profile"
)

func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "commands around sport profiles",
	}
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewShowCmd())
	return cmd
}

// NewCheckCmd validates a profile file without starting anything.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "validates a profile file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "profile ok (sport %s, schema %s)\n",
				prof.Sport, prof.SchemaVersion)
			return nil
		},
	}
}

// NewShowCmd prints the effective profile, defaults merged in.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "prints the effective profile for --sport or --profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var prof *profile.Profile
			var err error
			if config.ProfilePath != "" {
				prof, err = profile.Load(config.ProfilePath)
			} else {
				prof, err = profile.ForSport(config.Sport)
			}
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(prof)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, string(data))
			return nil
		},
	}
}
