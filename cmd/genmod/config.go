package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// newConfigCmd mirrors cmd/vibe-vep/config.go's show-resolved-settings
// pattern: it prints the settings viper read from ~/.genmod.yaml, with
// any GENMOD_* environment variable overriding a key the file sets. No
// subcommand flag is bound to viper, so these settings do not change
// any flag's value.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show resolved configuration (from ~/.genmod.yaml and GENMOD_* env vars)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := viper.AllSettings()
			if len(settings) == 0 {
				fmt.Println("# no configuration set; config file: ~/.genmod.yaml")
				return nil
			}
			out, err := yaml.Marshal(settings)
			if err != nil {
				return ioErrorf("marshal config: %v", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
}
