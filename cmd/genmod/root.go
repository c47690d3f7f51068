package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "genmod",
		Short:         "Annotate variants with pedigree-derived inheritance models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("genmod")
		viper.AutomaticEnv()
		viper.SetConfigName(".genmod")
		viper.AddConfigPath("$HOME")
		_ = viper.ReadInConfig()
	})

	cmd.AddCommand(newBuildAnnotationCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}
