package main

import (
	"github.com/spf13/cobra"
)

// newAnalyzeCmd is reserved for future scope (spec.md §6): no behavior
// in core scope yet.
func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "analyze",
		Short:  "Reserved for future analysis subcommands",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
}
