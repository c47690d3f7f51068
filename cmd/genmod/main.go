// Command genmod attaches pedigree-aware inheritance-model annotations
// to multi-sample variant calls (spec.md §1/§6). It replaces the
// teacher's flag-based cmd/vibe-vep with a cobra command tree so the
// cobra/viper pairing the teacher already reaches for in
// cmd/vibe-vep/config.go covers the whole CLI, not just one subcommand.
package main

import (
	"fmt"
	"os"
)

// Exit codes (spec.md §6), extending cmd/vibe-vep/main.go's
// ExitSuccess/ExitError/ExitUsage block with the finer-grained codes
// SPEC_FULL.md §6 lists.
const (
	ExitSuccess      = 0
	ExitUsage        = 1
	ExitIO           = 2
	ExitMissingIndex = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if ce, ok := err.(*cliError); ok {
			if ce.msg != "" {
				fmt.Fprintln(os.Stderr, "Error:", ce.msg)
			}
			return ce.code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExitIO
	}
	return ExitSuccess
}

// cliError carries an explicit exit code through cobra's error return,
// which otherwise only distinguishes "success" from "failure".
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &cliError{code: ExitUsage, msg: fmt.Sprintf(format, args...)}
}

func ioErrorf(format string, args ...any) error {
	return &cliError{code: ExitIO, msg: fmt.Sprintf(format, args...)}
}

func missingIndexErrorf(format string, args ...any) error {
	return &cliError{code: ExitMissingIndex, msg: fmt.Sprintf(format, args...)}
}
