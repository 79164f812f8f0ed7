package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iota-uz/campus-sdk/pkg/commands"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dtr-import",
		Short:         "Review and submit biometric attendance exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newReviewCmd())
	for _, c := range commands.NewUtilityCommands() {
		cmd.AddCommand(withExitCodes(c))
	}
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
