package main

import (
	"fmt"

	"github.com/javajack/xlparse"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <input.xlsx>",
	Short: "Check a configuration against a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, opts, err := setup()
		if err != nil {
			return err
		}
		issues, err := xlparse.Validate(args[0], cfg, opts...)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Fprintln(cmd.OutOrStdout(), issue)
		}
		if xlparse.HasErrors(issues) {
			return fmt.Errorf("%d issue(s) found", len(issues))
		}
		if len(issues) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
		}
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <input.xlsx>",
	Short: "Show where every column reads its value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, opts, err := setup()
		if err != nil {
			return err
		}
		out, err := xlparse.Describe(args[0], cfg, opts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd, describeCmd)
}
