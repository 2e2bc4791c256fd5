package main

import (
	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

var checkoutCmd = &cobra.Command{
	Use:     "checkout <issue-id>",
	GroupID: "issues",
	Short:   "Check out an issue",
	Long: `Check out an issue. Commands that take an optional issue id use the
checked-out issue when none is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionCheckout, engine.Params{IssueID: id})
	},
}

var currentCmd = &cobra.Command{
	Use:     "current",
	GroupID: "views",
	Short:   "Show the checked-out issue",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		issue, err := eng.Current(rootCtx, invocation())
		checkError(err)

		if jsonOutput {
			outputJSON(issue)
			return
		}
		writeIssueSummary(stdout, issue)
	},
}

func init() {
	addIssueFlag(checkoutCmd)
	rootCmd.AddCommand(checkoutCmd, currentCmd)
}
