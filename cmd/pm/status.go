package main

import (
	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:     "status [issue-id]",
	GroupID: "issues",
	Short:   "Change the status of an issue",
	Long: `Change the status of an issue. Use close to close it.

Examples:
  pm status 12 -s in_progress
  pm status -s pending -m "waiting on review"   # checked-out issue`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionStatus, engine.Params{
			IssueID: id,
			Status:  stringParam(cmd, "status"),
			Comment: stringParam(cmd, "message"),
		})
	},
}

var closeCmd = &cobra.Command{
	Use:     "close [issue-id]",
	GroupID: "issues",
	Short:   "Close an issue",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionClose, engine.Params{IssueID: id, Comment: stringParam(cmd, "message")})
	},
}

var reopenCmd = &cobra.Command{
	Use:     "reopen [issue-id]",
	GroupID: "issues",
	Short:   "Reopen a closed issue",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionReopen, engine.Params{IssueID: id, Comment: stringParam(cmd, "message")})
	},
}

func init() {
	statusCmd.Flags().StringP("status", "s", "", "New status: open, in_progress or pending")
	for _, cmd := range []*cobra.Command{statusCmd, closeCmd, reopenCmd} {
		addIssueFlag(cmd)
		addCommentFlag(cmd)
		rootCmd.AddCommand(cmd)
	}
}
