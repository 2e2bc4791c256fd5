package main

import (
	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

var assignCmd = &cobra.Command{
	Use:     "assign <issue-id> [user]",
	GroupID: "issues",
	Short:   "Assign an issue to a user",
	Long: `Assign an issue to a user. "-" removes the assignment.

Examples:
  pm assign 12 bob
  pm assign -i 12 -a bob
  pm assign 12 -`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		assignee := stringParam(cmd, "assign")
		if len(args) == 2 {
			if assignee != nil && *assignee != args[1] {
				FatalError("assignee given twice (%q and %q)", args[1], *assignee)
			}
			assignee = &args[1]
		}
		runAction(engine.ActionAssign, engine.Params{IssueID: id, AssignedTo: assignee})
	},
}

func init() {
	addIssueFlag(assignCmd)
	assignCmd.Flags().StringP("assign", "a", "", "Assignee (\"-\" to unassign)")
	rootCmd.AddCommand(assignCmd)
}
