package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

var commentCmd = &cobra.Command{
	Use:     "comment [issue-id] [text...]",
	GroupID: "issues",
	Short:   "Comment on an issue",
	Long: `Add a comment to an issue.

Examples:
  pm comment 12 -m "Reproduced on staging"
  pm comment -m "Looking into it"     # checked-out issue`,
	Run: func(cmd *cobra.Command, args []string) {
		var idArgs []string
		if len(args) > 0 {
			idArgs = args[:1]
		}
		id, err := issueIDParam(cmd, idArgs)
		if err != nil {
			FatalError("%v", err)
		}
		text := stringParam(cmd, "message")
		if len(args) > 1 {
			joined := strings.Join(args[1:], " ")
			text = &joined
		}
		runAction(engine.ActionComment, engine.Params{IssueID: id, Comment: text})
	},
}

func init() {
	addIssueFlag(commentCmd)
	addCommentFlag(commentCmd)
	rootCmd.AddCommand(commentCmd)
}
