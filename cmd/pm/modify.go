package main

import (
	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

var modifyCmd = &cobra.Command{
	Use:     "modify [issue-id]",
	GroupID: "issues",
	Short:   "Edit an issue's title, description and tags in your editor",
	Long: `Open the issue's title, description and tags in your editor. Keep the
[title], [description] and [tags] lines; tags are comma-separated.

The editor is $VISUAL, $EDITOR, the 'editor' config key, or vi.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionModify, engine.Params{IssueID: id})
	},
}

func init() {
	addIssueFlag(modifyCmd)
	rootCmd.AddCommand(modifyCmd)
}
