package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/engine"
)

// selfAssignee is the value -a takes when given without an argument.
const selfAssignee = "@me"

var newCmd = &cobra.Command{
	Use:     "new",
	GroupID: "issues",
	Short:   "Create a new issue",
	Long: `Create a new issue.

Examples:
  pm new -t "Fix login" -d "Users cannot log in"
  pm new -t "Triage" -s in_progress --tag bug,urgent
  pm new -t "Mine" -a          # assign to yourself
  pm new -t "Theirs" -a=bob`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := newParams(cmd, args, actor)
		if err != nil {
			FatalError("%v", err)
		}
		runAction(engine.ActionNew, p)
	},
}

// newParams builds the parameters of new. With -a given bare, pflag leaves
// a following "bob" as a positional argument; it is taken as the assignee.
func newParams(cmd *cobra.Command, args []string, self string) (engine.Params, error) {
	p := engine.Params{
		Title:       stringParam(cmd, "title"),
		Description: stringParam(cmd, "description"),
		Status:      stringParam(cmd, "status"),
		AssignedTo:  stringParam(cmd, "assign"),
		Tags:        tagsParam(cmd),
	}

	if len(args) > 0 {
		if p.AssignedTo == nil || *p.AssignedTo != selfAssignee {
			return p, fmt.Errorf("unexpected argument %q", args[0])
		}
		p.AssignedTo = &args[0]
	}
	if p.AssignedTo != nil && *p.AssignedTo == selfAssignee {
		p.AssignedTo = &self
	}
	return p, nil
}

func addNewFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Issue title (default: \"untitled issue\")")
	cmd.Flags().StringP("description", "d", "", "Issue description")
	cmd.Flags().StringP("status", "s", "", "Initial status: open, in_progress or pending")
	cmd.Flags().StringP("assign", "a", "", "Assignee; bare -a assigns to you")
	cmd.Flags().Lookup("assign").NoOptDefVal = selfAssignee
	cmd.Flags().StringArray("tag", nil, "Tag to add (repeatable, comma-separated)")
}

func init() {
	addNewFlags(newCmd)
	rootCmd.AddCommand(newCmd)
}
