package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/editsurface"
	"github.com/nootmuskaat/pm/internal/engine"
)

// parseIssueID accepts "12" or "#12".
func parseIssueID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", s)
	}
	return id, nil
}

// issueIDParam returns the issue id from --issue or the first positional
// argument. Nil means none was given.
func issueIDParam(cmd *cobra.Command, args []string) (*int64, error) {
	var fromFlag, fromArg *int64
	if cmd.Flags().Changed("issue") {
		id, _ := cmd.Flags().GetInt64("issue")
		if id <= 0 {
			return nil, fmt.Errorf("invalid issue id %d", id)
		}
		fromFlag = &id
	}
	if len(args) > 0 {
		id, err := parseIssueID(args[0])
		if err != nil {
			return nil, err
		}
		fromArg = &id
	}
	if fromFlag != nil && fromArg != nil && *fromFlag != *fromArg {
		return nil, fmt.Errorf("issue id given twice (%d and %d)", *fromArg, *fromFlag)
	}
	if fromArg != nil {
		return fromArg, nil
	}
	return fromFlag, nil
}

// stringParam returns a pointer to the flag's value when it was set.
func stringParam(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// tagsParam flattens repeated and comma-separated --tag values. Nil means
// the flag was not given.
func tagsParam(cmd *cobra.Command) []string {
	if !cmd.Flags().Changed("tag") {
		return nil
	}
	raw, _ := cmd.Flags().GetStringArray("tag")
	return editsurface.SplitTags(strings.Join(raw, ","))
}

func addIssueFlag(cmd *cobra.Command) {
	cmd.Flags().Int64P("issue", "i", 0, "Issue id (default: your checked-out issue)")
}

func addCommentFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("message", "m", "", "Comment to add with the change")
}

// runAction dispatches action and prints its result.
func runAction(action engine.Action, p engine.Params) {
	res, err := eng.Dispatch(rootCtx, action, invocation(), p)
	checkError(err)

	if jsonOutput {
		outputJSON(toResultJSON(res))
		return
	}
	if !quietFlag {
		writeResult(stdout, res)
	}
}
