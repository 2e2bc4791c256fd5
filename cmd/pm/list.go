package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/export"
	"github.com/nootmuskaat/pm/internal/timeparsing"
	"github.com/nootmuskaat/pm/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "views",
	Short:   "List issues",
	Long: `List issues, newest first. Closed issues are hidden unless --all is
given or --status asks for them.

Examples:
  pm list
  pm list --all --since 2w
  pm list --status in_progress --assignee bob --tag bug
  pm list --since "last monday" -f yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		filter, err := listFilter(cmd, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		format, err := outputFormat(cmd)
		if err != nil {
			FatalError("%v", err)
		}

		issues, err := eng.List(rootCtx, filter)
		checkError(err)
		if issues == nil {
			issues = []*types.Issue{}
		}

		if format.IsStructured() {
			if err := export.Encode(stdout, format, issues); err != nil {
				FatalError("%v", err)
			}
			return
		}
		writeIssueTable(stdout, issues)
	},
}

// listFilter builds the filter from list's flags. now anchors --since.
func listFilter(cmd *cobra.Command, now time.Time) (types.IssueFilter, error) {
	var filter types.IssueFilter
	filter.IncludeClosed, _ = cmd.Flags().GetBool("all")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	if s := stringParam(cmd, "status"); s != nil {
		status, err := types.ParseStatus(*s)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	filter.AssignedTo = stringParam(cmd, "assignee")
	filter.Tags = tagsParam(cmd)

	if since := stringParam(cmd, "since"); since != nil {
		t, err := timeparsing.ParseSince(*since, now)
		if err != nil {
			return filter, fmt.Errorf("invalid --since: %w", err)
		}
		filter.CreatedAfter = &t
	}
	return filter, nil
}

// outputFormat resolves --format, with --json as a shorthand for json.
func outputFormat(cmd *cobra.Command) (export.Format, error) {
	if jsonOutput {
		return export.FormatJSON, nil
	}
	name, _ := cmd.Flags().GetString("format")
	return export.ParseFormat(name)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("all", false, "Include closed issues")
	cmd.Flags().StringP("status", "s", "", "Only issues with this status")
	cmd.Flags().StringP("assignee", "a", "", "Only issues assigned to this user")
	cmd.Flags().StringArray("tag", nil, "Only issues with this tag (repeatable; all must match)")
	cmd.Flags().String("since", "", "Only issues created since (3d, 2024-01-31, \"last monday\")")
	cmd.Flags().Int("limit", 0, "Maximum number of issues (0 = no limit)")
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml or toml")
}

func init() {
	addListFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}
