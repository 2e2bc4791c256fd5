package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/debug"
	"github.com/nootmuskaat/pm/internal/export"
	"github.com/nootmuskaat/pm/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show [issue-id]",
	GroupID: "views",
	Short:   "Show an issue with its comments and history",
	Long: `Show an issue with its tags, comments and history. Without an id the
checked-out issue is shown.

Examples:
  pm show 12
  pm show 12 -f yaml
  pm show 12 -f json -o issue-12.json`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		format, err := outputFormat(cmd)
		if err != nil {
			FatalError("%v", err)
		}

		details, err := eng.Details(rootCtx, invocation(), id)
		checkError(err)

		if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
			if !format.IsStructured() {
				format = export.FormatJSON
			}
			if err := export.WriteFile(outPath, format, details); err != nil {
				FatalError("%v", err)
			}
			debug.PrintNormal("Wrote issue %s to %s\n", ui.RenderID(details.Issue.ID), outPath)
			return
		}

		if format.IsStructured() {
			if err := export.Encode(stdout, format, details); err != nil {
				FatalError("%v", err)
			}
			return
		}

		var buf bytes.Buffer
		writeDetails(&buf, details)
		noPager, _ := cmd.Flags().GetBool("no-pager")
		if err := ui.ToPager(stdout, buf.String(), ui.PagerOptions{NoPager: noPager}); err != nil {
			FatalError("%v", err)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:     "history [issue-id]",
	GroupID: "views",
	Short:   "Show the change history of an issue",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := issueIDParam(cmd, args)
		if err != nil {
			FatalError("%v", err)
		}
		records, err := eng.History(rootCtx, invocation(), id)
		checkError(err)

		if jsonOutput {
			outputJSON(records)
			return
		}
		writeHistory(stdout, records)
	},
}

func init() {
	addIssueFlag(showCmd)
	showCmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml or toml")
	showCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout (json unless -f says otherwise)")
	showCmd.Flags().Bool("no-pager", false, "Do not page text output")
	addIssueFlag(historyCmd)
	rootCmd.AddCommand(showCmd, historyCmd)
}
