package cmd

import (
	"github.com/moyashi-books/moyashi/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Title identification evaluation tools",
		Long: `Evaluation tools for measuring how often the lookup pipeline ranks the
expected title first.

Supports inspecting datasets, running evaluations against labelled photos
or OCR text, and generating reports from saved results.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
