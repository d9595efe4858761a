package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/agentflow/document"
	"github.com/smallnest/agentflow/editor"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/internal/ui"
	"github.com/smallnest/agentflow/layout"
	"github.com/smallnest/agentflow/render"
)

var errIssues = errors.New("document has issues")

// Export formats accepted by the export command.
var exportFormats = []string{"json", "mermaid", "dot", "ascii", "svg"}

func layoutCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout <document>",
		Short: "Auto-layout a workflow document",
		Long:  "Rearrange the nodes of a workflow document. The result replaces the input unless --output is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, issues, err := a.openWorkflow(args[0])
			if err != nil {
				return err
			}
			printIssues(cmd, issues)

			moved := layout.Apply(w, a.cfg.LayoutOptions())
			if output == "" {
				output = args[0]
			}
			if err := document.WriteFile(output, document.FromWorkflow(w)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s moved %d of %d node(s), wrote %s\n",
				ui.StatusIcon(true), moved, w.NodeCount(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Export a workflow document as JSON, Mermaid, DOT, ASCII or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, issues, err := a.openWorkflow(args[0])
			if err != nil {
				return err
			}
			printIssues(cmd, issues)

			out, err := exportWorkflow(w, format)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return os.WriteFile(output, []byte(out), 0o644)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: "+strings.Join(exportFormats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func exportWorkflow(w *graph.Workflow, format string) (string, error) {
	exporter := graph.NewExporter(w)
	switch strings.ToLower(format) {
	case "json":
		data, err := document.Marshal(document.FromWorkflow(w))
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "mermaid":
		return exporter.DrawMermaid(), nil
	case "dot":
		return exporter.DrawDOT(), nil
	case "ascii":
		return exporter.DrawASCII(), nil
	case "svg":
		return render.SVG(editor.New(w).Scene(), render.SVGOptions{Fit: true}) + "\n", nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(exportFormats, ", "))
	}
}

func inspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document>",
		Short: "Summarise a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, issues, err := a.openWorkflow(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Summary(w))
			printIssues(cmd, issues)
			return nil
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a workflow document against the catalog",
		Long:  "Report nodes, properties and connections that would be dropped or reset on import. Exits non-zero when there are any.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, issues, err := a.openWorkflow(args[0])
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				printIssues(cmd, issues)
				return fmt.Errorf("%w: %d", errIssues, len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %d node(s), %d connection(s)\n",
				ui.StatusIcon(true), args[0], w.NodeCount(), w.ConnectionCount())
			return nil
		},
	}
}

func printIssues(cmd *cobra.Command, issues []document.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s\n", ui.WarnIcon(), issue)
	}
}
