package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/agentflow/config"
	"github.com/smallnest/agentflow/internal/ui"
)

func catalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the node types and connection rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ui.Banner(out, "node catalog")

			var rows [][]string
			for _, nt := range reg.All() {
				rows = append(rows, []string{
					ui.Swatch(nt.Color) + " " + nt.Kind,
					nt.DisplayName,
					dash(strings.Join(nt.Inputs, ", ")),
					dash(strings.Join(nt.Outputs, ", ")),
					fmt.Sprint(len(nt.Properties)),
				})
			}
			ui.Table(out, []string{"KIND", "NAME", "INPUTS", "OUTPUTS", "PROPS"}, rows)

			if rules := reg.Rules(); len(rules) > 0 {
				fmt.Fprintln(out)
				rows = nil
				for _, r := range rules {
					source := r.SourceKind
					if source == "" {
						source = "*"
					}
					rows = append(rows, []string{
						r.Name,
						fmt.Sprintf("%s → %s.%s", source, r.TargetKind, r.TargetPort),
						fmt.Sprint(r.Max),
						r.Message,
					})
				}
				ui.Table(out, []string{"RULE", "APPLIES TO", "MAX", "MESSAGE"}, rows)
			}
			return nil
		},
	}
}

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.Path()
			}
			if err := config.EnsureExists(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s config at %s\n", ui.StatusIcon(true), path)
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
