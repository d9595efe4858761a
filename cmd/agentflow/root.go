package main

import (
	"github.com/spf13/cobra"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/config"
	"github.com/smallnest/agentflow/document"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/internal/ui"
	"github.com/smallnest/agentflow/log"
)

var version = "0.3.0"

// app carries the persistent flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "agentflow",
		Short: "agentflow — visual AI agent workflow editor",
		Long: ui.Brand.Sprint("agentflow") + " — build AI agent pipelines on a canvas\n" +
			ui.Subtle.Sprint("Serve the editor API, inspect, lay out and export workflow documents"),
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			a.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate("agentflow {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, none")

	root.AddCommand(
		serveCmd(a),
		catalogCmd(a),
		initCmd(a),
		layoutCmd(a),
		exportCmd(a),
		inspectCmd(a),
		validateCmd(a),
	)
	return root
}

func (a *app) logger() (log.Logger, error) {
	return a.cfg.Logger()
}

func (a *app) registry() (*catalog.Registry, error) {
	return a.cfg.Registry()
}

// openWorkflow reads a document and rebuilds its workflow against the
// configured catalog.
func (a *app) openWorkflow(path string) (*graph.Workflow, []document.Issue, error) {
	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	reg, err := a.registry()
	if err != nil {
		return nil, nil, err
	}
	logger, err := a.logger()
	if err != nil {
		return nil, nil, err
	}
	w, issues := document.ToWorkflow(doc, reg, graph.WithLogger(logger))
	return w, issues, nil
}
