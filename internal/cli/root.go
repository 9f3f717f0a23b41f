package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/CorvusDB/internal/config"
	"github.com/dshills/CorvusDB/internal/log"
	"github.com/dshills/CorvusDB/internal/query/ce"
	"github.com/dshills/CorvusDB/internal/query/planner"
)

// RootOptions holds the explain command's flags.
type RootOptions struct {
	ConfigPath   string
	CatalogPath  string
	PipelinePath string
	Transport    string
	LogLevel     string
}

// NewRootCommand creates the corvus-explain command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "corvus-explain",
		Short: "Optimize a document pipeline and print the chosen plan",
		Long: `Optimize a document pipeline and print the chosen plan.

Loads a YAML catalog (collections, indexes, statistics) and a YAML
pipeline, runs the cost-based optimizer with the selected cardinality
estimation transport, and prints the physical plan tree with per-node
row and cost estimates.

Example:
  corvus-explain --catalog catalog.yaml --pipeline query.yaml --ce=histogram`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "optional YAML optimizer configuration")
	cmd.Flags().StringVar(&opts.CatalogPath, "catalog", "", "YAML catalog description (required)")
	cmd.Flags().StringVar(&opts.PipelinePath, "pipeline", "", "YAML pipeline to optimize (required)")
	cmd.Flags().StringVar(&opts.Transport, "ce", "", "cardinality estimation transport: heuristic or histogram")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("pipeline")

	return cmd
}

func runExplain(opts *RootOptions, cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadFromFile(opts.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.LoadFromFlags(opts.LogLevel, opts.Transport)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Configure(cfg.ToLogConfig())

	cat, err := LoadCatalog(opts.CatalogPath)
	if err != nil {
		return err
	}
	plan, err := LoadPipeline(opts.PipelinePath)
	if err != nil {
		return err
	}

	var est ce.Estimator
	switch cfg.Estimation.Transport {
	case "heuristic":
		est = ce.NewHeuristic(cat)
	case "histogram":
		est = ce.NewHistogram(cat)
	}

	opt := planner.NewOptimizer(cat, est).WithCostParams(cfg.ToCostParams())
	physical, err := opt.Optimize(plan)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), planner.Explain(physical))
	return nil
}
