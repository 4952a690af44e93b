package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incilens/backend/config"
	"github.com/incilens/backend/internal/infrastructure/catalog"
	"github.com/incilens/backend/internal/infrastructure/logging"
	"github.com/incilens/backend/internal/usecase"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	source     string
	path       string
	logLevel   string
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "incictl",
		Short: "Operator tool for the INCILens knowledge base",
		Long: `incictl analyzes ingredient lists offline and manages the branded-complex catalog
(validation, import into SQLite and export to JSON/YAML).`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.source, "source", "", "override catalog source: file, sqlite or http")
	root.PersistentFlags().StringVar(&opts.path, "catalog", "", "override catalog path")
	root.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newCatalogCmd(opts))

	return root
}

// load reads the configuration and applies command-line overrides
func (o *globalOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.source != "" {
		cfg.Catalog.Source = o.source
	}
	if o.path != "" {
		cfg.Catalog.Path = o.path
	}

	logger, err := logging.New(logging.Config{
		Level:       o.logLevel,
		Format:      "console",
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func catalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		Source:       cfg.Catalog.Source,
		Path:         cfg.Catalog.Path,
		URL:          cfg.Catalog.URL,
		APIToken:     cfg.Catalog.APIToken,
		GenericsPath: cfg.Catalog.GenericsPath,
	}
}

func indexOptions(cfg *config.Config) usecase.IndexOptions {
	return usecase.IndexOptions{
		EnableFuzzyMatching: cfg.Matching.EnableFuzzyMatching,
		FuzzyThreshold:      cfg.Matching.FuzzyThreshold,
	}
}
