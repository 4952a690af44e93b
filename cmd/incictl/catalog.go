package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/incilens/backend/internal/infrastructure/catalog"
	"github.com/incilens/backend/internal/usecase"
)

func newCatalogCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the branded-complex catalog",
	}

	cmd.AddCommand(newCatalogValidateCmd(opts))
	cmd.AddCommand(newCatalogImportCmd(opts))
	cmd.AddCommand(newCatalogExportCmd(opts))

	return cmd
}

func newCatalogValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configured catalog, build the index and print its size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			src, closer, err := catalog.Open(catalogConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			kb, err := catalog.Load(cmd.Context(), src, indexOptions(cfg), logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "SOURCE\t%s\n", kb.Source)
			fmt.Fprintf(w, "COMPLEXES\t%d\n", kb.Index.Len())
			fmt.Fprintf(w, "COMPONENTS\t%d\n", len(kb.Index.Vocabulary()))
			fmt.Fprintf(w, "GENERICS\t%d\n", kb.Generics.Len())
			return w.Flush()
		},
	}
}

func newCatalogImportCmd(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON or YAML catalog into a SQLite database",
		Long: `Import a JSON or YAML catalog into a SQLite database.

The catalog is validated before anything is written, and the import replaces
the database content in a single transaction.`,
		Example: `  incictl catalog import --from data/catalog.yaml --to data/catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}

			doc, err := catalog.ReadDocument(from)
			if err != nil {
				return err
			}
			if _, err := usecase.BuildIndex(doc.Complexes, indexOptions(cfg)); err != nil {
				return err
			}

			store, err := catalog.OpenSQLite(to)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(cmd.Context(), doc.Complexes, doc.Generics); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d complexes and %d generic entries into %s\n",
				len(doc.Complexes), len(doc.Generics), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "catalog file to read (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&to, "to", "", "SQLite database to write")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newCatalogExportCmd(opts *globalOptions) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the configured catalog to a JSON or YAML file",
		Example: `  incictl catalog export --source sqlite --catalog data/catalog.db --to backup.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			src, closer, err := catalog.Open(catalogConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			complexes, err := src.LoadComplexes(cmd.Context())
			if err != nil {
				return err
			}
			generics, err := src.LoadGenerics(cmd.Context())
			if err != nil {
				return err
			}

			if err := catalog.WriteDocument(to, &catalog.Document{Complexes: complexes, Generics: generics}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d complexes and %d generic entries to %s\n",
				len(complexes), len(generics), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "file to write (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
