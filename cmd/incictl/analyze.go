package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/infrastructure/catalog"
	"github.com/incilens/backend/internal/usecase"
)

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "analyze [ingredient...]",
		Short: "Analyze an ingredient list against the catalog",
		Long: `Analyze an ingredient list against the catalog.

Ingredients are taken from the arguments, or from --file (use - for stdin).
A single argument may hold a whole comma-separated label.`,
		Example: `  incictl analyze "Aqua, Xylitylglucoside, Anhydroxylitol, Xylitol"
  incictl analyze --file label.txt --format table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := args
			if file != "" {
				lines, err := readItems(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				items = append(items, lines...)
			}
			if len(items) == 0 {
				return fmt.Errorf("no ingredients given")
			}

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

			engine := usecase.NewEngine(kb.Index, kb.Generics, usecase.EngineConfig{
				AcceptanceThreshold: usecase.Float(cfg.Matching.AcceptanceThreshold),
				TieTolerance:        usecase.Float(cfg.Matching.TieTolerance),
				CoverageWeight:      cfg.Matching.CoverageWeight,
				SpecificityWeight:   cfg.Matching.SpecificityWeight,
				ParallelThreshold:   cfg.Matching.ParallelThreshold,
				EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
			}, logger)

			result, err := engine.Analyze(cmd.Context(), items)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			case "table":
				return printResult(cmd.OutOrStdout(), result)
			default:
				return fmt.Errorf("unknown format %q (want json or table)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read ingredients from a file, one or more per line (- for stdin)")
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format: json or table")

	return cmd
}

// readItems reads non-empty lines from a file or stdin
func readItems(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var items []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			items = append(items, line)
		}
	}
	return items, scanner.Err()
}

// printResult renders an analysis as aligned tables
func printResult(out io.Writer, result *domain.AnalysisResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, "BRAND\tSUPPLIER\tCONFIDENCE\tMATCHED")
	for _, b := range result.BrandedIngredients {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\n", b.BrandName, b.Supplier, b.ConfidenceScore, strings.Join(b.MatchedINCI, ", "))
	}

	if len(result.Conflicts) > 0 {
		fmt.Fprintln(w, "\t\t\t")
		fmt.Fprintln(w, "CONFLICT\tPOSSIBLE BRANDS\t\t")
		for _, c := range result.Conflicts {
			fmt.Fprintf(w, "%s\t%s\t\t\n", c.INCIName, strings.Join(c.PossibleBrands, ", "))
		}
	}

	if len(result.UnmatchedINCI) > 0 {
		fmt.Fprintln(w, "\t\t\t")
		fmt.Fprintln(w, "UNMATCHED\tCATEGORY\tCOMMON USE\t")
		for _, u := range result.UnmatchedINCI {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", u.Name, u.Category, u.CommonUse)
		}
	}

	fmt.Fprintln(w, "\t\t\t")
	fmt.Fprintf(w, "OVERALL\t%.3f\t\t\n", result.OverallConfidence)

	return w.Flush()
}
