package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/JvdW123/shelf-accuracy/internal/ingest"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/narrative"
	"github.com/JvdW123/shelf-accuracy/internal/pipeline"
)

var evaluateFlags struct {
	reference string
	generated string
	mode      string

	country       string
	city          string
	retailer      string
	storeFormat   string
	storeName     string
	shelfLocation string
	currency      string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score generated shelf data against ground truth and render the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		reference, err := ingest.ReadFile(evaluateFlags.reference)
		if err != nil {
			return err
		}
		generated, err := ingest.ReadFile(evaluateFlags.generated)
		if err != nil {
			return err
		}

		mode := narrative.Mode("")
		if evaluateFlags.mode != "none" {
			mode, err = narrative.ParseMode(evaluateFlags.mode)
			if err != nil {
				return err
			}
		}

		runner := pipeline.NewRunner(cfg, newGateway())
		out, err := runner.Run(cmd.Context(), pipeline.Input{
			Reference:     reference,
			Generated:     generated,
			Meta:          evaluateMeta(),
			NarrativeMode: mode,
		})
		if err != nil {
			return err
		}

		printSummary(cmd, out)
		return nil
	},
}

func evaluateMeta() model.Metadata {
	return model.Metadata{
		Country:       evaluateFlags.country,
		City:          evaluateFlags.city,
		Retailer:      evaluateFlags.retailer,
		StoreFormat:   evaluateFlags.storeFormat,
		StoreName:     evaluateFlags.storeName,
		ShelfLocation: evaluateFlags.shelfLocation,
		Currency:      evaluateFlags.currency,
	}
}

func printSummary(cmd *cobra.Command, out *pipeline.Output) {
	r := out.Result
	cmd.Printf("Run %s\n\n", out.RunID)
	cmd.Printf("Completeness: %.1f%% (%d/%d matched, %d missed, %d hallucinated)\n",
		r.Completeness.Pct, r.Completeness.Matched, r.Completeness.TotalReference,
		len(r.Completeness.Missed), len(r.Completeness.Hallucinated))

	printBlocks := func(title string, blocks map[string]model.FieldAccuracy) {
		cmd.Printf("\n%s:\n", title)
		keys := make([]string, 0, len(blocks))
		for k := range blocks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b := blocks[k]
			cmd.Printf("  %-26s %5.1f%% (%d correct, %d incorrect)\n", k, b.Pct, b.Correct, b.Incorrect)
		}
	}
	printBlocks("Core fields", r.CoreFields)
	printBlocks("Classification", r.Classification)
	printBlocks("Process attributes", r.ProcessFields)

	cmd.Printf("\nSemantic quality: %.1f%% overall (name %.1f%%, flavor %.1f%%, brand %.1f%%)\n",
		r.Semantic.OverallPct, r.Semantic.ProductNamePct, r.Semantic.FlavorPct, r.Semantic.BrandPct)

	cmd.Printf("\nFlagged discrepancies: %d\n", len(out.Flagged))
	for _, f := range out.Flagged {
		cmd.Printf("  [%s] %s / %s: %q vs %q\n", f.Severity, f.SKUID, f.Field, f.Expected, f.Actual)
	}

	cmd.Printf("\nReport:  %s\nScores:  %s\n", out.ReportPath, out.ResultPath)
	if out.Narrative != "" {
		cmd.Printf("\n%s\n", out.Narrative)
	}
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.reference, "reference", "", "ground truth XLSX file (required)")
	f.StringVar(&evaluateFlags.generated, "generated", "", "generated XLSX file (required)")
	f.StringVar(&evaluateFlags.mode, "narrative", "none", "narrative mode: none, quick, or deep")
	f.StringVar(&evaluateFlags.country, "country", "", "country")
	f.StringVar(&evaluateFlags.city, "city", "", "city (required)")
	f.StringVar(&evaluateFlags.retailer, "retailer", "", "retailer (required)")
	f.StringVar(&evaluateFlags.storeFormat, "store-format", "", "store format")
	f.StringVar(&evaluateFlags.storeName, "store-name", "", "store name")
	f.StringVar(&evaluateFlags.shelfLocation, "shelf-location", "", "shelf location")
	f.StringVar(&evaluateFlags.currency, "currency", "EUR", "local currency code")
	_ = evaluateCmd.MarkFlagRequired("reference")
	_ = evaluateCmd.MarkFlagRequired("generated")
	_ = evaluateCmd.MarkFlagRequired("retailer")
	_ = evaluateCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(evaluateCmd)
}
