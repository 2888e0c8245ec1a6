package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JvdW123/shelf-accuracy/internal/ingest"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/report"
)

var renderFlags struct {
	input    string
	retailer string
	city     string
	currency string
}

// render rebuilds the styled export from an existing workbook, without
// any scoring call. Useful for restyling manually edited files.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render a shelf data file into the styled XLSX export",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.ReadFile(renderFlags.input)
		if err != nil {
			return err
		}

		meta := model.Metadata{
			Retailer: renderFlags.retailer,
			City:     renderFlags.city,
			Currency: renderFlags.currency,
		}
		renderer := report.NewRenderer(cfg.Report, cfg.Exchange)
		path := filepath.Join(cfg.Report.OutDir, report.Filename(meta.Retailer, meta.City, time.Now()))
		if err := renderer.RenderToFile(records, nil, meta, path); err != nil {
			return err
		}

		cmd.Printf("Report: %s\n", path)
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.input, "input", "", "XLSX file to restyle (required)")
	f.StringVar(&renderFlags.retailer, "retailer", "", "retailer (required)")
	f.StringVar(&renderFlags.city, "city", "", "city (required)")
	f.StringVar(&renderFlags.currency, "currency", "EUR", "local currency code")
	_ = renderCmd.MarkFlagRequired("input")
	_ = renderCmd.MarkFlagRequired("retailer")
	_ = renderCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(renderCmd)
}
