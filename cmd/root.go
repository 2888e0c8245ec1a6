package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shelf-accuracy",
	Short: "Accuracy evaluation pipeline for shelf-analysis output",
	Long:  "Compares AI-generated shelf data against manually verified ground truth via semantic scoring, classifies discrepancies, and renders a styled XLSX report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
