package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/narrative"
)

var diagnoseFlags struct {
	result string
	mode   string
}

// diagnose re-runs only the narrative call against a stored result
// artifact, so a deep diagnosis can be added later without paying for
// another scoring call.
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Generate a diagnostic narrative from a stored result artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(diagnoseFlags.result)
		if err != nil {
			return eris.Wrap(err, "read result artifact")
		}

		var artifact struct {
			Result *model.EvaluationResult `json:"result"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return eris.Wrap(err, "parse result artifact")
		}
		if artifact.Result == nil {
			return eris.New("result artifact has no result")
		}

		mode, err := narrative.ParseMode(diagnoseFlags.mode)
		if err != nil {
			return err
		}

		synth := narrative.NewSynthesizer(newGateway(), cfg.Anthropic)
		text, err := synth.Synthesize(cmd.Context(), artifact.Result, mode)
		if err != nil {
			return err
		}

		cmd.Println(text)
		return nil
	},
}

func init() {
	f := diagnoseCmd.Flags()
	f.StringVar(&diagnoseFlags.result, "result", "", "result artifact JSON from an evaluate run (required)")
	f.StringVar(&diagnoseFlags.mode, "mode", "quick", "narrative mode: quick or deep")
	_ = diagnoseCmd.MarkFlagRequired("result")
	rootCmd.AddCommand(diagnoseCmd)
}
