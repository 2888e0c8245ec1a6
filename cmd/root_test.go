package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"evaluate", "render", "diagnose", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestEvaluateCommand_Flags(t *testing.T) {
	for _, flag := range []string{"reference", "generated", "retailer", "city", "narrative", "currency"} {
		require.NotNil(t, evaluateCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "none", evaluateCmd.Flags().Lookup("narrative").DefValue)
	assert.Equal(t, "EUR", evaluateCmd.Flags().Lookup("currency").DefValue)
}
