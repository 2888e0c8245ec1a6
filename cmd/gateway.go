package main

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/JvdW123/shelf-accuracy/internal/oracle"
	"github.com/JvdW123/shelf-accuracy/pkg/anthropic"
)

// newGateway builds the shared oracle gateway. The request timeout is
// sized for the scoring call; extended thinking can take minutes.
func newGateway() *oracle.Gateway {
	client := anthropic.NewClient(cfg.Anthropic.Key,
		option.WithRequestTimeout(time.Duration(cfg.Anthropic.ScoringTimeoutSecs)*time.Second))
	return oracle.NewGateway(client, cfg.Anthropic)
}
