package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/resilience"
	"github.com/JvdW123/shelf-accuracy/pkg/anthropic"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func fastGateway(client anthropic.Client) *Gateway {
	g := NewGateway(client, config.AnthropicConfig{MaxRetries: 2, RequestsPerMinute: 60000})
	g.retry.InitialBackoff = 1
	g.retry.OnRetry = nil
	return g
}

func TestInvoke_DropsThinkingBlocks(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{
			{Type: "thinking", Text: "internal reasoning"},
			{Type: "text", Text: "{\"ok\": true}"},
		},
	}, nil)

	got, err := fastGateway(client).Invoke(context.Background(), Request{
		Model: "claude-opus-4-6", MaxTokens: 100, Prompt: "hi", Phase: "scoring",
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\": true}", got)
	assert.NotContains(t, got, "internal reasoning")
}

func TestInvoke_RetriesTransient(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("connection reset"), 529)).Twice()
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "done"}},
		}, nil).Once()

	got, err := fastGateway(client).Invoke(context.Background(), Request{
		Model: "claude-opus-4-6", MaxTokens: 100, Prompt: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	client.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestInvoke_ExhaustsRetries(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("timeout"), 0))

	_, err := fastGateway(client).Invoke(context.Background(), Request{
		Model: "claude-opus-4-6", MaxTokens: 100, Prompt: "hi",
	})
	require.Error(t, err)
	client.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestInvoke_EmptyResponseNotRetried(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: nil}, nil)

	got, err := fastGateway(client).Invoke(context.Background(), Request{
		Model: "claude-sonnet-4-6", MaxTokens: 100, Prompt: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "", got)
	client.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestInvoke_ThinkingBudgetForwarded(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.ThinkingBudget == 16000 && req.Model == "claude-opus-4-6"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "ok"}},
	}, nil)

	_, err := fastGateway(client).Invoke(context.Background(), Request{
		Model: "claude-opus-4-6", MaxTokens: 32000, ThinkingBudget: 16000, Prompt: "hi",
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}
