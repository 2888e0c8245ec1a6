package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/oracle"
)

type mockInvoker struct {
	mock.Mock
}

func (m *mockInvoker) Invoke(ctx context.Context, req oracle.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func testSets() (model.RecordSet, model.RecordSet) {
	ref := model.RecordSet{Rows: []model.Record{
		{"brand": "Innocent", "product_name": "Smooth OJ", "packaging_size_ml": 900},
	}}
	gen := model.RecordSet{Rows: []model.Record{
		{"brand": "Innocent", "product_name": "Smooth Orange Juice", "packaging_size_ml": 900},
	}}
	return ref, gen
}

func scorerWith(inv Invoker) *Scorer {
	return NewScorer(inv,
		config.AnthropicConfig{
			OpusModel:             "claude-opus-4-6",
			ScoringMaxTokens:      32000,
			ScoringThinkingBudget: 16000,
		},
		config.EvaluationConfig{PercentTolerance: 0.1},
	)
}

func TestScore_UsesOpusWithThinking(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, mock.MatchedBy(func(req oracle.Request) bool {
		return req.Model == "claude-opus-4-6" &&
			req.MaxTokens == 32000 &&
			req.ThinkingBudget == 16000 &&
			req.Phase == "scoring"
	})).Return(validResponse(nil), nil)

	ref, gen := testSets()
	result, err := scorerWith(inv).Score(context.Background(), ref, gen)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Completeness.Matched)
	inv.AssertExpectations(t)
}

func TestScore_PromptCarriesBothSets(t *testing.T) {
	inv := new(mockInvoker)
	var captured oracle.Request
	inv.On("Invoke", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(oracle.Request) }).
		Return(validResponse(nil), nil)

	ref, gen := testSets()
	_, err := scorerWith(inv).Score(context.Background(), ref, gen)
	require.NoError(t, err)

	assert.Contains(t, captured.Prompt, "Ground Truth SKUs (1 rows)")
	assert.Contains(t, captured.Prompt, "Generated SKUs (1 rows)")
	assert.Contains(t, captured.Prompt, "Smooth Orange Juice")
	assert.Contains(t, captured.Prompt, "Required JSON Output")
	assert.Contains(t, captured.System, "accuracy evaluation engine")
}

func TestScore_GatewayError(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	ref, gen := testSets()
	_, err := scorerWith(inv).Score(context.Background(), ref, gen)
	require.Error(t, err)
}

func TestScore_UnparseableResponse(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).Return("sorry, cannot comply", nil)

	ref, gen := testSets()
	result, err := scorerWith(inv).Score(context.Background(), ref, gen)
	assert.Nil(t, result)
	var respErr *OracleResponseError
	require.ErrorAs(t, err, &respErr)
}
