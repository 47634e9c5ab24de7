package transform

import (
	"context"
	"testing"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, config *models.TransformConfig, input map[string]any) map[string]any {
	t.Helper()

	output, err := NewNode(config).Execute(context.Background(), input, nil)
	require.NoError(t, err)

	return output
}

func TestNode_PassThrough(t *testing.T) {
	input := map[string]any{"a": 1}

	assert.Equal(t, input, execute(t, &models.TransformConfig{}, input))
	assert.Equal(t, input, execute(t, &models.TransformConfig{Type: "unknown"}, input))
}

func TestNode_MapFields(t *testing.T) {
	output := execute(t, &models.TransformConfig{
		Type:    models.TransformMapFields,
		Mapping: map[string]string{"symbol": "ticker", "missing": "nope"},
	}, map[string]any{"ticker": "GME", "other": true})

	assert.Equal(t, map[string]any{"symbol": "GME", "missing": nil}, output)
}

func TestNode_JSONPath(t *testing.T) {
	input := map[string]any{
		"data": map[string]any{"quote": map[string]any{"price": 21.5}},
	}

	tests := []struct {
		name     string
		path     string
		expected map[string]any
	}{
		{"nested value", "$.data.quote.price", map[string]any{"value": 21.5}},
		{"object value", "$.data.quote", map[string]any{"value": map[string]any{"price": 21.5}}},
		{"missing segment", "$.data.volume", map[string]any{}},
		{"through scalar", "$.data.quote.price.x", map[string]any{}},
		{"not a path", "data.quote", input},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := execute(t, &models.TransformConfig{Type: models.TransformJSONPath, Path: tt.path}, input)
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestNode_SqueezeScore(t *testing.T) {
	output := execute(t, &models.TransformConfig{Type: models.TransformSqueezeScore}, map[string]any{
		"ticker":        "GME",
		"mentions":      234,
		"sentiment":     8.5,
		"squeezeVibe":   9.2,
		"shortInterest": 25.5,
		"borrowFee":     12.5,
	})

	assert.Equal(t, "GME", output["ticker"])
	assert.Equal(t, 63, output["score"])
	assert.Equal(t, 63, output["squeezeScore"])
	assert.Equal(t, BandModerate, output["band"])
	assert.Equal(t, "bullish and squeeze-focused chatter, heavy mention volume", output["explanation"])

	components := output["components"].(map[string]any)
	assert.InDelta(t, 0.425, components["normalizedShortInterest"], 1e-9)
	assert.InDelta(t, 0.25, components["normalizedBorrowFee"], 1e-9)
	assert.InDelta(t, 1.0, components["normalizedMentions"], 1e-9)
	assert.InDelta(t, 234.0, components["mentionCount"], 1e-9)
}

func TestCalculateSqueezeScore(t *testing.T) {
	tests := []struct {
		name        string
		inputs      SqueezeInputs
		score       int
		band        string
		explanation string
	}{
		{
			name:        "all zero",
			inputs:      SqueezeInputs{},
			score:       0,
			band:        BandWeak,
			explanation: "signal driven mostly by baseline metrics",
		},
		{
			name:        "all capped",
			inputs:      SqueezeInputs{Mentions: 500, Sentiment: 10, Tone: 10, ShortInterest: 90, BorrowFee: 80},
			score:       100,
			band:        BandStrong,
			explanation: "high short interest, elevated borrow fee, bullish and squeeze-focused chatter, heavy mention volume",
		},
		{
			name:        "exactly fifty",
			inputs:      SqueezeInputs{ShortInterest: 60, BorrowFee: 50},
			score:       50,
			band:        BandModerate,
			explanation: "high short interest, elevated borrow fee",
		},
		{
			name:   "just below fifty",
			inputs: SqueezeInputs{ShortInterest: 60, BorrowFee: 47.5},
			score:  49,
			band:   BandWeak,
		},
		{
			name:   "seventy five",
			inputs: SqueezeInputs{ShortInterest: 60, BorrowFee: 50, Sentiment: 10, Tone: 2.5},
			score:  75,
			band:   BandStrong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateSqueezeScore(tt.inputs)

			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.band, result.Band)

			if tt.explanation != "" {
				assert.Equal(t, tt.explanation, result.Explanation)
			}
		})
	}
}

func TestSqueezeInputsFrom_Fallbacks(t *testing.T) {
	inputs := SqueezeInputsFrom(map[string]any{
		"mentionCount": int64(12),
		"utilization":  float32(40),
		"sentiment":    "7",
	})

	assert.InDelta(t, 12.0, inputs.Mentions, 1e-9)
	assert.InDelta(t, 40.0, inputs.BorrowFee, 1e-9)
	assert.Zero(t, inputs.Sentiment, "non-numeric values count as zero")
}
