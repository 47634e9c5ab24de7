package transform

import (
	"math"
	"strings"

	"github.com/dukex/flowrun/pkg/nodes"
)

// Score bands.
const (
	BandStrong   = "strong"
	BandModerate = "moderate"
	BandWeak     = "weak"
)

const baselineExplanation = "signal driven mostly by baseline metrics"

// SqueezeInputs are the signals combined into a squeeze score. Sentiment and
// tone are on a 0-10 scale; short interest and borrow fee are percentages.
type SqueezeInputs struct {
	Ticker        string
	Mentions      float64
	Sentiment     float64
	Tone          float64
	ShortInterest float64
	BorrowFee     float64
}

// SqueezeScore is the result of scoring one ticker.
type SqueezeScore struct {
	Ticker      string
	Score       int
	Band        string
	Explanation string

	NormShort     float64
	NormBorrow    float64
	NormSentiment float64
	NormTone      float64
	NormMentions  float64

	Inputs SqueezeInputs
}

// SqueezeInputsFrom reads the score signals out of a node input. mentionCount
// and utilization are accepted as fallbacks for mentions and borrowFee.
func SqueezeInputsFrom(input map[string]any) SqueezeInputs {
	ticker, _ := input["ticker"].(string)

	return SqueezeInputs{
		Ticker:        ticker,
		Mentions:      firstNumber(input, "mentions", "mentionCount"),
		Sentiment:     firstNumber(input, "sentiment"),
		Tone:          firstNumber(input, "squeezeVibe"),
		ShortInterest: firstNumber(input, "shortInterest"),
		BorrowFee:     firstNumber(input, "borrowFee", "utilization"),
	}
}

func firstNumber(input map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if n, ok := nodes.Number(input[key]); ok {
			return n
		}
	}

	return 0
}

// CalculateSqueezeScore computes the weighted squeeze score. It is pure.
func CalculateSqueezeScore(in SqueezeInputs) SqueezeScore {
	normShort := math.Min(in.ShortInterest, 60) / 60
	normBorrow := math.Min(in.BorrowFee, 50) / 50
	normSentiment := in.Sentiment / 10
	normTone := in.Tone / 10
	normMentions := math.Min(in.Mentions, 50) / 50

	raw := 0.30*normShort +
		0.20*normBorrow +
		0.20*normSentiment +
		0.20*normTone +
		0.10*normMentions

	score := int(math.Round(raw * 100))

	result := SqueezeScore{
		Ticker:        in.Ticker,
		Score:         score,
		Band:          band(score),
		NormShort:     normShort,
		NormBorrow:    normBorrow,
		NormSentiment: normSentiment,
		NormTone:      normTone,
		NormMentions:  normMentions,
		Inputs:        in,
	}
	result.Explanation = explain(result)

	return result
}

func band(score int) string {
	switch {
	case score >= 75:
		return BandStrong
	case score >= 50:
		return BandModerate
	default:
		return BandWeak
	}
}

func explain(s SqueezeScore) string {
	var parts []string

	if s.NormShort > 0.7 {
		parts = append(parts, "high short interest")
	}

	if s.NormBorrow > 0.6 {
		parts = append(parts, "elevated borrow fee")
	}

	if s.NormSentiment > 0.6 || s.NormTone > 0.6 {
		parts = append(parts, "bullish and squeeze-focused chatter")
	}

	if s.NormMentions > 0.5 {
		parts = append(parts, "heavy mention volume")
	}

	if len(parts) == 0 {
		return baselineExplanation
	}

	return strings.Join(parts, ", ")
}

// Output renders the score as a node output.
func (s SqueezeScore) Output() map[string]any {
	return map[string]any{
		"ticker":       s.Ticker,
		"score":        s.Score,
		"squeezeScore": s.Score,
		"band":         s.Band,
		"explanation":  s.Explanation,
		"components": map[string]any{
			"sentiment":               s.NormSentiment * 10,
			"squeezeVibe":             s.NormTone * 10,
			"shortInterest":           s.Inputs.ShortInterest,
			"borrowFee":               s.Inputs.BorrowFee,
			"mentionCount":            s.Inputs.Mentions,
			"normalizedShortInterest": s.NormShort,
			"normalizedBorrowFee":     s.NormBorrow,
			"normalizedSentiment":     s.NormSentiment,
			"normalizedTone":          s.NormTone,
			"normalizedMentions":      s.NormMentions,
		},
	}
}
