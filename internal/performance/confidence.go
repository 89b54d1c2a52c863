package performance

import (
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Confidence blend weights. The 0.5 base plus the weighted terms can
// exceed 1 before the final clamp; saturation at 1.0 is intentional.
const (
	confidenceBase   = 0.5
	patternWeight    = 0.3
	qualityWeight    = 0.4
	historicalWeight = 0.3

	// DefaultComponentConfidence stands in for pattern and historical
	// confidence when no prior signal exists.
	DefaultComponentConfidence = 0.5
)

// Confidence blends pattern, output-quality, and historical confidence
// into the final [0,1] score.
func Confidence(patternConfidence, qualityConfidence, historicalConfidence float64) float64 {
	score := confidenceBase +
		patternWeight*patternConfidence +
		qualityWeight*qualityConfidence +
		historicalWeight*historicalConfidence
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// OutputQuality scores an output against task-type-specific heuristics,
// returning a value in [0,1]. These are structural checks only; no model
// judges the content.
func OutputQuality(taskType string, output task.Value) float64 {
	switch taskType {
	case "sentiment_analysis":
		// A sentiment output is a score in [-1,1].
		if n, ok := output.AsNumber(); ok && n >= -1 && n <= 1 {
			return 0.9
		}
		return 0.1

	case "intent_classification":
		if text, ok := output.AsText(); ok && text != "" {
			return 0.8
		}
		return 0.1

	default:
		// Content-like outputs: longer, structured text scores higher.
		if text, ok := output.AsText(); ok {
			switch {
			case len(text) > 20:
				return 0.8
			case len(text) > 0:
				return 0.5
			default:
				return 0.1
			}
		}
		if arr, ok := output.AsArray(); ok {
			if len(arr) > 0 {
				return 0.7
			}
			return 0.2
		}
		if obj, ok := output.AsObject(); ok {
			if len(obj) > 0 {
				return 0.7
			}
			return 0.2
		}
		return 0.5
	}
}
