// Package pattern owns the per-user collection of learned task patterns:
// bounded example history, EMA success rates, and similarity-based
// retrieval over stored examples.
package pattern

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Common errors for pattern store operations.
var (
	ErrPatternNotFound = errors.New("pattern not found")
	ErrNoExamples      = errors.New("pattern has no examples")
)

const (
	// MaxExamples bounds the example history per pattern; the oldest
	// example is evicted on insert beyond the cap.
	MaxExamples = 100

	// SuccessRateAlpha is the EMA smoothing factor for a pattern's
	// success rate: rate = alpha*outcome + (1-alpha)*rate.
	SuccessRateAlpha = 0.1

	// MatchThreshold is the minimum signature similarity for
	// FindMatching to consider a stored pattern a match.
	MatchThreshold = 0.8
)

// Example is one stored input/output pair with its feedback outcome.
// Append-only within a pattern's bounded history.
type Example struct {
	// ID is the unique example identifier (UUID).
	ID string `json:"id"`

	// Input is the raw request input.
	Input task.Value `json:"input"`

	// Output is the produced (or expected, when the caller supplied one)
	// output for this input.
	Output task.Value `json:"output"`

	// Feedback is the outcome scalar in [-1,1]: +1 success, -1 failure.
	Feedback float64 `json:"feedback"`

	// SessionID snapshots the session the example came from.
	SessionID string `json:"session_id,omitempty"`

	// Metadata snapshots the request metadata at capture time.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Timestamp is when the example was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// NewExample creates an example with a generated UUID.
func NewExample(input, output task.Value, feedback float64, sessionID string, metadata map[string]string) Example {
	return Example{
		ID:        uuid.New().String(),
		Input:     input,
		Output:    output,
		Feedback:  feedback,
		SessionID: sessionID,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
}

// TaskPattern is one remembered task shape: its signatures, running EMA
// success rate, and bounded example history. Patterns are keyed by input
// signature within a user's store.
type TaskPattern struct {
	// Signature is the input signature that keys this pattern.
	Signature string

	// TaskType is the task-type tag the pattern was learned under.
	TaskType string

	// OutputSignature describes the shape of the most recent output.
	OutputSignature string

	// SuccessRate is the EMA of success outcomes, always in [0,1].
	SuccessRate float64

	// AdaptationCount counts how many requests updated this pattern.
	AdaptationCount int

	// Examples is the bounded example history (cap MaxExamples).
	Examples *Ring[Example]

	// CreatedAt is when the pattern was first learned.
	CreatedAt time.Time

	// LastUsed is when the pattern last absorbed a request.
	LastUsed time.Time
}

// newTaskPattern creates a pattern from its first observed outcome.
// The initial success rate is exactly 1 or 0 from that single outcome.
func newTaskPattern(signature, taskType string, success bool) *TaskPattern {
	rate := 0.0
	if success {
		rate = 1.0
	}
	now := time.Now()
	return &TaskPattern{
		Signature:   signature,
		TaskType:    taskType,
		SuccessRate: rate,
		Examples:    NewRing[Example](MaxExamples),
		CreatedAt:   now,
		LastUsed:    now,
	}
}

// recordOutcome folds one more outcome into the pattern's success rate and
// bookkeeping. Returns any evicted examples so callers can keep external
// indexes in sync.
func (p *TaskPattern) recordOutcome(ex Example, success bool, outputSignature string) []Example {
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	p.SuccessRate = SuccessRateAlpha*outcome + (1-SuccessRateAlpha)*p.SuccessRate
	p.SuccessRate = clamp01(p.SuccessRate)
	p.AdaptationCount++
	p.LastUsed = time.Now()
	if outputSignature != "" {
		p.OutputSignature = outputSignature
	}
	return p.Examples.Push(ex)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
