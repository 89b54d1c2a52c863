// Package learning is the orchestration core: it owns per-user learning
// state and runs the analyze, select, execute, score, update pipeline for
// every request.
package learning

import (
	"time"

	"github.com/fyrsmithlabs/metalearn/internal/pattern"
	"github.com/fyrsmithlabs/metalearn/internal/performance"
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// LearningContext is one learning request. Immutable per call; the
// service never retains a reference past the call.
type LearningContext struct {
	// UserID selects the per-user learning state.
	UserID string `json:"user_id"`

	// SessionID tags stored examples with their originating session.
	SessionID string `json:"session_id,omitempty"`

	// TaskType is the task-type tag (e.g. "content_generation").
	TaskType string `json:"task_type"`

	// Input is the raw request payload.
	Input task.Value `json:"input"`

	// ExpectedOutput, when set, is stored as the example output instead
	// of the produced output.
	ExpectedOutput *task.Value `json:"expected_output,omitempty"`

	// Metadata carries free-form request tags. Recognized keys:
	// "domain" feeds complexity analysis, "capabilities" overrides the
	// task type's capability set, "topic" and "style" feed the
	// zero-shot handlers.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Timestamp is when the caller issued the request.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// LearningResult is the outcome of one request. Failures are results,
// not errors: Success is false, Error holds the cause, Confidence is 0.
type LearningResult struct {
	// Success reports whether the strategy produced an output.
	Success bool `json:"success"`

	// Output is the produced payload; the zero (null) value on failure.
	Output task.Value `json:"output"`

	// Confidence is the blended confidence score in [0,1].
	Confidence float64 `json:"confidence"`

	// Explanation is a human-readable account of what the service did.
	Explanation string `json:"explanation"`

	// Strategy is the adaptation strategy that ran.
	Strategy string `json:"strategy"`

	// AdaptationType mirrors Strategy; retained as a separate field for
	// callers that track adaptation kinds independently.
	AdaptationType string `json:"adaptation_type"`

	// DurationMs is the end-to-end processing time in milliseconds.
	DurationMs float64 `json:"duration_ms"`

	// Error is the failure cause, empty on success.
	Error string `json:"error,omitempty"`
}

// PatternSnapshot is the export form of one task pattern.
type PatternSnapshot struct {
	Signature       string            `json:"signature"`
	TaskType        string            `json:"task_type"`
	OutputSignature string            `json:"output_signature,omitempty"`
	SuccessRate     float64           `json:"success_rate"`
	AdaptationCount int               `json:"adaptation_count"`
	Examples        []pattern.Example `json:"examples"`
	CreatedAt       time.Time         `json:"created_at"`
	LastUsed        time.Time         `json:"last_used"`
}

// StateSnapshot is the export form of one user's complete learning
// state. Export and import round-trip losslessly through it.
type StateSnapshot struct {
	UserID              string               `json:"user_id"`
	Patterns            []PatternSnapshot    `json:"patterns"`
	Performance         performance.Snapshot `json:"performance"`
	ConfidenceThreshold float64              `json:"confidence_threshold"`
	ExportedAt          time.Time            `json:"exported_at"`
}
