// Package performance maintains the per-user performance model: EMA
// accuracy per task type, the adaptive learning rate, the bounded
// adaptation history, and the blended confidence score.
package performance

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/metalearn/internal/pattern"
)

const (
	// HistoryCap bounds the adaptation history; the oldest record is
	// evicted on insert beyond the cap.
	HistoryCap = 1000

	// AccuracyAlpha is the EMA smoothing factor for per-task-type
	// accuracy.
	AccuracyAlpha = 0.1

	// Learning rate bounds and multiplicative adjustment factors.
	MinLearningRate     = 0.01
	MaxLearningRate     = 0.5
	DefaultLearningRate = 0.1
	rateDecay           = 0.95
	rateGrowth          = 1.05
)

// Metrics is the aggregate performance view for one user.
type Metrics struct {
	// OverallAccuracy is the unweighted mean across all task types seen.
	OverallAccuracy float64 `json:"overall_accuracy"`

	// TaskTypeAccuracy holds the EMA accuracy per task type.
	TaskTypeAccuracy map[string]float64 `json:"task_type_accuracy"`

	// AdaptationSpeedMs is the EMA of request execution time in
	// milliseconds.
	AdaptationSpeedMs float64 `json:"adaptation_speed_ms"`

	// TotalRequests counts every processed request, failures included.
	TotalRequests int `json:"total_requests"`

	// LastCalculated is when the metrics were last updated.
	LastCalculated time.Time `json:"last_calculated"`
}

// AdaptationRecord is one write-once history entry, appended per request
// regardless of outcome.
type AdaptationRecord struct {
	ID             string    `json:"id"`
	TaskType       string    `json:"task_type"`
	Strategy       string    `json:"strategy"`
	Success        bool      `json:"success"`
	Confidence     float64   `json:"confidence"`
	AccuracyBefore float64   `json:"accuracy_before"`
	AccuracyAfter  float64   `json:"accuracy_after"`
	DurationMs     float64   `json:"duration_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// Tracker is one user's performance model. Not safe for concurrent use on
// its own; the learning service serializes access per user.
type Tracker struct {
	learningRate float64
	metrics      Metrics
	history      *pattern.Ring[AdaptationRecord]
}

// NewTracker creates a tracker with the default learning rate and no
// observed requests.
func NewTracker() *Tracker {
	return &Tracker{
		learningRate: DefaultLearningRate,
		metrics: Metrics{
			TaskTypeAccuracy: make(map[string]float64),
		},
		history: pattern.NewRing[AdaptationRecord](HistoryCap),
	}
}

// Record folds one request outcome into the model: updates the task
// type's EMA accuracy, the overall mean, the adaptation speed, the
// learning rate, and appends a history record.
func (t *Tracker) Record(taskType, strat string, success bool, confidence float64, duration time.Duration) AdaptationRecord {
	before := t.metrics.OverallAccuracy

	outcome := 0.0
	if success {
		outcome = 1.0
	}
	if prev, ok := t.metrics.TaskTypeAccuracy[taskType]; ok {
		t.metrics.TaskTypeAccuracy[taskType] = AccuracyAlpha*outcome + (1-AccuracyAlpha)*prev
	} else {
		t.metrics.TaskTypeAccuracy[taskType] = outcome
	}

	sum := 0.0
	for _, acc := range t.metrics.TaskTypeAccuracy {
		sum += acc
	}
	t.metrics.OverallAccuracy = sum / float64(len(t.metrics.TaskTypeAccuracy))

	ms := float64(duration.Microseconds()) / 1000.0
	if t.metrics.TotalRequests == 0 {
		t.metrics.AdaptationSpeedMs = ms
	} else {
		t.metrics.AdaptationSpeedMs = AccuracyAlpha*ms + (1-AccuracyAlpha)*t.metrics.AdaptationSpeedMs
	}

	t.metrics.TotalRequests++
	t.metrics.LastCalculated = time.Now()
	t.adjustLearningRate(success, confidence)

	rec := AdaptationRecord{
		ID:             uuid.New().String(),
		TaskType:       taskType,
		Strategy:       strat,
		Success:        success,
		Confidence:     confidence,
		AccuracyBefore: before,
		AccuracyAfter:  t.metrics.OverallAccuracy,
		DurationMs:     ms,
		Timestamp:      time.Now(),
	}
	t.history.Push(rec)
	return rec
}

// adjustLearningRate shrinks the rate when the model is confidently
// succeeding and grows it when it is failing or unsure, clamped to
// [MinLearningRate, MaxLearningRate].
func (t *Tracker) adjustLearningRate(success bool, confidence float64) {
	switch {
	case success && confidence > 0.8:
		t.learningRate *= rateDecay
	case !success || confidence < 0.5:
		t.learningRate *= rateGrowth
	}
	if t.learningRate < MinLearningRate {
		t.learningRate = MinLearningRate
	}
	if t.learningRate > MaxLearningRate {
		t.learningRate = MaxLearningRate
	}
}

// LearningRate returns the current adaptive learning rate.
func (t *Tracker) LearningRate() float64 { return t.learningRate }

// Metrics returns a copy of the current metrics.
func (t *Tracker) Metrics() Metrics {
	out := t.metrics
	out.TaskTypeAccuracy = make(map[string]float64, len(t.metrics.TaskTypeAccuracy))
	for k, v := range t.metrics.TaskTypeAccuracy {
		out.TaskTypeAccuracy[k] = v
	}
	return out
}

// TaskTypeAccuracy returns the EMA accuracy for the task type.
func (t *Tracker) TaskTypeAccuracy(taskType string) (float64, bool) {
	acc, ok := t.metrics.TaskTypeAccuracy[taskType]
	return acc, ok
}

// History returns a copy of the adaptation history, oldest first.
func (t *Tracker) History() []AdaptationRecord {
	return t.history.Items()
}

// Snapshot captures the tracker's full state for export. Round-tripping
// through Restore is lossless.
type Snapshot struct {
	LearningRate float64            `json:"learning_rate"`
	Metrics      Metrics            `json:"metrics"`
	History      []AdaptationRecord `json:"history"`
}

// Snapshot returns an export snapshot of the tracker.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		LearningRate: t.learningRate,
		Metrics:      t.Metrics(),
		History:      t.History(),
	}
}

// Restore rebuilds a tracker from an export snapshot.
func Restore(s Snapshot) *Tracker {
	t := NewTracker()
	if s.LearningRate >= MinLearningRate && s.LearningRate <= MaxLearningRate {
		t.learningRate = s.LearningRate
	}
	t.metrics = s.Metrics
	if t.metrics.TaskTypeAccuracy == nil {
		t.metrics.TaskTypeAccuracy = make(map[string]float64)
	}
	for _, rec := range s.History {
		t.history.Push(rec)
	}
	return t
}
