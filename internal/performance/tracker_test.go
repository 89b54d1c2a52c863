package performance

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metalearn/internal/task"
)

func TestTracker_RecordFirstOutcome(t *testing.T) {
	tr := NewTracker()

	rec := tr.Record("chat", "pattern_matching", true, 0.9, 10*time.Millisecond)
	assert.Equal(t, 0.0, rec.AccuracyBefore)
	assert.Equal(t, 1.0, rec.AccuracyAfter)
	assert.True(t, rec.Success)
	assert.NotEmpty(t, rec.ID)

	m := tr.Metrics()
	assert.Equal(t, 1, m.TotalRequests)
	assert.Equal(t, 1.0, m.OverallAccuracy)
	assert.InDelta(t, 10.0, m.AdaptationSpeedMs, 0.01)
	assert.False(t, m.LastCalculated.IsZero())
}

func TestTracker_PerTaskTypeEMA(t *testing.T) {
	tr := NewTracker()

	tr.Record("chat", "few_shot_learning", false, 0.3, time.Millisecond)
	tr.Record("chat", "few_shot_learning", true, 0.6, time.Millisecond)

	acc, ok := tr.TaskTypeAccuracy("chat")
	require.True(t, ok)
	// 0.1*1 + 0.9*0 = 0.1
	assert.InDelta(t, 0.1, acc, 1e-9)
}

func TestTracker_OverallIsMeanAcrossTaskTypes(t *testing.T) {
	tr := NewTracker()

	tr.Record("chat", "few_shot_learning", true, 0.6, time.Millisecond)
	tr.Record("summarization", "meta_gradient", false, 0.3, time.Millisecond)

	m := tr.Metrics()
	assert.InDelta(t, 0.5, m.OverallAccuracy, 1e-9)
	assert.Len(t, m.TaskTypeAccuracy, 2)
}

func TestTracker_LearningRateAdjustment(t *testing.T) {
	t.Run("confident success shrinks", func(t *testing.T) {
		tr := NewTracker()
		tr.Record("chat", "pattern_matching", true, 0.9, time.Millisecond)
		assert.InDelta(t, DefaultLearningRate*0.95, tr.LearningRate(), 1e-9)
	})

	t.Run("failure grows", func(t *testing.T) {
		tr := NewTracker()
		tr.Record("chat", "pattern_matching", false, 0.9, time.Millisecond)
		assert.InDelta(t, DefaultLearningRate*1.05, tr.LearningRate(), 1e-9)
	})

	t.Run("middling success leaves it unchanged", func(t *testing.T) {
		tr := NewTracker()
		tr.Record("chat", "pattern_matching", true, 0.6, time.Millisecond)
		assert.Equal(t, DefaultLearningRate, tr.LearningRate())
	})

	t.Run("clamped at the floor", func(t *testing.T) {
		tr := NewTracker()
		for i := 0; i < 200; i++ {
			tr.Record("chat", "pattern_matching", true, 0.95, time.Millisecond)
		}
		assert.InDelta(t, MinLearningRate, tr.LearningRate(), 1e-9)
	})

	t.Run("clamped at the ceiling", func(t *testing.T) {
		tr := NewTracker()
		for i := 0; i < 200; i++ {
			tr.Record("chat", "pattern_matching", false, 0.1, time.Millisecond)
		}
		assert.InDelta(t, MaxLearningRate, tr.LearningRate(), 1e-9)
	})
}

func TestTracker_HistoryCapEnforced(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < HistoryCap+50; i++ {
		tr.Record(fmt.Sprintf("type-%d", i%3), "meta_gradient", i%2 == 0, 0.5, time.Millisecond)
	}

	history := tr.History()
	assert.Len(t, history, HistoryCap)
	assert.Equal(t, HistoryCap+50, tr.Metrics().TotalRequests)
}

func TestTracker_SnapshotRoundTrip(t *testing.T) {
	tr := NewTracker()
	tr.Record("chat", "pattern_matching", true, 0.9, 5*time.Millisecond)
	tr.Record("summarization", "few_shot_learning", false, 0.4, 7*time.Millisecond)

	restored := Restore(tr.Snapshot())

	assert.Equal(t, tr.LearningRate(), restored.LearningRate())
	assert.Equal(t, tr.Metrics(), restored.Metrics())
	assert.Equal(t, tr.History(), restored.History())
}

func TestRestore_RejectsOutOfRangeLearningRate(t *testing.T) {
	restored := Restore(Snapshot{LearningRate: 3.0})
	assert.Equal(t, DefaultLearningRate, restored.LearningRate())
}

func TestConfidence(t *testing.T) {
	// Defaults everywhere: 0.5 + 0.3*0.5 + 0.4*0.5 + 0.3*0.5 = 1.0.
	assert.Equal(t, 1.0, Confidence(0.5, 0.5, 0.5))

	// Strong components saturate at 1.
	assert.Equal(t, 1.0, Confidence(0.9, 0.9, 0.9))

	// Weak components stay below 1 and above 0.
	c := Confidence(0, 0.1, 0)
	assert.InDelta(t, 0.54, c, 1e-9)
	assert.GreaterOrEqual(t, c, 0.0)
	assert.LessOrEqual(t, c, 1.0)
}

func TestOutputQuality(t *testing.T) {
	assert.Equal(t, 0.9, OutputQuality("sentiment_analysis", task.Number(0.2)))
	assert.Equal(t, 0.1, OutputQuality("sentiment_analysis", task.Number(5)))
	assert.Equal(t, 0.1, OutputQuality("sentiment_analysis", task.Text("positive")))

	assert.Equal(t, 0.8, OutputQuality("intent_classification", task.Text("question")))
	assert.Equal(t, 0.1, OutputQuality("intent_classification", task.Text("")))

	assert.Equal(t, 0.8, OutputQuality("content_generation", task.Text("a reasonably long generated answer")))
	assert.Equal(t, 0.5, OutputQuality("content_generation", task.Text("short")))
	assert.Equal(t, 0.1, OutputQuality("content_generation", task.Text("")))
	assert.Equal(t, 0.7, OutputQuality("content_generation", task.Array(task.Text("x"))))
	assert.Equal(t, 0.5, OutputQuality("content_generation", task.Number(42)))
}
