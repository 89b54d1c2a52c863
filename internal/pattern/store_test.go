package pattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metalearn/internal/task"
)

func textExample(in, out string) Example {
	return NewExample(task.Text(in), task.Text(out), 1.0, "sess", nil)
}

func TestRing_EnforcesCapOnInsert(t *testing.T) {
	r := NewRing[int](3)

	assert.Empty(t, r.Push(1))
	assert.Empty(t, r.Push(2))
	assert.Empty(t, r.Push(3))
	assert.Equal(t, 3, r.Len())

	// Fourth push evicts the oldest.
	evicted := r.Push(4)
	require.Len(t, evicted, 1)
	assert.Equal(t, 1, evicted[0])
	assert.Equal(t, []int{2, 3, 4}, r.Items())
	assert.Equal(t, 3, r.Len())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 4, last)
}

func TestRing_ItemsIsACopy(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	items := r.Items()
	items[0] = 99
	assert.Equal(t, []int{1}, r.Items())
}

func TestStore_UpsertCreatesFromSingleOutcome(t *testing.T) {
	s := NewStore()

	p, evicted := s.Upsert("chat_text_text", "chat", textExample("hello", "hi"), true, "text_text")
	assert.Empty(t, evicted)
	assert.Equal(t, 1.0, p.SuccessRate)
	assert.Equal(t, 1, p.AdaptationCount)
	assert.Equal(t, 1, p.Examples.Len())

	// A failing first outcome starts at exactly 0.
	p2, _ := s.Upsert("other_text_text", "other", textExample("x", ""), false, "")
	assert.Equal(t, 0.0, p2.SuccessRate)
}

func TestStore_UpsertUpdatesEMA(t *testing.T) {
	s := NewStore()
	sig := "chat_text_text"

	s.Upsert(sig, "chat", textExample("a", "b"), false, "")
	p, _ := s.Upsert(sig, "chat", textExample("c", "d"), true, "")

	// rate = 0.1*1 + 0.9*0 = 0.1
	assert.InDelta(t, 0.1, p.SuccessRate, 1e-9)
	assert.Equal(t, 2, p.AdaptationCount)
}

func TestStore_SuccessRateConvergesUnderRepeatedSuccess(t *testing.T) {
	s := NewStore()
	sig := "chat_text_text"

	s.Upsert(sig, "chat", textExample("a", "b"), false, "")

	prev := 0.0
	for i := 0; i < 60; i++ {
		p, _ := s.Upsert(sig, "chat", textExample("a", "b"), true, "")
		// Monotonically increasing toward 1.
		assert.GreaterOrEqual(t, p.SuccessRate, prev)
		prev = p.SuccessRate
	}
	assert.InDelta(t, 1.0, prev, 0.01)
	assert.LessOrEqual(t, prev, 1.0)
}

func TestStore_ExampleCapEnforced(t *testing.T) {
	s := NewStore()
	sig := "chat_text_text"

	var firstID string
	for i := 0; i < MaxExamples+10; i++ {
		ex := textExample(fmt.Sprintf("input-%d", i), "out")
		if i == 0 {
			firstID = ex.ID
		}
		s.Upsert(sig, "chat", ex, true, "")
	}

	p, ok := s.Get(sig)
	require.True(t, ok)
	assert.Equal(t, MaxExamples, p.Examples.Len())

	// The oldest examples were evicted.
	for _, ex := range p.Examples.Items() {
		assert.NotEqual(t, firstID, ex.ID)
	}
}

func TestStore_FindMatching(t *testing.T) {
	s := NewStore()
	s.Upsert("chat_text_text", "chat", textExample("a", "b"), true, "")

	// Identical signature matches.
	p := s.FindMatching("chat_text_text")
	require.NotNil(t, p)
	assert.Equal(t, "chat_text_text", p.Signature)

	// A dissimilar signature does not.
	assert.Nil(t, s.FindMatching("summarize_object_object_4_a_b_c"))
}

func TestStore_FindMatchingFirstWinsInSortedOrder(t *testing.T) {
	s := NewStore()
	// Both stored signatures are equally similar to the query (6 of 7
	// tokens match); the scan must pick the lexicographically first one
	// every time.
	s.Upsert("extract_object_object_3_a_b_c", "extract", textExample("a", "b"), true, "")
	s.Upsert("extract_object_object_6_a_b_c", "extract", textExample("c", "d"), true, "")

	for i := 0; i < 20; i++ {
		p := s.FindMatching("extract_object_object_5_a_b_c")
		require.NotNil(t, p)
		assert.Equal(t, "extract_object_object_3_a_b_c", p.Signature)
	}
}

func TestMostSimilarExample(t *testing.T) {
	examples := []Example{
		textExample("completely unrelated", "1"),
		textExample("hello world", "2"),
		textExample("hello there", "3"),
	}

	best, ok := MostSimilarExample(task.Text("hello world"), examples)
	require.True(t, ok)
	out, _ := best.Output.AsText()
	assert.Equal(t, "2", out)

	_, ok = MostSimilarExample(task.Text("x"), nil)
	assert.False(t, ok)
}

func TestStore_TopKSimilar(t *testing.T) {
	s := NewStore()
	s.Upsert("a_text_text", "a", textExample("alpha beta", "1"), true, "")
	s.Upsert("b_text_text", "b", textExample("alpha bets", "2"), true, "")
	s.Upsert("c_text_text", "c", textExample("zzzzzzzzzz", "3"), true, "")

	top := s.TopKSimilar(task.Text("alpha beta"), 2)
	require.Len(t, top, 2)

	out0, _ := top[0].Output.AsText()
	out1, _ := top[1].Output.AsText()
	assert.Equal(t, "1", out0)
	assert.Equal(t, "2", out1)

	// k larger than the population returns everything.
	assert.Len(t, s.TopKSimilar(task.Text("alpha"), 10), 3)
	assert.Nil(t, s.TopKSimilar(task.Text("alpha"), 0))
}

func TestStore_SuccessRateAlwaysInBounds(t *testing.T) {
	s := NewStore()
	sig := "chat_text_text"
	outcomes := []bool{true, false, false, true, false, true, true, false}
	for i := 0; i < 30; i++ {
		p, _ := s.Upsert(sig, "chat", textExample("a", "b"), outcomes[i%len(outcomes)], "")
		assert.GreaterOrEqual(t, p.SuccessRate, 0.0)
		assert.LessOrEqual(t, p.SuccessRate, 1.0)
	}
}
