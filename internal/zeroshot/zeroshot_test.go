package zeroshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metalearn/internal/task"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "two positive hits", input: "This is great and wonderful", want: 0.2},
		{name: "neutral", input: "the sky is blue", want: 0.0},
		{name: "one negative hit", input: "this is terrible", want: -0.1},
		{name: "mixed cancels out", input: "great but awful", want: 0.0},
		{name: "case insensitive", input: "GREAT GREAT", want: 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AnalyzeSentiment(task.Text(tt.input)), 1e-9)
		})
	}
}

func TestAnalyzeSentiment_Clamped(t *testing.T) {
	pos := strings.Repeat("great ", 15)
	assert.Equal(t, 1.0, AnalyzeSentiment(task.Text(pos)))

	neg := strings.Repeat("awful ", 15)
	assert.Equal(t, -1.0, AnalyzeSentiment(task.Text(neg)))
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "what time is it", want: "question"},
		{input: "please send the report", want: "request"},
		{input: "hello everyone", want: "greeting"},
		{input: "goodbye for now", want: "farewell"},
		{input: "the printer is broken", want: "complaint"},
		{input: "just a statement", want: "general"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(task.Text(tt.input)), "input %q", tt.input)
	}
}

func TestClassifyIntent_FirstRuleWins(t *testing.T) {
	// Contains both a question word and a request phrase; the question
	// rule is evaluated first.
	assert.Equal(t, "question", ClassifyIntent(task.Text("what can you do, please")))
}

func TestGenerateContent(t *testing.T) {
	out := GenerateContent(task.Text("gophers"), nil)
	text, ok := out.AsText()
	require.True(t, ok)
	assert.Equal(t, "Sure, let's talk about gophers.", text)

	out = GenerateContent(task.Text("gophers"), map[string]string{"topic": "technical"})
	text, _ = out.AsText()
	assert.Equal(t, "Here is a technical overview of gophers.", text)

	// Unknown topics fall back to the conversational template.
	out = GenerateContent(task.Text("gophers"), map[string]string{"topic": "nope"})
	text, _ = out.AsText()
	assert.Equal(t, "Sure, let's talk about gophers.", text)
}

func TestTransferStyle(t *testing.T) {
	out := TransferStyle(task.Text("the meeting moved"), map[string]string{"style": "formal"})
	text, _ := out.AsText()
	assert.Equal(t, "Dear reader, the meeting moved", text)

	// Missing or unknown style leaves the text unchanged.
	out = TransferStyle(task.Text("the meeting moved"), nil)
	text, _ = out.AsText()
	assert.Equal(t, "the meeting moved", text)
}

func TestHandle(t *testing.T) {
	out, err := Handle(CapabilitySentimentAnalysis, task.Text("this is great"), nil)
	require.NoError(t, err)
	score, ok := out.AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 0.1, score, 1e-9)

	_, err = Handle("telepathy", task.Text("x"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestHandle_CoversAllCapabilities(t *testing.T) {
	for _, name := range Capabilities() {
		_, err := Handle(name, task.Text("hello world"), nil)
		assert.NoError(t, err, "capability %s", name)
	}
}
