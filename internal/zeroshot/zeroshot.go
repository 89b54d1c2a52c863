// Package zeroshot implements the four static capability handlers that
// answer requests without any stored examples: content generation,
// sentiment scoring, intent classification, and style transfer.
//
// These are deterministic lookup tables, deliberately separate from the
// pattern store and strategy machinery. They never learn.
package zeroshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/metalearn/internal/similarity"
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// ErrUnknownCapability is returned by Handle for capabilities outside the
// four supported ones.
var ErrUnknownCapability = errors.New("unknown zero-shot capability")

// Supported zero-shot capabilities.
const (
	CapabilityContentGeneration    = "content_generation"
	CapabilitySentimentAnalysis    = "sentiment_analysis"
	CapabilityIntentClassification = "intent_classification"
	CapabilityStyleTransfer        = "style_transfer"
)

// SentimentStep is the score contribution of a single keyword hit.
const SentimentStep = 0.1

// contentTemplates maps a topic tag to its generation template. The input
// text is substituted into the template verbatim.
var contentTemplates = map[string]string{
	"conversational": "Sure, let's talk about %s.",
	"technical":      "Here is a technical overview of %s.",
	"business":       "From a business perspective, %s matters because it affects outcomes.",
	"creative":       "Imagine a world shaped by %s.",
	"educational":    "Let's break down %s step by step.",
}

// defaultTopic applies when the request metadata carries no topic.
const defaultTopic = "conversational"

var positiveWords = map[string]bool{
	"good":      true,
	"great":     true,
	"excellent": true,
	"amazing":   true,
	"wonderful": true,
	"fantastic": true,
	"awesome":   true,
	"love":      true,
	"happy":     true,
	"best":      true,
}

var negativeWords = map[string]bool{
	"bad":      true,
	"terrible": true,
	"awful":    true,
	"horrible": true,
	"hate":     true,
	"sad":      true,
	"worst":    true,
	"poor":     true,
	"wrong":    true,
	"broken":   true,
}

// intentRule pairs an intent label with the phrases that trigger it.
// Rules are evaluated in order; the first hit wins.
type intentRule struct {
	intent  string
	phrases []string
}

var intentRules = []intentRule{
	{intent: "question", phrases: []string{"what", "how", "why", "when", "where", "who", "?"}},
	{intent: "request", phrases: []string{"please", "can you", "could you", "help me"}},
	{intent: "greeting", phrases: []string{"hello", "hi ", "hey", "good morning", "good evening"}},
	{intent: "farewell", phrases: []string{"bye", "goodbye", "see you", "farewell"}},
	{intent: "complaint", phrases: []string{"problem", "issue", "broken", "not working", "complaint"}},
}

// defaultIntent applies when no rule matches.
const defaultIntent = "general"

// stylePrefixes maps a style tag to the prefix prepended to the input.
// Unlisted styles get no prefix.
var stylePrefixes = map[string]string{
	"formal":       "Dear reader, ",
	"casual":       "Hey! ",
	"professional": "Please note: ",
	"enthusiastic": "Wow! ",
}

// GenerateContent renders the topic's template around the input text.
// The topic comes from metadata["topic"]; unknown or missing topics fall
// back to the conversational template.
func GenerateContent(input task.Value, metadata map[string]string) task.Value {
	topic := metadata["topic"]
	tmpl, ok := contentTemplates[topic]
	if !ok {
		tmpl = contentTemplates[defaultTopic]
	}
	return task.Text(fmt.Sprintf(tmpl, input.Canonical()))
}

// AnalyzeSentiment scores the input text by keyword lookup: each positive
// hit adds SentimentStep, each negative hit subtracts it, and the result
// is clamped to [-1,1].
func AnalyzeSentiment(input task.Value) float64 {
	score := 0.0
	for _, word := range similarity.Tokenize(input.Canonical()) {
		switch {
		case positiveWords[word]:
			score += SentimentStep
		case negativeWords[word]:
			score -= SentimentStep
		}
	}
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// ClassifyIntent returns the first intent whose trigger phrase occurs in
// the lowercased input text, or "general" when none does.
func ClassifyIntent(input task.Value) string {
	text := strings.ToLower(input.Canonical())
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				return rule.intent
			}
		}
	}
	return defaultIntent
}

// TransferStyle prepends the style's prefix to the input text. The style
// comes from metadata["style"]; unknown or missing styles leave the text
// unchanged.
func TransferStyle(input task.Value, metadata map[string]string) task.Value {
	prefix := stylePrefixes[metadata["style"]]
	return task.Text(prefix + input.Canonical())
}

// Handle dispatches a request to the named capability handler.
func Handle(capability string, input task.Value, metadata map[string]string) (task.Value, error) {
	switch capability {
	case CapabilityContentGeneration:
		return GenerateContent(input, metadata), nil
	case CapabilitySentimentAnalysis:
		return task.Number(AnalyzeSentiment(input)), nil
	case CapabilityIntentClassification:
		return task.Text(ClassifyIntent(input)), nil
	case CapabilityStyleTransfer:
		return TransferStyle(input, metadata), nil
	default:
		return task.Value{}, fmt.Errorf("%w: %s", ErrUnknownCapability, capability)
	}
}

// Capabilities lists the supported capability names in dispatch order.
func Capabilities() []string {
	return []string{
		CapabilityContentGeneration,
		CapabilitySentimentAnalysis,
		CapabilityIntentClassification,
		CapabilityStyleTransfer,
	}
}
