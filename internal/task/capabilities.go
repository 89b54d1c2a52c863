package task

import (
	"sort"
	"strings"
)

// Capability tags referenced by strategy selection and the zero-shot
// handlers.
const (
	CapContentGeneration    = "content_generation"
	CapStyleTransfer        = "style_transfer"
	CapSentimentAnalysis    = "sentiment_analysis"
	CapIntentClassification = "intent_classification"
	CapClassification       = "classification"
	CapSemanticSimilarity   = "semantic_similarity"
	CapTranslation          = "translation"
	CapMultilingual         = "multilingual"
)

// MetadataCapabilitiesKey is the request-metadata key callers may set
// (comma-separated) to extend the static capability mapping. This is the
// only route by which semantic_similarity becomes a required capability;
// the static table never emits it.
const MetadataCapabilitiesKey = "capabilities"

// capabilitiesByTaskType is the fixed task type -> capability tag mapping.
// Unlisted task types default to {content_generation}.
var capabilitiesByTaskType = map[string][]string{
	"content_generation":    {CapContentGeneration, CapStyleTransfer},
	"style_transfer":        {CapStyleTransfer, CapContentGeneration},
	"sentiment_analysis":    {CapSentimentAnalysis, CapClassification},
	"intent_classification": {CapIntentClassification, CapClassification},
	"translation":           {CapTranslation, CapMultilingual},
}

// RequiredCapabilities returns the sorted, deduplicated capability tags for
// a task type, extended by any tags the caller listed under the
// "capabilities" metadata key.
func RequiredCapabilities(taskType string, metadata map[string]string) []string {
	set := map[string]struct{}{}

	base, ok := capabilitiesByTaskType[taskType]
	if !ok {
		base = []string{CapContentGeneration}
	}
	for _, c := range base {
		set[c] = struct{}{}
	}

	if extra, ok := metadata[MetadataCapabilitiesKey]; ok {
		for _, c := range strings.Split(extra, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				set[c] = struct{}{}
			}
		}
	}

	caps := make([]string, 0, len(set))
	for c := range set {
		caps = append(caps, c)
	}
	sort.Strings(caps)
	return caps
}

// HasCapability reports whether the tag is present in a capability list.
func HasCapability(caps []string, tag string) bool {
	for _, c := range caps {
		if c == tag {
			return true
		}
	}
	return false
}
