package task

// Complexity is the three-axis complexity score of a request. Each axis is
// normalized to [0,1]; Overall is their arithmetic mean.
type Complexity struct {
	// RawInputSize is the unnormalized size measure: rune count for text,
	// element count for arrays, key count for objects, 1 for scalars.
	RawInputSize int `json:"raw_input_size"`

	// InputSize is RawInputSize mapped into [0,1].
	InputSize float64 `json:"input_size"`

	// OutputComplexity is the task type's expected output complexity,
	// looked up from a fixed table (0.5 if unlisted).
	OutputComplexity float64 `json:"output_complexity"`

	// DomainComplexity is the domain's complexity, looked up from a fixed
	// table (0.5 if unlisted).
	DomainComplexity float64 `json:"domain_complexity"`

	// Overall is the arithmetic mean of the three normalized axes.
	Overall float64 `json:"overall"`
}

// Input size normalization divisors. Raw sizes at or beyond the divisor
// saturate the axis at 1.0.
const (
	textSizeDivisor   = 1000.0
	arraySizeDivisor  = 100.0
	objectSizeDivisor = 50.0
)

// outputComplexityByTaskType is the fixed task-type -> output complexity
// table. Unlisted task types default to 0.5.
var outputComplexityByTaskType = map[string]float64{
	"content_generation":    0.7,
	"style_transfer":        0.6,
	"summarization":         0.6,
	"translation":           0.8,
	"question_answering":    0.5,
	"intent_classification": 0.4,
	"sentiment_analysis":    0.3,
}

// domainComplexityByDomain is the fixed domain -> complexity table.
// Unlisted domains default to 0.5.
var domainComplexityByDomain = map[string]float64{
	"general":   0.3,
	"business":  0.5,
	"creative":  0.6,
	"technical": 0.8,
	"legal":     0.9,
	"medical":   0.9,
}

const defaultComplexity = 0.5

// AnalyzeComplexity scores a request along input size, output-type
// complexity, and domain complexity. The domain comes from request
// metadata; an empty or unlisted domain scores the default 0.5.
func AnalyzeComplexity(taskType string, input Value, domain string) Complexity {
	raw, normalized := inputSize(input)

	out, ok := outputComplexityByTaskType[taskType]
	if !ok {
		out = defaultComplexity
	}

	dom, ok := domainComplexityByDomain[domain]
	if !ok {
		dom = defaultComplexity
	}

	return Complexity{
		RawInputSize:     raw,
		InputSize:        normalized,
		OutputComplexity: out,
		DomainComplexity: dom,
		Overall:          (normalized + out + dom) / 3.0,
	}
}

// inputSize measures the input and maps it into [0,1]. Larger inputs score
// higher; the divisors keep typical chat-sized payloads well below 1.
func inputSize(input Value) (raw int, normalized float64) {
	switch input.Kind() {
	case KindText:
		s, _ := input.AsText()
		raw = len([]rune(s))
		normalized = clamp01(float64(raw) / textSizeDivisor)
	case KindArray:
		arr, _ := input.AsArray()
		raw = len(arr)
		normalized = clamp01(float64(raw) / arraySizeDivisor)
	case KindObject:
		obj, _ := input.AsObject()
		raw = len(obj)
		normalized = clamp01(float64(raw) / objectSizeDivisor)
	default:
		raw = 1
		normalized = 1.0 / textSizeDivisor
	}
	return raw, normalized
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
