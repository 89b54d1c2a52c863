// Package strategy selects and executes one of the four adaptation
// strategies for a learning request.
//
// Selection is a fixed decision tree evaluated in order: a trusted
// matching pattern wins, low-complexity tasks go few-shot, tasks that
// declare the semantic_similarity capability use the semantic index, and
// everything else falls through to the meta-gradient perturbation.
package strategy

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metalearn/internal/pattern"
	"github.com/fyrsmithlabs/metalearn/internal/semindex"
	"github.com/fyrsmithlabs/metalearn/internal/similarity"
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Type names an adaptation strategy.
type Type string

// The four adaptation strategies, in selection order.
const (
	PatternMatching    Type = "pattern_matching"
	FewShotLearning    Type = "few_shot_learning"
	SemanticSimilarity Type = "semantic_similarity"
	MetaGradient       Type = "meta_gradient"
)

// Executor failure modes. Each maps to a failed LearningResult at the
// service boundary, never to a propagated error.
var (
	ErrNoMatchingPattern = errors.New("no matching pattern with examples")
	ErrNoSemanticMatch   = errors.New("no semantically similar examples")
	ErrNoSimilarExamples = errors.New("no similar examples available")
)

const (
	// FewShotK is how many similar examples few-shot learning retrieves.
	FewShotK = 3

	// SemanticQueryK is how many candidates the semantic index returns
	// before the similarity floor is applied.
	SemanticQueryK = 5

	// SemanticMatchThreshold is the minimum cosine similarity for a
	// semantic retrieval hit to count as a match.
	SemanticMatchThreshold = 0.7

	// complexityCutoff routes low-complexity tasks to few-shot learning.
	complexityCutoff = 0.5

	// metaGradientDim is the length of the perturbation vector.
	metaGradientDim = 50
)

// Select runs the decision tree for one request. matched is the pattern
// found for the request's signature, or nil.
func Select(matched *pattern.TaskPattern, confidenceThreshold float64, complexity task.Complexity, capabilities []string) Type {
	if matched != nil && matched.SuccessRate > confidenceThreshold {
		return PatternMatching
	}
	if complexity.Overall < complexityCutoff {
		return FewShotLearning
	}
	if task.HasCapability(capabilities, task.CapSemanticSimilarity) {
		return SemanticSimilarity
	}
	return MetaGradient
}

// Executor runs a selected strategy against one user's pattern store.
// Safe for concurrent use; the caller serializes per-user store access.
type Executor struct {
	index  *semindex.Index
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExecutor creates an executor. index may be nil, in which case
// semantic similarity falls back to an exhaustive embedding scan over the
// pattern store.
func NewExecutor(index *semindex.Index, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		index:  index,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Execute runs the strategy and returns its raw output.
// taskTypeAccuracy is the historical EMA accuracy for the request's task
// type, used only by the meta-gradient strategy.
func (e *Executor) Execute(ctx context.Context, strat Type, userID string, input task.Value, store *pattern.Store, matched *pattern.TaskPattern, taskTypeAccuracy float64) (task.Value, error) {
	switch strat {
	case PatternMatching:
		return e.executePatternMatching(input, matched)
	case SemanticSimilarity:
		return e.executeSemanticSimilarity(ctx, userID, input, store)
	case FewShotLearning:
		return e.executeFewShot(input, store)
	default:
		return e.executeMetaGradient(input, taskTypeAccuracy), nil
	}
}

// executePatternMatching returns the matched pattern's most similar
// example output verbatim.
func (e *Executor) executePatternMatching(input task.Value, matched *pattern.TaskPattern) (task.Value, error) {
	if matched == nil || matched.Examples.Len() == 0 {
		return task.Value{}, ErrNoMatchingPattern
	}
	best, ok := pattern.MostSimilarExample(input, matched.Examples.Items())
	if !ok {
		return task.Value{}, ErrNoMatchingPattern
	}
	return best.Output, nil
}

// executeSemanticSimilarity returns the output of the stored example with
// the highest embedding cosine similarity, provided it clears the 0.7
// floor.
func (e *Executor) executeSemanticSimilarity(ctx context.Context, userID string, input task.Value, store *pattern.Store) (task.Value, error) {
	if e.index != nil {
		matches, err := e.index.Query(ctx, userID, input, SemanticQueryK)
		if err != nil {
			return task.Value{}, err
		}
		if len(matches) > 0 && matches[0].Similarity > SemanticMatchThreshold {
			return matches[0].Output, nil
		}
		return task.Value{}, ErrNoSemanticMatch
	}

	// No index: scan every stored example's embedding directly.
	query := similarity.Embed(input.Canonical())
	var (
		best      task.Value
		bestScore = -1.0
		found     bool
	)
	for _, p := range store.All() {
		for _, ex := range p.Examples.Items() {
			score := similarity.Cosine(query, similarity.Embed(ex.Input.Canonical()))
			if score > bestScore {
				best = ex.Output
				bestScore = score
				found = true
			}
		}
	}
	if !found || bestScore <= SemanticMatchThreshold {
		return task.Value{}, ErrNoSemanticMatch
	}
	return best, nil
}

// executeFewShot retrieves the top-k similar examples across all
// patterns. One hit returns its output; multiple text outputs are
// space-joined; mixed kinds return the best hit's output.
func (e *Executor) executeFewShot(input task.Value, store *pattern.Store) (task.Value, error) {
	top := store.TopKSimilar(input, FewShotK)
	switch len(top) {
	case 0:
		return task.Value{}, ErrNoSimilarExamples
	case 1:
		return top[0].Output, nil
	}

	texts := make([]string, 0, len(top))
	for _, ex := range top {
		text, ok := ex.Output.AsText()
		if !ok {
			return top[0].Output, nil
		}
		texts = append(texts, text)
	}
	return task.Text(strings.Join(texts, " ")), nil
}

// executeMetaGradient perturbs the stringified input's character codes by
// a pseudo-random vector scaled by how inaccurate the task type has been
// historically. Output characters stay within printable ASCII [32,126].
// This is a placeholder adaptation, not a gradient method.
func (e *Executor) executeMetaGradient(input task.Value, taskTypeAccuracy float64) task.Value {
	scale := 1 - taskTypeAccuracy
	if scale < 0 {
		scale = 0
	}

	e.mu.Lock()
	grad := make([]float64, metaGradientDim)
	for i := range grad {
		grad[i] = (e.rng.Float64()*2 - 1) * scale
	}
	e.mu.Unlock()

	src := input.Canonical()
	out := make([]byte, len(src))
	for i := 0; i < len(src); i++ {
		c := int(src[i]) + int(grad[i%metaGradientDim]*5)
		if c < 32 {
			c = 32
		}
		if c > 126 {
			c = 126
		}
		out[i] = byte(c)
	}
	return task.Text(string(out))
}
