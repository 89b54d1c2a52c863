package pattern

import (
	"sort"

	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Store holds all learned patterns for a single user, keyed by input
// signature. It is not safe for concurrent use on its own; the learning
// service serializes access per user.
type Store struct {
	patterns map[string]*TaskPattern
}

// NewStore creates an empty pattern store.
func NewStore() *Store {
	return &Store{patterns: make(map[string]*TaskPattern)}
}

// Get returns the pattern stored under the exact signature.
func (s *Store) Get(signature string) (*TaskPattern, bool) {
	p, ok := s.patterns[signature]
	return p, ok
}

// Len returns the number of stored patterns.
func (s *Store) Len() int { return len(s.patterns) }

// Signatures returns all stored signatures in sorted order. Sorting makes
// "first match wins" deterministic: Go map iteration is randomized, so the
// scan order is pinned to lexicographic signature order instead.
func (s *Store) Signatures() []string {
	sigs := make([]string, 0, len(s.patterns))
	for sig := range s.patterns {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}

// All returns the stored patterns in sorted-signature order.
func (s *Store) All() []*TaskPattern {
	out := make([]*TaskPattern, 0, len(s.patterns))
	for _, sig := range s.Signatures() {
		out = append(out, s.patterns[sig])
	}
	return out
}

// Put inserts or replaces a pattern under its signature. Used by snapshot
// import; normal learning goes through Upsert.
func (s *Store) Put(p *TaskPattern) {
	if p.Examples == nil {
		p.Examples = NewRing[Example](MaxExamples)
	}
	s.patterns[p.Signature] = p
}

// Remove deletes the pattern stored under the signature.
func (s *Store) Remove(signature string) {
	delete(s.patterns, signature)
}

// FindMatching scans stored patterns in sorted-signature order and returns
// the first whose signature similarity to the query exceeds MatchThreshold.
// First match wins; no better-match search is attempted. Returns nil when
// nothing qualifies.
func (s *Store) FindMatching(signature string) *TaskPattern {
	for _, sig := range s.Signatures() {
		if task.SignatureSimilarity(signature, sig) > MatchThreshold {
			return s.patterns[sig]
		}
	}
	return nil
}

// Upsert folds one request outcome into the store. If no pattern exists
// under the signature, one is created with a success rate of exactly 1 or
// 0 from this single outcome; otherwise the existing pattern's EMA rate,
// adaptation count, and last-used timestamp are updated. The example is
// always appended (feedback +1 on success, -1 on failure), evicting the
// oldest beyond MaxExamples.
//
// Returns the pattern and any evicted examples so external indexes can
// stay in sync.
func (s *Store) Upsert(signature, taskType string, ex Example, success bool, outputSignature string) (*TaskPattern, []Example) {
	p, ok := s.patterns[signature]
	if !ok {
		p = newTaskPattern(signature, taskType, success)
		p.OutputSignature = outputSignature
		p.AdaptationCount = 1
		evicted := p.Examples.Push(ex)
		s.patterns[signature] = p
		return p, evicted
	}
	evicted := p.recordOutcome(ex, success, outputSignature)
	return p, evicted
}

// MostSimilarExample returns the stored example whose input is most
// similar to the query input. Ties resolve to the first encountered.
func MostSimilarExample(input task.Value, examples []Example) (Example, bool) {
	if len(examples) == 0 {
		return Example{}, false
	}
	best := examples[0]
	bestScore := task.Similarity(input, best.Input)
	for _, ex := range examples[1:] {
		if score := task.Similarity(input, ex.Input); score > bestScore {
			best = ex
			bestScore = score
		}
	}
	return best, true
}

// TopKSimilar ranks every example across all patterns by input similarity
// (descending) and returns the first k. The result is materialized
// eagerly; with the per-pattern example cap this stays small.
func (s *Store) TopKSimilar(input task.Value, k int) []Example {
	if k <= 0 {
		return nil
	}

	type scored struct {
		ex    Example
		score float64
	}
	var candidates []scored
	for _, p := range s.All() {
		for _, ex := range p.Examples.Items() {
			candidates = append(candidates, scored{ex: ex, score: task.Similarity(input, ex.Input)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Example, len(candidates))
	for i, c := range candidates {
		out[i] = c.ex
	}
	return out
}

// TotalExamples counts examples across all patterns.
func (s *Store) TotalExamples() int {
	n := 0
	for _, p := range s.patterns {
		n += p.Examples.Len()
	}
	return n
}
