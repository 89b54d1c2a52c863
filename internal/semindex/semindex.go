// Package semindex maintains the embedded semantic example index backing
// the semantic_similarity adaptation strategy.
//
// The index stores one chromem-go collection per user. Documents are
// learning examples embedded with the deterministic pseudo-embedding, so
// identical inputs always land on identical vectors and query results are
// reproducible. The learning service keeps the index in lockstep with the
// pattern store: example eviction deletes documents, user reset drops the
// collection.
package semindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metalearn/internal/pattern"
	"github.com/fyrsmithlabs/metalearn/internal/similarity"
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Match is one semantic retrieval hit.
type Match struct {
	// ExampleID is the stored example's UUID.
	ExampleID string

	// Similarity is the cosine similarity to the query input, in [-1,1].
	Similarity float64

	// Output is the stored example's output payload.
	Output task.Value
}

// Index is an in-memory semantic example index with per-user collections.
// Safe for concurrent use.
type Index struct {
	mu     sync.Mutex
	db     *chromem.DB
	logger *zap.Logger
}

// New creates an empty in-memory index.
func New(logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		db:     chromem.NewDB(),
		logger: logger,
	}
}

// embeddingFunc adapts the deterministic pseudo-embedding to chromem's
// embedding contract. Vectors are normalized up front; normalization does
// not change cosine similarity.
func embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec := similarity.Normalize(similarity.Embed(text))
		out := make([]float32, len(vec))
		for i, x := range vec {
			out[i] = float32(x)
		}
		return out, nil
	}
}

func collectionName(userID string) string {
	return "user_" + userID + "_examples"
}

// documentFor builds the chromem document for one example, with the
// output payload JSON-encoded in the document metadata.
func documentFor(ex pattern.Example) (chromem.Document, error) {
	outputJSON, err := json.Marshal(ex.Output)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("encoding example output: %w", err)
	}
	return chromem.Document{
		ID:      ex.ID,
		Content: ex.Input.Canonical(),
		Metadata: map[string]string{
			"output": string(outputJSON),
		},
	}, nil
}

// Add indexes one example for the user.
func (ix *Index) Add(ctx context.Context, userID string, ex pattern.Example) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	collection, err := ix.db.GetOrCreateCollection(collectionName(userID), nil, embeddingFunc())
	if err != nil {
		return fmt.Errorf("getting collection for user %s: %w", userID, err)
	}

	doc, err := documentFor(ex)
	if err != nil {
		return err
	}
	if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing example %s: %w", ex.ID, err)
	}

	ix.logger.Debug("example indexed",
		zap.String("user_id", userID),
		zap.String("example_id", ex.ID))

	return nil
}

// ReplaceUser swaps the user's indexed examples for the given set. The
// new examples are staged into a scratch collection first, so an example
// the store rejects leaves the user's current index untouched.
func (ix *Index) ReplaceUser(ctx context.Context, userID string, examples []pattern.Example) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	docs := make([]chromem.Document, 0, len(examples))
	for _, ex := range examples {
		doc, err := documentFor(ex)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	staging := collectionName(userID) + "_staging"
	if err := ix.db.DeleteCollection(staging); err != nil {
		return fmt.Errorf("clearing staging collection for user %s: %w", userID, err)
	}
	stagingCol, err := ix.db.GetOrCreateCollection(staging, nil, embeddingFunc())
	if err != nil {
		return fmt.Errorf("creating staging collection for user %s: %w", userID, err)
	}
	for _, doc := range docs {
		if err := stagingCol.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
			_ = ix.db.DeleteCollection(staging)
			return fmt.Errorf("staging example %s: %w", doc.ID, err)
		}
	}
	if err := ix.db.DeleteCollection(staging); err != nil {
		return fmt.Errorf("dropping staging collection for user %s: %w", userID, err)
	}

	// Every document embedded cleanly in staging, so the adds below
	// cannot reject the same content.
	if err := ix.db.DeleteCollection(collectionName(userID)); err != nil {
		return fmt.Errorf("dropping collection for user %s: %w", userID, err)
	}
	collection, err := ix.db.GetOrCreateCollection(collectionName(userID), nil, embeddingFunc())
	if err != nil {
		return fmt.Errorf("recreating collection for user %s: %w", userID, err)
	}
	for _, doc := range docs {
		if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
			return fmt.Errorf("indexing example %s: %w", doc.ID, err)
		}
	}

	ix.logger.Debug("replaced user index",
		zap.String("user_id", userID),
		zap.Int("examples", len(docs)))

	return nil
}

// Remove deletes indexed examples by ID. Missing IDs and missing users are
// no-ops.
func (ix *Index) Remove(ctx context.Context, userID string, ids ...string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	collection := ix.db.GetCollection(collectionName(userID), embeddingFunc())
	if collection == nil {
		return nil
	}
	for _, id := range ids {
		if err := collection.Delete(ctx, nil, nil, id); err != nil {
			return fmt.Errorf("removing example %s: %w", id, err)
		}
	}
	return nil
}

// DropUser removes the user's entire collection.
func (ix *Index) DropUser(userID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.db.DeleteCollection(collectionName(userID)); err != nil {
		return fmt.Errorf("dropping collection for user %s: %w", userID, err)
	}
	return nil
}

// Query returns up to k matches for the input, most similar first.
// An empty or missing collection yields an empty result, not an error.
func (ix *Index) Query(ctx context.Context, userID string, input task.Value, k int) ([]Match, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	collection := ix.db.GetCollection(collectionName(userID), embeddingFunc())
	if collection == nil {
		return nil, nil
	}

	// chromem requires nResults <= document count.
	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.Query(ctx, input.Canonical(), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection for user %s: %w", userID, err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		var output task.Value
		if raw, ok := r.Metadata["output"]; ok {
			if err := json.Unmarshal([]byte(raw), &output); err != nil {
				ix.logger.Warn("skipping example with undecodable output",
					zap.String("example_id", r.ID),
					zap.Error(err))
				continue
			}
		}
		matches = append(matches, Match{
			ExampleID:  r.ID,
			Similarity: float64(r.Similarity),
			Output:     output,
		})
	}
	return matches, nil
}

// Count returns the number of indexed examples for the user.
func (ix *Index) Count(userID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	collection := ix.db.GetCollection(collectionName(userID), embeddingFunc())
	if collection == nil {
		return 0
	}
	return collection.Count()
}
