// Package similarity provides the pure similarity primitives used by the
// pattern store and adaptation executors: Levenshtein edit distance,
// normalized string similarity, vector cosine similarity, and a
// deterministic hash-based pseudo-embedding.
//
// All functions are stateless and deterministic: the same inputs always
// produce the same outputs. This is a hard requirement — retrieval results
// and semantic-index contents must be reproducible across calls and across
// export/import round trips.
package similarity
