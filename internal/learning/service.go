package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metalearn/internal/pattern"
	"github.com/fyrsmithlabs/metalearn/internal/performance"
	"github.com/fyrsmithlabs/metalearn/internal/semindex"
	"github.com/fyrsmithlabs/metalearn/internal/strategy"
	"github.com/fyrsmithlabs/metalearn/internal/task"
)

// Common errors for learning service operations.
var (
	ErrUserNotFound    = errors.New("user state not found")
	ErrInvalidSnapshot = errors.New("invalid state snapshot")
)

const (
	// DefaultConfidenceThreshold is the pattern-matching selection
	// cutoff applied when the config leaves it unset.
	DefaultConfidenceThreshold = 0.7

	// DefaultMaxUsers bounds how many per-user states stay resident;
	// the least recently used state is evicted beyond the cap.
	DefaultMaxUsers = 10000
)

// Config holds learning service settings.
type Config struct {
	// ConfidenceThreshold is the success-rate cutoff for selecting
	// pattern matching. Must be in (0,1].
	ConfidenceThreshold float64

	// MaxUsers caps resident user states. Must be positive.
	MaxUsers int

	// Registerer receives the service's Prometheus metrics. Nil uses
	// the process-wide default registry with one shared metrics
	// instance per process.
	Registerer prometheus.Registerer
}

func (c *Config) applyDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.MaxUsers == 0 {
		c.MaxUsers = DefaultMaxUsers
	}
}

// Validate checks config bounds.
func (c Config) Validate() error {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0,1], got %v", c.ConfidenceThreshold)
	}
	if c.MaxUsers < 1 {
		return fmt.Errorf("max users must be positive, got %d", c.MaxUsers)
	}
	return nil
}

// userState is one user's complete learning state. Access is serialized
// by its mutex; the service map mutex only guards lookup and eviction.
type userState struct {
	mu         sync.Mutex
	patterns   *pattern.Store
	tracker    *performance.Tracker
	lastAccess time.Time
}

func newUserState() *userState {
	return &userState{
		patterns: pattern.NewStore(),
		tracker:  performance.NewTracker(),
	}
}

// Service owns all per-user learning state and processes learning
// requests. Construct once and share; safe for concurrent use. Requests
// for the same user are serialized, different users run in parallel.
type Service struct {
	cfg     Config
	index   *semindex.Index
	exec    *strategy.Executor
	logger  *zap.Logger
	metrics *Metrics

	mapMu sync.Mutex
	users map[string]*userState
}

// NewService creates a learning service. index may be nil to disable the
// semantic example index; logger may be nil.
func NewService(cfg Config, index *semindex.Index, logger *zap.Logger) (*Service, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid learning config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:     cfg,
		index:   index,
		exec:    strategy.NewExecutor(index, logger),
		logger:  logger,
		metrics: NewMetrics(cfg.Registerer),
		users:   make(map[string]*userState),
	}, nil
}

// getOrCreate returns the user's state, creating it lazily and evicting
// the least recently used state when the cap is hit.
func (s *Service) getOrCreate(userID string) *userState {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	st, ok := s.users[userID]
	if !ok {
		if len(s.users) >= s.cfg.MaxUsers {
			s.evictOldestLocked()
		}
		st = newUserState()
		s.users[userID] = st
		s.metrics.ActiveUsers.Set(float64(len(s.users)))
	}
	st.lastAccess = time.Now()
	return st
}

// evictOldestLocked drops the least recently used user state. Callers
// hold the map lock.
func (s *Service) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, st := range s.users {
		if oldestID == "" || st.lastAccess.Before(oldestAt) {
			oldestID = id
			oldestAt = st.lastAccess
		}
	}
	if oldestID == "" {
		return
	}
	delete(s.users, oldestID)
	s.dropIndexUser(oldestID)
	s.metrics.EvictionsTotal.Inc()
	s.logger.Info("evicted user state", zap.String("user_id", oldestID))
}

func (s *Service) dropIndexUser(userID string) {
	if s.index == nil {
		return
	}
	if err := s.index.DropUser(userID); err != nil {
		s.logger.Warn("dropping semantic index for user",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// ProcessLearningRequest runs the full pipeline for one request: analyze
// the task, select a strategy, execute it, score confidence, and fold the
// outcome back into the user's state. It never returns an error; strategy
// failures come back as a result with Success=false and Confidence=0, and
// still update the pattern store and performance model as a failed
// outcome.
func (s *Service) ProcessLearningRequest(ctx context.Context, lc LearningContext) LearningResult {
	start := time.Now()

	if lc.UserID == "" || lc.TaskType == "" {
		return LearningResult{
			Success:     false,
			Explanation: "request rejected before strategy selection",
			Error:       "user_id and task_type are required",
		}
	}

	st := s.getOrCreate(lc.UserID)
	st.mu.Lock()
	defer st.mu.Unlock()

	sig := task.Signature(lc.TaskType, lc.Input)
	complexity := task.AnalyzeComplexity(lc.TaskType, lc.Input, lc.Metadata["domain"])
	capabilities := task.RequiredCapabilities(lc.TaskType, lc.Metadata)
	matched := st.patterns.FindMatching(sig)

	strat := strategy.Select(matched, s.cfg.ConfidenceThreshold, complexity, capabilities)

	historical, ok := st.tracker.TaskTypeAccuracy(lc.TaskType)
	if !ok {
		historical = performance.DefaultComponentConfidence
	}

	output, execErr := s.exec.Execute(ctx, strat, lc.UserID, lc.Input, st.patterns, matched, historical)
	success := execErr == nil

	confidence := 0.0
	if success {
		patternConf := performance.DefaultComponentConfidence
		if matched != nil {
			patternConf = matched.SuccessRate
		}
		quality := performance.OutputQuality(lc.TaskType, output)
		confidence = performance.Confidence(patternConf, quality, historical)
	}

	// The stored example prefers the caller's expected output over the
	// produced one, so corrections teach future retrievals.
	exampleOutput := output
	if lc.ExpectedOutput != nil {
		exampleOutput = *lc.ExpectedOutput
	}
	feedback := 1.0
	if !success {
		feedback = -1.0
	}
	ex := pattern.NewExample(lc.Input, exampleOutput, feedback, lc.SessionID, lc.Metadata)
	outputSig := ""
	if success || lc.ExpectedOutput != nil {
		outputSig = task.Signature(lc.TaskType, exampleOutput)
	}

	_, evicted := st.patterns.Upsert(sig, lc.TaskType, ex, success, outputSig)
	s.syncIndex(ctx, lc.UserID, ex, evicted)

	duration := time.Since(start)
	st.tracker.Record(lc.TaskType, string(strat), success, confidence, duration)

	result := LearningResult{
		Success:        success,
		Output:         output,
		Confidence:     confidence,
		Strategy:       string(strat),
		AdaptationType: string(strat),
		DurationMs:     float64(duration.Microseconds()) / 1000.0,
	}
	if success {
		result.Explanation = explainStrategy(strat)
	} else {
		result.Explanation = fmt.Sprintf("%s failed: %v", strat, execErr)
		result.Error = execErr.Error()
	}

	s.observe(result)
	s.logger.Debug("processed learning request",
		zap.String("user_id", lc.UserID),
		zap.String("task_type", lc.TaskType),
		zap.String("strategy", result.Strategy),
		zap.Bool("success", result.Success),
		zap.Float64("confidence", result.Confidence))

	return result
}

func (s *Service) syncIndex(ctx context.Context, userID string, added pattern.Example, evicted []pattern.Example) {
	if s.index == nil {
		return
	}
	if err := s.index.Add(ctx, userID, added); err != nil {
		s.logger.Warn("indexing example", zap.String("user_id", userID), zap.Error(err))
	}
	for _, ex := range evicted {
		if err := s.index.Remove(ctx, userID, ex.ID); err != nil {
			s.logger.Warn("removing evicted example from index",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
}

func explainStrategy(strat strategy.Type) string {
	switch strat {
	case strategy.PatternMatching:
		return "reused the most similar example from a trusted pattern"
	case strategy.SemanticSimilarity:
		return "returned the closest stored example by embedding similarity"
	case strategy.FewShotLearning:
		return "combined the outputs of the most similar stored examples"
	default:
		return "produced an exploratory perturbation of the input"
	}
}

func (s *Service) observe(result LearningResult) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	s.metrics.RequestsTotal.WithLabelValues(result.Strategy, outcome).Inc()
	s.metrics.Confidence.Observe(result.Confidence)
	s.metrics.Duration.Observe(result.DurationMs / 1000.0)
}

// lookup returns the user's state without creating it.
func (s *Service) lookup(userID string) (*userState, bool) {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	st, ok := s.users[userID]
	if ok {
		st.lastAccess = time.Now()
	}
	return st, ok
}

// GetLearningState returns a snapshot of the user's learning state, or
// false if the user has none.
func (s *Service) GetLearningState(userID string) (*StateSnapshot, bool) {
	st, ok := s.lookup(userID)
	if !ok {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	snap := s.snapshotLocked(userID, st)
	return &snap, true
}

// GetPerformanceMetrics returns the user's performance metrics, or false
// if the user has no state.
func (s *Service) GetPerformanceMetrics(userID string) (performance.Metrics, bool) {
	st, ok := s.lookup(userID)
	if !ok {
		return performance.Metrics{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.tracker.Metrics(), true
}

// ResetLearningState discards the user's state and semantic index.
// Reports whether state existed.
func (s *Service) ResetLearningState(userID string) bool {
	s.mapMu.Lock()
	_, ok := s.users[userID]
	delete(s.users, userID)
	s.metrics.ActiveUsers.Set(float64(len(s.users)))
	s.mapMu.Unlock()

	if ok {
		s.dropIndexUser(userID)
		s.logger.Info("reset user state", zap.String("user_id", userID))
	}
	return ok
}

// UserCount returns the number of resident user states.
func (s *Service) UserCount() int {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	return len(s.users)
}

// snapshotLocked builds the export snapshot. Callers hold the user lock.
func (s *Service) snapshotLocked(userID string, st *userState) StateSnapshot {
	patterns := make([]PatternSnapshot, 0, st.patterns.Len())
	for _, p := range st.patterns.All() {
		patterns = append(patterns, PatternSnapshot{
			Signature:       p.Signature,
			TaskType:        p.TaskType,
			OutputSignature: p.OutputSignature,
			SuccessRate:     p.SuccessRate,
			AdaptationCount: p.AdaptationCount,
			Examples:        p.Examples.Items(),
			CreatedAt:       p.CreatedAt,
			LastUsed:        p.LastUsed,
		})
	}
	return StateSnapshot{
		UserID:              userID,
		Patterns:            patterns,
		Performance:         st.tracker.Snapshot(),
		ConfidenceThreshold: s.cfg.ConfidenceThreshold,
		ExportedAt:          time.Now(),
	}
}

// ExportLearningData serializes the user's full state as JSON.
func (s *Service) ExportLearningData(userID string) ([]byte, error) {
	snap, ok := s.GetLearningState(userID)
	if !ok {
		return nil, fmt.Errorf("exporting user %s: %w", userID, ErrUserNotFound)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot for user %s: %w", userID, err)
	}
	return data, nil
}

// ImportLearningData replaces the user's state with the snapshot,
// rebuilding the pattern store, performance model, and semantic index.
// The snapshot is stored under userID regardless of the user ID it was
// exported from.
func (s *Service) ImportLearningData(ctx context.Context, userID string, data []byte) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidSnapshot)
	}
	var snap StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	st := newUserState()
	for _, ps := range snap.Patterns {
		if ps.Signature == "" {
			return fmt.Errorf("%w: pattern with empty signature", ErrInvalidSnapshot)
		}
		p := &pattern.TaskPattern{
			Signature:       ps.Signature,
			TaskType:        ps.TaskType,
			OutputSignature: ps.OutputSignature,
			SuccessRate:     clamp01(ps.SuccessRate),
			AdaptationCount: ps.AdaptationCount,
			Examples:        pattern.NewRing[pattern.Example](pattern.MaxExamples),
			CreatedAt:       ps.CreatedAt,
			LastUsed:        ps.LastUsed,
		}
		for _, ex := range ps.Examples {
			p.Examples.Push(ex)
		}
		st.patterns.Put(p)
	}
	st.tracker = performance.Restore(snap.Performance)
	st.lastAccess = time.Now()

	// Re-index from the capped store contents. ReplaceUser stages the
	// new examples before dropping anything, so a rejected snapshot
	// leaves the user's existing index and state untouched.
	if s.index != nil {
		var examples []pattern.Example
		for _, p := range st.patterns.All() {
			examples = append(examples, p.Examples.Items()...)
		}
		if err := s.index.ReplaceUser(ctx, userID, examples); err != nil {
			return fmt.Errorf("reindexing user %s: %w", userID, err)
		}
	}

	s.mapMu.Lock()
	if _, exists := s.users[userID]; !exists && len(s.users) >= s.cfg.MaxUsers {
		s.evictOldestLocked()
	}
	s.users[userID] = st
	s.metrics.ActiveUsers.Set(float64(len(s.users)))
	s.mapMu.Unlock()

	s.logger.Info("imported user state",
		zap.String("user_id", userID),
		zap.Int("patterns", len(snap.Patterns)))
	return nil
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
