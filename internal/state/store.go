package state

import (
	"context"
	"sync"

	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/localloop/localloop-backend/pkg/metrics"
)

// Backend loads and persists the snapshot blob. Load must be total: a
// missing or corrupted snapshot comes back as the default shape, never an
// error the caller has to branch on beyond real I/O failures.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Persist(ctx context.Context, snap Snapshot) error
}

// Store owns the process-wide building state. Every mutation funnels through
// Update under a single mutex, so interleaved requests cannot race on the
// shared snapshot, and every Update ends with a reconcile + persist.
type Store struct {
	mu      sync.Mutex
	snap    Snapshot
	backend Backend
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// Open loads the snapshot from the backend, reconciles it, and returns the
// ready store. Corruption in the persisted blob self-heals here.
func Open(ctx context.Context, backend Backend, logg *logger.Logger, m *metrics.StateMetrics) (*Store, error) {
	raw, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	clean, stats := ReconcileWithStats(raw)
	recordStats(m, stats)
	if logg != nil && (stats.ItemsDropped > 0 || stats.BorrowingsDropped > 0 || stats.StatusRewrites > 0) {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"items_dropped":      stats.ItemsDropped,
			"borrowings_dropped": stats.BorrowingsDropped,
			"status_rewrites":    stats.StatusRewrites,
		}), "snapshot cleaned on load")
	}

	return &Store{
		snap:    clean,
		backend: backend,
		logg:    logg,
		metrics: m,
	}, nil
}

// Snapshot returns a deep copy of the current state for read paths.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Update runs fn against the live snapshot under the store lock, then
// reconciles and persists regardless of fn's outcome, mirroring the
// write-out-always contract of the action interpreter. Persist failures are
// logged, not returned: persistence is fire-and-forget from the mutation's
// perspective.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fnErr error
	if fn != nil {
		fnErr = fn(&s.snap)
	}

	clean, stats := ReconcileWithStats(s.snap)
	recordStats(s.metrics, stats)
	s.snap = clean

	if err := s.backend.Persist(ctx, s.snap); err != nil && s.logg != nil {
		s.logg.Error(ctx, "failed to persist snapshot", err)
	}

	return fnErr
}

// Touch reconciles and persists without mutating anything. Used for noop
// actions, which still trigger a write-out.
func (s *Store) Touch(ctx context.Context) {
	_ = s.Update(ctx, nil)
}

func recordStats(m *metrics.StateMetrics, stats ReconcileStats) {
	m.AddDropped("items", stats.ItemsDropped)
	m.AddDropped("borrowings", stats.BorrowingsDropped)
	m.AddStatusResets(stats.StatusRewrites)
}
