package controllers

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/disposal"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/enums"
	"github.com/localloop/localloop-backend/pkg/logger"
)

type memoryBackend struct {
	mu   sync.Mutex
	snap state.Snapshot
}

func (b *memoryBackend) Load(context.Context) (state.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.Clone(), nil
}

func (b *memoryBackend) Persist(_ context.Context, snap state.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = snap.Clone()
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func seedSnapshot() state.Snapshot {
	snap := state.DefaultSnapshot()
	snap.Residents = []state.Resident{
		{ID: "peter", Name: "Peter", Floor: 2, TrustScore: 0.9},
		{ID: "anna", Name: "Anna", Floor: 3, TrustScore: 0.7},
	}
	snap.Items = []state.Item{
		{ID: "drill-1", Name: "Cordless drill", Tags: []string{"tools"}, OwnerID: "peter", Status: enums.ItemStatusAvailable},
	}
	return snap
}

type testEnv struct {
	store       *state.Store
	borrowings  *borrowings.Service
	disposal    *disposal.Service
	interpreter *actions.Interpreter
	logg        *logger.Logger
}

func newTestEnv(t *testing.T, snap state.Snapshot) *testEnv {
	t.Helper()

	logg := testLogger()
	store, err := state.Open(context.Background(), &memoryBackend{snap: snap}, logg, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	impact := config.ImpactConfig{CO2PerBorrowKG: 2, WastePerBorrowKG: 1, CO2PerEventItemKG: 1.5, WastePerEventItem: 0.5}
	borrowSvc, err := borrowings.NewService(store, impact, logg)
	if err != nil {
		t.Fatalf("borrowings service: %v", err)
	}

	disposalCfg := config.DisposalConfig{IntentThreshold: 2, EstimatedItems: 3, EventDaysAhead: 7}
	disposalSvc, err := disposal.NewService(store, disposalCfg, impact, nil, nil, logg)
	if err != nil {
		t.Fatalf("disposal service: %v", err)
	}

	interp, err := actions.NewInterpreter(store, borrowSvc, disposalSvc, nil, logg)
	if err != nil {
		t.Fatalf("interpreter: %v", err)
	}

	return &testEnv{
		store:       store,
		borrowings:  borrowSvc,
		disposal:    disposalSvc,
		interpreter: interp,
		logg:        logg,
	}
}
