package assistant

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/disposal"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/enums"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu   sync.Mutex
	snap state.Snapshot
}

func (m *memoryBackend) Load(ctx context.Context) (state.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

func (m *memoryBackend) Persist(ctx context.Context, snap state.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

type fakeLLM struct {
	response string
	err      error
	inputs   []string
}

func (f *fakeLLM) Generate(_ context.Context, input string) (string, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func seedSnapshot() state.Snapshot {
	snap := state.DefaultSnapshot()
	snap.Residents = []state.Resident{
		{ID: "peter", Name: "Peter", TrustScore: 0.9},
		{ID: "anna", Name: "Anna", TrustScore: 0.5},
	}
	snap.Items = []state.Item{
		{ID: "drill-1", Name: "Drill", OwnerID: "peter", Status: enums.ItemStatusAvailable},
	}
	return snap
}

func newTestService(t *testing.T, seed state.Snapshot, llm LLMClient) (*Service, *state.Store) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "assistant-test", Output: io.Discard})

	store, err := state.Open(context.Background(), &memoryBackend{snap: seed}, logg, nil)
	require.NoError(t, err)

	borrowSvc, err := borrowings.NewService(store, config.ImpactConfig{CO2PerBorrowKG: 2.0, WastePerBorrowKG: 1.0}, logg)
	require.NoError(t, err)

	disposalSvc, err := disposal.NewService(
		store,
		config.DisposalConfig{IntentThreshold: 2, EstimatedItems: 3, EventDaysAhead: 7},
		config.ImpactConfig{CO2PerEventItemKG: 1.5, WastePerEventItem: 0.5},
		nil, nil, logg,
	)
	require.NoError(t, err)

	interp, err := actions.NewInterpreter(store, borrowSvc, disposalSvc, nil, logg)
	require.NoError(t, err)

	svc, err := NewService(store, interp, llm, NewMemoryHistory(20), config.ChatConfig{
		MaxHistoryTurns:   20,
		MinConfidenceAuto: 0.6,
		TrustAutoConfirm:  0.8,
	}, logg)
	require.NoError(t, err)
	return svc, store
}

func TestChatSmallTalkNoAction(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"small_talk","reply":"Hello Anna!","action":null,"confidence":0.95}`}
	svc, store := newTestService(t, seedSnapshot(), llm)

	result, err := svc.Chat(context.Background(), "anna", "hi there")
	require.NoError(t, err)
	assert.Equal(t, "Hello Anna!", result.Reply)
	assert.Equal(t, "small_talk", result.Intent)
	assert.Nil(t, result.Outcome)
	assert.Empty(t, store.Snapshot().Borrowings)
}

func TestChatAppliesBorrowAction(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"borrow_item","reply":"Requested the drill for you.","action":{"action_type":"create_borrow","metadata":{"item_id":"drill-1","lender_id":"peter","suggested_start":"2026-09-01","suggested_due":"2026-09-08"}},"confidence":0.9}`}
	svc, store := newTestService(t, seedSnapshot(), llm)

	result, err := svc.Chat(context.Background(), "anna", "can I borrow the drill?")
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, actions.OutcomeBorrowWaitingConfirmation, result.Outcome.Tag)

	snap := store.Snapshot()
	require.Len(t, snap.Borrowings, 1)
	assert.Equal(t, enums.BorrowingStatusWaitingForConfirm, snap.Borrowings[0].Status)
}

func TestChatTrustedUserAutoConfirms(t *testing.T) {
	seed := seedSnapshot()
	seed.Items = append(seed.Items, state.Item{ID: "tent-1", Name: "Tent", OwnerID: "anna", Status: enums.ItemStatusAvailable})
	llm := &fakeLLM{response: `{"intent":"borrow_item","reply":"Done.","action":{"action_type":"create_borrow","metadata":{"item_id":"tent-1","lender_id":"anna","suggested_start":"2026-09-01","suggested_due":"2026-09-08"}},"confidence":0.9}`}
	svc, store := newTestService(t, seed, llm)

	result, err := svc.Chat(context.Background(), "peter", "I'll take the tent")
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, actions.OutcomeBorrowCreated, result.Outcome.Tag)

	snap := store.Snapshot()
	require.Len(t, snap.Borrowings, 1)
	assert.Equal(t, enums.BorrowingStatusActive, snap.Borrowings[0].Status)
}

func TestChatConfidenceGateSuppressesAction(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"borrow_item","reply":"I think you want the drill?","action":{"action_type":"create_borrow","metadata":{"item_id":"drill-1","lender_id":"peter","suggested_start":"a","suggested_due":"b"}},"confidence":0.3}`}
	svc, store := newTestService(t, seedSnapshot(), llm)

	result, err := svc.Chat(context.Background(), "anna", "maybe the drill")
	require.NoError(t, err)
	assert.True(t, result.ActionSuppressed)
	assert.Nil(t, result.Outcome)
	assert.Empty(t, store.Snapshot().Borrowings)
}

func TestChatAbsentConfidenceStillApplies(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"register_item","reply":"Registered.","action":{"action_type":"register_item","metadata":{"name":"Ladder"}}}`}
	svc, store := newTestService(t, seedSnapshot(), llm)

	result, err := svc.Chat(context.Background(), "anna", "I can lend my ladder")
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, actions.OutcomeItemRegistered, result.Outcome.Tag)
	assert.Equal(t, "anna", result.Outcome.Item.OwnerID)
	assert.Len(t, store.Snapshot().Items, 2)
}

func TestChatOwnershipInvariantEndToEnd(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"register_item","reply":"Registering for Peter.","action":{"action_type":"register_item","metadata":{"name":"Ladder","owner_id":"peter"}},"confidence":0.9}`}
	svc, store := newTestService(t, seedSnapshot(), llm)

	result, err := svc.Chat(context.Background(), "anna", "register peter's ladder")
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, "anna", result.Outcome.Item.OwnerID, "model must not assign ownership to a third party")
	assert.Contains(t, result.Reply, `signed in as "anna"`)

	snap := store.Snapshot()
	require.Len(t, snap.Items, 2)
	for _, item := range snap.Items {
		if item.Name == "Ladder" {
			assert.Equal(t, "anna", item.OwnerID)
		}
	}
}

func TestChatMalformedModelOutput(t *testing.T) {
	llm := &fakeLLM{response: `Sure! {"intent": "small_talk", "reply": "hi"`}
	svc, _ := newTestService(t, seedSnapshot(), llm)

	_, err := svc.Chat(context.Background(), "anna", "hello")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestChatLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("upstream timeout")}
	svc, _ := newTestService(t, seedSnapshot(), llm)

	_, err := svc.Chat(context.Background(), "anna", "hello")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestChatValidation(t *testing.T) {
	svc, _ := newTestService(t, seedSnapshot(), &fakeLLM{response: "{}"})

	_, err := svc.Chat(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Chat(context.Background(), "anna", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestChatRecordsHistoryAndFeedsItBack(t *testing.T) {
	llm := &fakeLLM{response: `{"intent":"small_talk","reply":"Hello!","action":null}`}
	svc, _ := newTestService(t, seedSnapshot(), llm)
	ctx := context.Background()

	_, err := svc.Chat(ctx, "anna", "first message")
	require.NoError(t, err)
	_, err = svc.Chat(ctx, "anna", "second message")
	require.NoError(t, err)

	require.Len(t, llm.inputs, 2)
	assert.NotContains(t, llm.inputs[0], "Conversation history:")
	assert.Contains(t, llm.inputs[1], "Conversation history:")
	assert.Contains(t, llm.inputs[1], "Assistant: Hello!")
}
