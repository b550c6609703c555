package actions

import (
	"context"

	"github.com/google/uuid"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/disposal"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/enums"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/localloop/localloop-backend/pkg/metrics"
)

// Outcome tags. Every applied action reports one of these instead of an
// error; only confirm-path authorization failures surface as errors, and
// those never flow through the interpreter.
const (
	OutcomeNoop                      = "noop"
	OutcomeBorrowCreated             = "borrow_created"
	OutcomeBorrowWaitingConfirmation = "borrow_waiting_confirmation"
	OutcomeMarkedReturned            = "marked_returned"
	OutcomeAlreadyReturned           = "already_returned"
	OutcomeDisposalRegistered        = "disposal_registered"
	OutcomeItemRegistered            = "item_registered"
)

// Outcome is the structured result of applying one action.
type Outcome struct {
	Tag       string                 `json:"tag"`
	Borrowing *state.Borrowing       `json:"borrowing,omitempty"`
	Item      *state.Item            `json:"item,omitempty"`
	Intents   []state.DisposalIntent `json:"intents,omitempty"`
	Events    []state.Event          `json:"events,omitempty"`
}

// ApplyOptions tune how an action is interpreted for a particular caller.
type ApplyOptions struct {
	// AutoConfirm lets create_borrow start directly in active, skipping the
	// lender confirmation step. The entry point decides this based on the
	// caller's trust level.
	AutoConfirm bool
}

// Interpreter turns decoded actions into validated state mutations. Invalid
// payloads and failed guards degrade to a noop: the write-out still runs, no
// entity changes, and the caller gets a neutral outcome.
type Interpreter struct {
	store      *state.Store
	borrowings *borrowings.Service
	disposal   *disposal.Service
	metrics    *metrics.ActionMetrics
	logg       *logger.Logger
}

func NewInterpreter(
	store *state.Store,
	borrowSvc *borrowings.Service,
	disposalSvc *disposal.Service,
	m *metrics.ActionMetrics,
	logg *logger.Logger,
) (*Interpreter, error) {
	if store == nil || borrowSvc == nil || disposalSvc == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "interpreter dependencies missing")
	}
	return &Interpreter{
		store:      store,
		borrowings: borrowSvc,
		disposal:   disposalSvc,
		metrics:    m,
		logg:       logg,
	}, nil
}

// Apply executes one action on behalf of a user. It never returns an error
// for guard failures; those come back as a noop outcome. An error only means
// the store itself rejected the update.
func (i *Interpreter) Apply(ctx context.Context, userID string, action Action, opts ApplyOptions) (Outcome, error) {
	ctx = i.logg.WithActionKind(i.logg.WithUserID(ctx, userID), action.Kind.String())

	outcome, err := i.apply(ctx, userID, action, opts)
	if err != nil {
		i.metrics.IncApplied(action.Kind.String(), "error")
		return Outcome{}, err
	}

	i.metrics.IncApplied(action.Kind.String(), outcome.Tag)
	i.logg.Info(i.logg.WithField(ctx, "outcome", outcome.Tag), "action applied")
	return outcome, nil
}

func (i *Interpreter) apply(ctx context.Context, userID string, action Action, opts ApplyOptions) (Outcome, error) {
	switch action.Kind {
	case enums.ActionCreateBorrow:
		return i.applyCreateBorrow(ctx, userID, action.CreateBorrow, opts)
	case enums.ActionMarkReturned:
		return i.applyMarkReturned(ctx, action.MarkReturned)
	case enums.ActionRegisterDisposalIntent:
		return i.applyRegisterDisposal(ctx, userID, action.RegisterDisposal)
	case enums.ActionRegisterItem:
		return i.applyRegisterItem(ctx, userID, action.RegisterItem)
	default:
		return i.noop(ctx)
	}
}

// noop still triggers a reconciliation write-out so callers can rely on
// every applied action leaving a clean persisted snapshot behind.
func (i *Interpreter) noop(ctx context.Context) (Outcome, error) {
	i.store.Touch(ctx)
	return Outcome{Tag: OutcomeNoop}, nil
}

func (i *Interpreter) applyCreateBorrow(ctx context.Context, userID string, payload *CreateBorrowPayload, opts ApplyOptions) (Outcome, error) {
	if payload == nil || payload.ItemID == "" || payload.LenderID == "" ||
		payload.SuggestedStart == "" || payload.SuggestedDue == "" {
		return i.noop(ctx)
	}

	// Only a currently available item can be borrowed through an action;
	// anything else degrades to a noop rather than an error.
	snap := i.store.Snapshot()
	item, ok := snap.ItemByID(payload.ItemID)
	if !ok || item.Status != enums.ItemStatusAvailable {
		return i.noop(ctx)
	}

	result, err := i.borrowings.Request(ctx, borrowings.RequestParams{
		BorrowerID:  userID,
		ItemID:      payload.ItemID,
		LenderID:    payload.LenderID,
		Start:       payload.SuggestedStart,
		Due:         payload.SuggestedDue,
		AutoConfirm: opts.AutoConfirm,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			i.logg.Warn(i.logg.WithField(ctx, "reason", err.Error()), "create_borrow degraded to noop")
			return i.noop(ctx)
		}
		return Outcome{}, err
	}

	tag := OutcomeBorrowWaitingConfirmation
	if result.AutoConfirmed {
		tag = OutcomeBorrowCreated
	}
	return Outcome{Tag: tag, Borrowing: &result.Borrowing}, nil
}

func (i *Interpreter) applyMarkReturned(ctx context.Context, payload *MarkReturnedPayload) (Outcome, error) {
	if payload == nil || payload.BorrowingID == "" {
		return i.noop(ctx)
	}

	result, err := i.borrowings.Return(ctx, payload.BorrowingID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return i.noop(ctx)
		}
		return Outcome{}, err
	}

	tag := OutcomeMarkedReturned
	if result.AlreadyReturned {
		tag = OutcomeAlreadyReturned
	}
	return Outcome{Tag: tag, Borrowing: &result.Borrowing}, nil
}

func (i *Interpreter) applyRegisterDisposal(ctx context.Context, userID string, payload *RegisterDisposalPayload) (Outcome, error) {
	if payload == nil {
		return i.noop(ctx)
	}

	inputs := make([]disposal.IntentInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Name == "" {
			continue
		}
		inputs = append(inputs, disposal.IntentInput{
			Name:        item.Name,
			Description: item.Description,
			Tags:        item.Tags,
		})
	}
	if len(inputs) == 0 {
		// Bare category strings are the fallback shape: each category
		// becomes an intent named and tagged after it.
		for _, category := range payload.Categories {
			if category == "" {
				continue
			}
			inputs = append(inputs, disposal.IntentInput{
				Name: category,
				Tags: []string{category},
			})
		}
	}
	if len(inputs) == 0 {
		return i.noop(ctx)
	}

	result, err := i.disposal.RegisterIntents(ctx, userID, inputs)
	if err != nil {
		if pkgerrors.As(err) != nil {
			i.logg.Warn(i.logg.WithField(ctx, "reason", err.Error()), "register_disposal_intent degraded to noop")
			return i.noop(ctx)
		}
		return Outcome{}, err
	}

	return Outcome{
		Tag:     OutcomeDisposalRegistered,
		Intents: result.Intents,
		Events:  result.Events,
	}, nil
}

func (i *Interpreter) applyRegisterItem(ctx context.Context, userID string, payload *RegisterItemPayload) (Outcome, error) {
	if payload == nil || payload.Name == "" {
		return i.noop(ctx)
	}

	ownerID := payload.OwnerID
	if ownerID == "" {
		ownerID = userID
	}

	status := enums.ItemStatusAvailable
	if payload.Status != "" {
		parsed, err := enums.ParseItemStatus(payload.Status)
		if err == nil {
			status = parsed
		}
	}

	var created state.Item
	err := i.store.Update(ctx, func(snap *state.Snapshot) error {
		if _, ok := snap.ResidentByID(ownerID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
		}
		created = state.Item{
			ID:          uuid.NewString(),
			Name:        payload.Name,
			Description: payload.Description,
			Tags:        append([]string(nil), payload.Tags...),
			OwnerID:     ownerID,
			Status:      status,
		}
		snap.Items = append(snap.Items, created)
		snap.Impact.ItemsShared++
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			i.logg.Warn(i.logg.WithField(ctx, "reason", err.Error()), "register_item degraded to noop")
			return i.noop(ctx)
		}
		return Outcome{}, err
	}

	return Outcome{Tag: OutcomeItemRegistered, Item: &created}, nil
}
