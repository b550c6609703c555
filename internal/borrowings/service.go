package borrowings

import (
	"context"

	"github.com/google/uuid"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/enums"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// Service drives the borrowing lifecycle state machine:
// waiting_for_confirm -> active -> returned. Confirmation is deliberately a
// separate step so a lender keeps veto power before the item changes hands.
type Service struct {
	store  *state.Store
	impact config.ImpactConfig
	logg   *logger.Logger
}

// NewService wires the lifecycle dependencies.
func NewService(store *state.Store, impact config.ImpactConfig, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "state store required")
	}
	return &Service{store: store, impact: impact, logg: logg}, nil
}

// RequestParams describe a borrow request. LenderID defaults to the item
// owner when empty. AutoConfirm skips the confirmation step for trusted
// entry points and starts the borrowing active.
type RequestParams struct {
	BorrowerID  string
	ItemID      string
	LenderID    string
	Start       string
	Due         string
	AutoConfirm bool
}

// RequestResult reports the created borrowing.
type RequestResult struct {
	Borrowing     state.Borrowing
	AutoConfirmed bool
}

// Request creates a borrowing for an item. It fails when the item is
// unknown, the borrower is the owner, or another borrowing already holds the
// item.
func (s *Service) Request(ctx context.Context, params RequestParams) (*RequestResult, error) {
	var result RequestResult

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		item, ok := snap.ItemByID(params.ItemID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		if _, ok := snap.ResidentByID(params.BorrowerID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "borrower not found")
		}
		if params.BorrowerID == item.OwnerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot borrow your own item")
		}

		lenderID := params.LenderID
		if lenderID == "" {
			lenderID = item.OwnerID
		}
		if _, ok := snap.ResidentByID(lenderID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lender not found")
		}

		for _, b := range snap.Borrowings {
			if b.ItemID != item.ID {
				continue
			}
			if b.Status == enums.BorrowingStatusActive || b.Status == enums.BorrowingStatusWaitingForConfirm {
				return pkgerrors.New(pkgerrors.CodeConflict, "item already has a pending or active borrowing")
			}
		}

		borrowing := state.Borrowing{
			ID:         uuid.NewString(),
			ItemID:     item.ID,
			LenderID:   lenderID,
			BorrowerID: params.BorrowerID,
			Start:      params.Start,
			Due:        params.Due,
			Status:     enums.BorrowingStatusWaitingForConfirm,
		}

		if params.AutoConfirm {
			borrowing.Status = enums.BorrowingStatusActive
			setItemStatus(snap, item.ID, enums.ItemStatusBorrowed)
			applyBorrowImpact(&snap.Impact, s.impact)
			result.AutoConfirmed = true
		} else if item.Status == enums.ItemStatusAvailable || item.Status == enums.ItemStatusUnavailable {
			// A pre-reserved or borrowed item is left untouched; the
			// reconciliation pass re-derives its status anyway.
			setItemStatus(snap, item.ID, enums.ItemStatusRequested)
		}

		snap.Borrowings = append(snap.Borrowings, borrowing)
		result.Borrowing = borrowing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Confirm moves a borrowing from waiting_for_confirm to active. Only the
// lender may confirm; anything else is an explicit failure the caller should
// see.
func (s *Service) Confirm(ctx context.Context, callerID, borrowingID string) (*state.Borrowing, error) {
	var confirmed state.Borrowing

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		idx := borrowingIndex(snap, borrowingID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found")
		}
		b := &snap.Borrowings[idx]

		if callerID != b.LenderID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the lender can confirm a borrowing")
		}
		if b.Status != enums.BorrowingStatusWaitingForConfirm {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "borrowing is not waiting for confirmation").
				WithDetails(map[string]any{"status": b.Status.String()})
		}

		b.Status = enums.BorrowingStatusActive
		setItemStatus(snap, b.ItemID, enums.ItemStatusBorrowed)
		applyBorrowImpact(&snap.Impact, s.impact)
		confirmed = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &confirmed, nil
}

// ReturnResult reports a return transition. AlreadyReturned flags the
// distinct no-op case, which must not double-count impact.
type ReturnResult struct {
	Borrowing       state.Borrowing
	AlreadyReturned bool
}

// Return marks a borrowing returned and frees the item. An unknown
// borrowing id is reported, not fatal.
func (s *Service) Return(ctx context.Context, borrowingID string) (*ReturnResult, error) {
	var result ReturnResult

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		idx := borrowingIndex(snap, borrowingID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found")
		}
		b := &snap.Borrowings[idx]

		if b.Status == enums.BorrowingStatusReturned {
			result.Borrowing = *b
			result.AlreadyReturned = true
			return nil
		}

		b.Status = enums.BorrowingStatusReturned
		setItemStatus(snap, b.ItemID, enums.ItemStatusAvailable)
		result.Borrowing = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func borrowingIndex(snap *state.Snapshot, id string) int {
	for i := range snap.Borrowings {
		if snap.Borrowings[i].ID == id {
			return i
		}
	}
	return -1
}

func setItemStatus(snap *state.Snapshot, itemID string, status enums.ItemStatus) {
	for i := range snap.Items {
		if snap.Items[i].ID == itemID {
			snap.Items[i].Status = status
			return
		}
	}
}

func applyBorrowImpact(impact *state.Impact, cfg config.ImpactConfig) {
	impact.BorrowsCount++
	impact.CO2SavedKG += cfg.CO2PerBorrowKG
	impact.WasteAvoidedKG += cfg.WastePerBorrowKG
}
