package controllers

import (
	"net/http"
	"strings"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/api/validators"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/state"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// ListBorrowings returns a resident's borrowings split into the ones they
// borrowed and the ones they lent out.
func ListBorrowings(store *state.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "state store unavailable"))
			return
		}

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required"))
			return
		}

		snap := store.Snapshot()
		if _, ok := snap.ResidentByID(userID); !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "resident not found"))
			return
		}

		borrowed := make([]state.Borrowing, 0)
		lent := make([]state.Borrowing, 0)
		for _, b := range snap.Borrowings {
			if b.BorrowerID == userID {
				borrowed = append(borrowed, b)
			}
			if b.LenderID == userID {
				lent = append(lent, b)
			}
		}

		responses.WriteSuccess(w, map[string]any{"borrowed": borrowed, "lent": lent})
	}
}

type borrowRequestRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	ItemID   string `json:"item_id" validate:"required"`
	LenderID string `json:"lender_id"`
	Start    string `json:"suggested_start"`
	Due      string `json:"suggested_due"`
}

// RequestBorrowing creates a borrowing in waiting_for_confirm for the
// calling resident.
func RequestBorrowing(svc *borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowings service unavailable"))
			return
		}

		var body borrowRequestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Request(r.Context(), borrowings.RequestParams{
			BorrowerID: strings.TrimSpace(body.UserID),
			ItemID:     strings.TrimSpace(body.ItemID),
			LenderID:   strings.TrimSpace(body.LenderID),
			Start:      body.Start,
			Due:        body.Due,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"borrowing": result.Borrowing})
	}
}

type borrowConfirmRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	BorrowingID string `json:"borrowing_id" validate:"required"`
}

// ConfirmBorrowing lets the lender activate a waiting borrowing.
func ConfirmBorrowing(svc *borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowings service unavailable"))
			return
		}

		var body borrowConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowing, err := svc.Confirm(r.Context(), strings.TrimSpace(body.UserID), strings.TrimSpace(body.BorrowingID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"borrowing": borrowing})
	}
}

type borrowReturnRequest struct {
	BorrowingID string `json:"borrowing_id" validate:"required"`
}

// ReturnBorrowing closes out a borrowing and frees the item. Returning an
// already-returned borrowing is reported, not rejected.
func ReturnBorrowing(svc *borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowings service unavailable"))
			return
		}

		var body borrowReturnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Return(r.Context(), strings.TrimSpace(body.BorrowingID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"borrowing":        result.Borrowing,
			"already_returned": result.AlreadyReturned,
		})
	}
}
