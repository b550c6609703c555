package controllers

import (
	"net/http"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/internal/state"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// BuildingState returns the full reconciled snapshot: building profile,
// residents, items, borrowings, events, impact and pending disposal intents.
func BuildingState(store *state.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "state store unavailable"))
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}
