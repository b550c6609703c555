package controllers

import (
	"net/http"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/internal/state"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// ListEvents returns the community events, newest first.
func ListEvents(store *state.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "state store unavailable"))
			return
		}

		snap := store.Snapshot()
		events := make([]state.Event, 0, len(snap.Events))
		for i := len(snap.Events) - 1; i >= 0; i-- {
			events = append(events, snap.Events[i])
		}

		responses.WriteSuccess(w, map[string]any{"events": events})
	}
}
