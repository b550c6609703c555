package controllers

import (
	"net/http"
	"strings"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/internal/state"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// ListItems returns the shared items, optionally filtered by status or tag.
func ListItems(store *state.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "state store unavailable"))
			return
		}

		status := strings.TrimSpace(r.URL.Query().Get("status"))
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))

		snap := store.Snapshot()
		items := make([]state.Item, 0, len(snap.Items))
		for _, item := range snap.Items {
			if status != "" && string(item.Status) != status {
				continue
			}
			if tag != "" && !hasTag(item.Tags, tag) {
				continue
			}
			items = append(items, item)
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
