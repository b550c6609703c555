package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/api/validators"
	"github.com/localloop/localloop-backend/internal/actions"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

type applyActionRequest struct {
	UserID      string          `json:"user_id" validate:"required"`
	ActionType  string          `json:"action_type" validate:"required"`
	Metadata    json.RawMessage `json:"metadata"`
	AutoConfirm bool            `json:"auto_confirm"`
}

// ApplyAction runs one action through the interpreter on behalf of a
// resident. Unknown action types and failed guards come back as noop
// outcomes, not errors.
func ApplyAction(interp *actions.Interpreter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if interp == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "action interpreter unavailable"))
			return
		}

		var body applyActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action := actions.Decode(strings.TrimSpace(body.ActionType), body.Metadata)
		outcome, err := interp.Apply(r.Context(), strings.TrimSpace(body.UserID), action, actions.ApplyOptions{
			AutoConfirm: body.AutoConfirm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"outcome": outcome})
	}
}
