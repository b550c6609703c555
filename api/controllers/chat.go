package controllers

import (
	"net/http"
	"strings"

	"github.com/localloop/localloop-backend/api/responses"
	"github.com/localloop/localloop-backend/api/validators"
	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/assistant"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

type chatRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type chatResponse struct {
	Reply            string           `json:"reply"`
	Intent           string           `json:"intent"`
	Confidence       *float64         `json:"confidence,omitempty"`
	Outcome          *actions.Outcome `json:"outcome,omitempty"`
	ActionSuppressed bool             `json:"action_suppressed"`
}

// Chat runs one assistant round-trip: model call, output normalization and,
// when the confidence gate passes, action interpretation.
func Chat(svc *assistant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		var body chatRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Chat(r.Context(), strings.TrimSpace(body.UserID), strings.TrimSpace(body.Message))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, chatResponse{
			Reply:            result.Reply,
			Intent:           result.Intent,
			Confidence:       result.Confidence,
			Outcome:          result.Outcome,
			ActionSuppressed: result.ActionSuppressed,
		})
	}
}
