package assistant

import (
	"context"
	"errors"

	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// Service runs one chat round trip: assemble the prompt, call the
// collaborator, normalize its output, gate by confidence, and hand the
// surviving action to the interpreter.
type Service struct {
	store       *state.Store
	interpreter *actions.Interpreter
	llm         LLMClient
	history     HistoryStore
	cfg         config.ChatConfig
	logg        *logger.Logger
}

func NewService(
	store *state.Store,
	interpreter *actions.Interpreter,
	llm LLMClient,
	history HistoryStore,
	cfg config.ChatConfig,
	logg *logger.Logger,
) (*Service, error) {
	if store == nil || interpreter == nil || llm == nil || history == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant dependencies missing")
	}
	return &Service{
		store:       store,
		interpreter: interpreter,
		llm:         llm,
		history:     history,
		cfg:         cfg,
		logg:        logg,
	}, nil
}

// ChatResult is what the user sees after one chat turn.
type ChatResult struct {
	Reply      string
	Intent     string
	Confidence *float64
	// Outcome is set when an action was applied; ActionSuppressed marks an
	// action that was dropped by the confidence gate instead.
	Outcome          *actions.Outcome
	ActionSuppressed bool
}

// Chat processes one user message end to end.
func (s *Service) Chat(ctx context.Context, userID, message string) (*ChatResult, error) {
	if userID == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id and message are required")
	}
	ctx = s.logg.WithUserID(ctx, userID)

	snap := s.store.Snapshot()

	history, err := s.history.List(ctx, userID)
	if err != nil {
		// A lost history degrades the conversation, not the request.
		s.logg.Warn(ctx, "loading chat history failed, continuing without it")
		history = nil
	}

	raw, err := s.llm.Generate(ctx, buildInput(snap, userID, message, history))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generative collaborator request failed")
	}

	normalized, err := Normalize(raw, userID)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			s.logg.Warn(s.logg.WithField(ctx, "raw", parseErr.Raw), "model output failed normalization")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "model output could not be normalized")
	}
	ctx = s.logg.WithIntent(ctx, normalized.Intent)

	if appendErr := s.history.Append(ctx, userID,
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: normalized.Reply},
	); appendErr != nil {
		s.logg.Warn(ctx, "persisting chat history failed")
	}

	result := &ChatResult{
		Reply:      normalized.Reply,
		Intent:     normalized.Intent,
		Confidence: normalized.Confidence,
	}

	if normalized.Action == nil {
		return result, nil
	}

	// A stated confidence below the floor suppresses the action; an absent
	// confidence is treated as allowed.
	if normalized.Confidence != nil && *normalized.Confidence < s.cfg.MinConfidenceAuto {
		result.ActionSuppressed = true
		s.logg.Info(ctx, "action suppressed by confidence gate")
		return result, nil
	}

	action := actions.Decode(normalized.Action.Type, normalized.Action.Metadata)
	outcome, err := s.interpreter.Apply(ctx, userID, action, actions.ApplyOptions{
		AutoConfirm: s.autoConfirm(snap, userID),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying chat action failed")
	}

	result.Outcome = &outcome
	return result, nil
}

// autoConfirm lets highly trusted residents skip the lender confirmation
// step on borrow actions initiated through chat.
func (s *Service) autoConfirm(snap state.Snapshot, userID string) bool {
	resident, ok := snap.ResidentByID(userID)
	if !ok {
		return false
	}
	return resident.TrustScore >= s.cfg.TrustAutoConfirm
}
