package actions

import (
	"encoding/json"

	"github.com/localloop/localloop-backend/pkg/enums"
)

// Action is the decoded form of an interpreter request. Exactly one payload
// field matching Kind is populated; everything else is nil. A zero Action is
// a noop.
type Action struct {
	Kind enums.ActionKind

	CreateBorrow     *CreateBorrowPayload
	MarkReturned     *MarkReturnedPayload
	RegisterDisposal *RegisterDisposalPayload
	RegisterItem     *RegisterItemPayload
}

// CreateBorrowPayload carries the fields a borrow request needs. All four
// are required; the interpreter treats a partial payload as a noop.
type CreateBorrowPayload struct {
	ItemID         string `json:"item_id"`
	LenderID       string `json:"lender_id"`
	SuggestedStart string `json:"suggested_start"`
	SuggestedDue   string `json:"suggested_due"`
}

type MarkReturnedPayload struct {
	BorrowingID string `json:"borrowing_id"`
}

// DisposalItem is one item-shaped disposal entry.
type DisposalItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	OwnerID     string   `json:"owner_id"`
}

// RegisterDisposalPayload accepts either detailed items or a bare category
// list; Items wins when both are present.
type RegisterDisposalPayload struct {
	Items      []DisposalItem `json:"items"`
	Categories []string       `json:"categories"`
}

type RegisterItemPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	OwnerID     string   `json:"owner_id"`
	Status      string   `json:"status"`
}

// NoopAction is the neutral action: applying it still runs a reconciliation
// write-out but changes no entity.
func NoopAction() Action {
	return Action{Kind: enums.ActionNoop}
}

// Decode maps a raw action_type plus metadata blob onto the closed action
// vocabulary. It is total: unknown kinds and malformed metadata come back as
// a noop, never as an error.
func Decode(actionType string, metadata json.RawMessage) Action {
	kind := enums.ParseActionKind(actionType)

	switch kind {
	case enums.ActionCreateBorrow:
		var payload CreateBorrowPayload
		if !decodeMetadata(metadata, &payload) {
			return NoopAction()
		}
		return Action{Kind: kind, CreateBorrow: &payload}
	case enums.ActionMarkReturned:
		var payload MarkReturnedPayload
		if !decodeMetadata(metadata, &payload) {
			return NoopAction()
		}
		return Action{Kind: kind, MarkReturned: &payload}
	case enums.ActionRegisterDisposalIntent:
		var payload RegisterDisposalPayload
		if !decodeMetadata(metadata, &payload) {
			return NoopAction()
		}
		return Action{Kind: kind, RegisterDisposal: &payload}
	case enums.ActionRegisterItem:
		var payload RegisterItemPayload
		if !decodeMetadata(metadata, &payload) {
			return NoopAction()
		}
		return Action{Kind: kind, RegisterItem: &payload}
	default:
		return NoopAction()
	}
}

func decodeMetadata(metadata json.RawMessage, target any) bool {
	if len(metadata) == 0 || string(metadata) == "null" {
		return true
	}
	return json.Unmarshal(metadata, target) == nil
}
