package enums

// ActionKind names one of the closed set of mutation requests the action
// interpreter accepts. Anything outside this vocabulary is treated as a noop.
type ActionKind string

const (
	ActionCreateBorrow           ActionKind = "create_borrow"
	ActionMarkReturned           ActionKind = "mark_returned"
	ActionRegisterDisposalIntent ActionKind = "register_disposal_intent"
	ActionRegisterItem           ActionKind = "register_item"
	ActionNoop                   ActionKind = "noop"
)

var validActionKinds = []ActionKind{
	ActionCreateBorrow,
	ActionMarkReturned,
	ActionRegisterDisposalIntent,
	ActionRegisterItem,
	ActionNoop,
}

// String returns the literal string for the kind.
func (k ActionKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is part of the closed vocabulary.
func (k ActionKind) IsValid() bool {
	for _, candidate := range validActionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseActionKind maps raw input onto the vocabulary; unknown values come
// back as ActionNoop so callers never have to handle a parse failure.
func ParseActionKind(value string) ActionKind {
	for _, candidate := range validActionKinds {
		if string(candidate) == value {
			return candidate
		}
	}
	return ActionNoop
}
