package assistant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports that the collaborator's output could not be converted
// into a structured command. Raw carries the unmodified text for diagnostics.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("normalizing model output: %s", e.Reason)
}

// RawAction is the not-yet-validated action extracted from the model output.
// The interpreter's decoder owns vocabulary validation.
type RawAction struct {
	Type     string
	Metadata json.RawMessage
}

// Normalized is one validated {intent, reply, action, confidence} record.
type Normalized struct {
	Intent     string
	Reply      string
	Action     *RawAction
	Confidence *float64
}

// ownershipNotice is appended to the reply whenever the model tried to
// assign ownership to someone other than the acting user.
func ownershipNotice(userID string) string {
	return fmt.Sprintf("You are signed in as %q. Ownership cannot be assigned to another resident; the owner has been set to your account.", userID)
}

// Normalize converts a raw, possibly malformed model response into a
// validated record and enforces the ownership invariant: the model is never
// trusted to register items or disposal intents on behalf of a third party.
func Normalize(raw, actingUserID string) (*Normalized, error) {
	decoded := decodeLoose(raw)
	if decoded == nil {
		return nil, &ParseError{Reason: "no decodable JSON found", Raw: raw}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: "response is not a JSON object", Raw: raw}
	}

	intent, _ := obj["intent"].(string)
	reply, _ := obj["reply"].(string)
	if intent == "" || reply == "" {
		return nil, &ParseError{Reason: "response missing intent or reply", Raw: raw}
	}

	var actionMap map[string]any
	if rawAction, present := obj["action"]; present && rawAction != nil {
		actionMap, ok = rawAction.(map[string]any)
		if !ok {
			return nil, &ParseError{Reason: "action must be an object or null", Raw: raw}
		}
	}

	confidence := coerceConfidence(obj["confidence"])

	result := &Normalized{
		Intent:     intent,
		Reply:      reply,
		Confidence: confidence,
	}

	if actionMap != nil {
		action, noticed := guardOwnership(intent, actionMap, actingUserID)
		if noticed {
			result.Reply = strings.TrimSpace(result.Reply) + "\n\n" + ownershipNotice(actingUserID)
		}
		result.Action = action
	}

	return result, nil
}

// decodeLoose tries, in order: a direct decode, a second decode when the
// body is a double-encoded JSON string, and a scan for the first balanced
// {...} or [...] substring. Only objects and arrays count as success.
func decodeLoose(raw string) any {
	if decoded := tryDecode(strings.TrimSpace(raw)); decoded != nil {
		return decoded
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(raw, pair[0])
		if start < 0 {
			continue
		}
		end := findBalanced(raw, pair[0], pair[1], start)
		if end < 0 {
			continue
		}
		if decoded := tryDecode(raw[start : end+1]); decoded != nil {
			return decoded
		}
	}
	return nil
}

func tryDecode(s string) any {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil
	}
	// Double-encoded payloads decode to a string first.
	if inner, ok := parsed.(string); ok {
		var again any
		if err := json.Unmarshal([]byte(inner), &again); err != nil {
			return nil
		}
		parsed = again
	}
	switch parsed.(type) {
	case map[string]any, []any:
		return parsed
	default:
		return nil
	}
}

// findBalanced walks the text from start counting brace depth and returns
// the index closing the pair opened at start, or -1 when unterminated.
func findBalanced(s string, open, closing byte, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func coerceConfidence(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// guardOwnership rewrites owner_id fields inside the action metadata so they
// always point at the acting user. It reports whether a mismatched owner was
// overwritten, which callers surface to the user.
func guardOwnership(intent string, actionMap map[string]any, userID string) (*RawAction, bool) {
	actionType, _ := actionMap["action_type"].(string)
	metadata, _ := actionMap["metadata"].(map[string]any)
	noticed := false

	if isRegisterItem(intent, actionType) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if overwritten := forceOwner(metadata, userID); overwritten {
			noticed = true
		}
	}

	if isRegisterDisposal(intent, actionType) && metadata != nil {
		items, _ := metadata["items"].([]any)
		for _, entry := range items {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if overwritten := forceOwner(item, userID); overwritten {
				noticed = true
			}
		}
	}

	raw := &RawAction{Type: actionType}
	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err == nil {
			raw.Metadata = encoded
		}
	}
	return raw, noticed
}

// forceOwner fills a missing owner_id and overwrites a mismatched one. It
// returns true only for the overwrite case.
func forceOwner(fields map[string]any, userID string) bool {
	owner, present := fields["owner_id"]
	if !present || owner == nil {
		fields["owner_id"] = userID
		return false
	}
	if ownerStr, ok := owner.(string); ok && ownerStr == userID {
		return false
	}
	fields["owner_id"] = userID
	return true
}

func isRegisterItem(intent, actionType string) bool {
	return intent == "register_item" || intent == "offer_item" || actionType == "register_item"
}

func isRegisterDisposal(intent, actionType string) bool {
	return intent == "register_disposal_intent" || intent == "get_rid_of_items" || actionType == "register_disposal_intent"
}
