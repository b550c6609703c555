package assistant

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirectObject(t *testing.T) {
	raw := `{"intent":"small_talk","reply":"Hello!","action":null,"confidence":0.9}`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)
	assert.Equal(t, "small_talk", got.Intent)
	assert.Equal(t, "Hello!", got.Reply)
	assert.Nil(t, got.Action)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.9, *got.Confidence, 1e-9)
}

func TestNormalizeDoubleEncoded(t *testing.T) {
	inner := `{"intent":"ask_impact","reply":"We saved 12kg of CO2.","action":null}`
	raw, err := json.Marshal(inner)
	require.NoError(t, err)

	got, err := Normalize(string(raw), "anna")
	require.NoError(t, err)
	assert.Equal(t, "ask_impact", got.Intent)
}

func TestNormalizeEmbeddedObject(t *testing.T) {
	raw := `Sure, here is the result: {"intent":"small_talk","reply":"hi there"} hope that helps!`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)
	assert.Equal(t, "small_talk", got.Intent)
	assert.Equal(t, "hi there", got.Reply)
}

func TestNormalizeTruncatedOutputFails(t *testing.T) {
	raw := `Sure! {"intent": "small_talk", "reply": "hi"`

	_, err := Normalize(raw, "anna")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, raw, parseErr.Raw, "parse error must carry the raw text")
}

func TestNormalizeRejectsInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json at all", raw: "I could not produce JSON, sorry."},
		{name: "array instead of object", raw: `[1,2,3]`},
		{name: "missing reply", raw: `{"intent":"small_talk"}`},
		{name: "missing intent", raw: `{"reply":"hello"}`},
		{name: "action is a string", raw: `{"intent":"x","reply":"y","action":"register_item"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw, "anna")
			require.Error(t, err)
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestNormalizeConfidenceCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "numeric string", raw: `{"intent":"x","reply":"y","confidence":"0.75"}`, want: ptr(0.75)},
		{name: "garbage string dropped", raw: `{"intent":"x","reply":"y","confidence":"high"}`, want: nil},
		{name: "absent", raw: `{"intent":"x","reply":"y"}`, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw, "anna")
			require.NoError(t, err)
			if tc.want == nil {
				assert.Nil(t, got.Confidence)
			} else {
				require.NotNil(t, got.Confidence)
				assert.InDelta(t, *tc.want, *got.Confidence, 1e-9)
			}
		})
	}
}

func TestOwnershipGuardFillsMissingOwner(t *testing.T) {
	raw := `{"intent":"register_item","reply":"Registering your ladder.","action":{"action_type":"register_item","metadata":{"name":"Ladder"}}}`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)
	require.NotNil(t, got.Action)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(got.Action.Metadata, &metadata))
	assert.Equal(t, "anna", metadata["owner_id"])
	assert.NotContains(t, got.Reply, "signed in", "filling a missing owner is silent")
}

func TestOwnershipGuardOverwritesMismatchedOwner(t *testing.T) {
	raw := `{"intent":"register_item","reply":"Done.","action":{"action_type":"register_item","metadata":{"name":"Ladder","owner_id":"peter"}}}`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(got.Action.Metadata, &metadata))
	assert.Equal(t, "anna", metadata["owner_id"])
	assert.True(t, strings.Contains(got.Reply, `signed in as "anna"`), "overwrite must surface a notice")
}

func TestOwnershipGuardDisposalItems(t *testing.T) {
	raw := `{"intent":"register_disposal_intent","reply":"Summary...","action":{"action_type":"register_disposal_intent","metadata":{"items":[{"name":"Sofa","owner_id":"peter"},{"name":"Chair"}]}}}`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)

	var metadata struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(got.Action.Metadata, &metadata))
	require.Len(t, metadata.Items, 2)
	assert.Equal(t, "anna", metadata.Items[0]["owner_id"])
	assert.Equal(t, "anna", metadata.Items[1]["owner_id"])
	assert.Contains(t, got.Reply, `signed in as "anna"`)
}

func TestOwnershipGuardLeavesOtherActionsAlone(t *testing.T) {
	raw := `{"intent":"borrow_item","reply":"Requesting...","action":{"action_type":"create_borrow","metadata":{"item_id":"drill-1","lender_id":"peter","suggested_start":"a","suggested_due":"b"}}}`

	got, err := Normalize(raw, "anna")
	require.NoError(t, err)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(got.Action.Metadata, &metadata))
	assert.Equal(t, "peter", metadata["lender_id"])
	_, hasOwner := metadata["owner_id"]
	assert.False(t, hasOwner)
}

func ptr(f float64) *float64 { return &f }
