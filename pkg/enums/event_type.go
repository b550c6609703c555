package enums

// EventType classifies entries in the append-only event log.
type EventType string

const (
	// EventTypeCollection marks an auto-created disposal/swap collection
	// event synthesized when a tag crosses the intent threshold.
	EventTypeCollection EventType = "collection"
)

// String returns the literal string for the type.
func (e EventType) String() string {
	return string(e)
}
