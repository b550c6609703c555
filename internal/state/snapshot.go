package state

import (
	"time"

	"github.com/localloop/localloop-backend/pkg/enums"
)

// IntentStatusForDisposal is the only status a disposal intent ever carries.
const IntentStatusForDisposal = "for_disposal"

// Resident is a seeded member of the building. Residents are immutable once
// loaded and referenced by id only.
type Resident struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Floor      int     `json:"floor"`
	TrustScore float64 `json:"trust_score"`
}

// Item is a shared physical item owned by exactly one resident. Its status is
// derived from its borrowings on every reconciliation pass and must never be
// treated as independently authoritative.
type Item struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	OwnerID     string           `json:"owner_id"`
	Status      enums.ItemStatus `json:"status"`
}

// Borrowing tracks one lend/return cycle for an item. Start and due are kept
// as the caller-supplied timestamps; the core never interprets them.
type Borrowing struct {
	ID         string                `json:"id"`
	ItemID     string                `json:"item_id"`
	LenderID   string                `json:"lender_id"`
	BorrowerID string                `json:"borrower_id"`
	Start      string                `json:"start,omitempty"`
	Due        string                `json:"due,omitempty"`
	Status     enums.BorrowingStatus `json:"status"`
}

// DisposalIntent expresses a resident's wish to relinquish items, pending
// aggregation into a collection event.
type DisposalIntent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventMetadata carries the aggregation facts attached to a collection event.
type EventMetadata struct {
	Tag            string `json:"tag,omitempty"`
	IntentsCount   int    `json:"intents_count,omitempty"`
	EstimatedItems int    `json:"estimated_items,omitempty"`
}

// Event is an append-only record of a real-world occurrence with attributed
// environmental impact. Events are never mutated after creation.
type Event struct {
	ID             string          `json:"id"`
	Type           enums.EventType `json:"type"`
	Source         string          `json:"source,omitempty"`
	Title          string          `json:"title,omitempty"`
	Metadata       EventMetadata   `json:"metadata"`
	ScheduledFor   time.Time       `json:"scheduled_for"`
	CreatedAt      time.Time       `json:"created_at"`
	CO2SavedKG     float64         `json:"co2_saved_kg"`
	WasteAvoidedKG float64         `json:"waste_avoided_kg"`
}

// Impact holds the running totals. All fields are monotonically
// non-decreasing; they only move as a side effect of lifecycle transitions.
type Impact struct {
	CO2SavedKG     float64 `json:"co2_saved_kg"`
	WasteAvoidedKG float64 `json:"waste_avoided_kg"`
	BorrowsCount   int     `json:"borrows_count"`
	EventsCount    int     `json:"events_count"`
	ItemsShared    int     `json:"items_shared"`
}

// Snapshot is the whole building state blob. It is mutated only through the
// Store and cleaned by Reconcile before every write-out.
type Snapshot struct {
	Building        map[string]any   `json:"building"`
	Residents       []Resident       `json:"residents"`
	Items           []Item           `json:"items"`
	Borrowings      []Borrowing      `json:"borrowings"`
	Events          []Event          `json:"events"`
	Impact          Impact           `json:"impact"`
	DisposalIntents []DisposalIntent `json:"disposal_intents"`
}

// DefaultSnapshot returns the empty-but-initialized shape a fresh deployment
// starts from, and that a corrupted data file self-heals into.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Building:        map[string]any{},
		Residents:       []Resident{},
		Items:           []Item{},
		Borrowings:      []Borrowing{},
		Events:          []Event{},
		DisposalIntents: []DisposalIntent{},
	}
}

// Clone deep-copies the snapshot so read paths never alias store memory.
func (s Snapshot) Clone() Snapshot {
	out := s

	if s.Building != nil {
		out.Building = make(map[string]any, len(s.Building))
		for k, v := range s.Building {
			out.Building[k] = v
		}
	}

	out.Residents = append([]Resident(nil), s.Residents...)
	out.Borrowings = append([]Borrowing(nil), s.Borrowings...)
	out.Events = append([]Event(nil), s.Events...)

	out.Items = make([]Item, len(s.Items))
	for i, item := range s.Items {
		item.Tags = append([]string(nil), item.Tags...)
		out.Items[i] = item
	}

	out.DisposalIntents = make([]DisposalIntent, len(s.DisposalIntents))
	for i, intent := range s.DisposalIntents {
		intent.Tags = append([]string(nil), intent.Tags...)
		out.DisposalIntents[i] = intent
	}

	return out
}

// ResidentByID looks up a resident.
func (s Snapshot) ResidentByID(id string) (Resident, bool) {
	for _, r := range s.Residents {
		if r.ID == id {
			return r, true
		}
	}
	return Resident{}, false
}

// ItemByID looks up an item.
func (s Snapshot) ItemByID(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// BorrowingByID looks up a borrowing.
func (s Snapshot) BorrowingByID(id string) (Borrowing, bool) {
	for _, b := range s.Borrowings {
		if b.ID == id {
			return b, true
		}
	}
	return Borrowing{}, false
}
