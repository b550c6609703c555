package enums

import "fmt"

// ItemStatus describes the lifecycle state of a shared item.
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusUnavailable ItemStatus = "unavailable"
	ItemStatusArchived    ItemStatus = "archived"
	ItemStatusBorrowed    ItemStatus = "borrowed"
	ItemStatusRequested   ItemStatus = "requested"
)

var validItemStatuses = []ItemStatus{
	ItemStatusAvailable,
	ItemStatusUnavailable,
	ItemStatusArchived,
	ItemStatusBorrowed,
	ItemStatusRequested,
}

// String returns the literal string for the status.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
