package enums

import "fmt"

// BorrowingStatus describes the lifecycle state of a borrowing record.
type BorrowingStatus string

const (
	BorrowingStatusWaitingForConfirm BorrowingStatus = "waiting_for_confirm"
	BorrowingStatusActive            BorrowingStatus = "active"
	BorrowingStatusReturnRequested   BorrowingStatus = "return_requested"
	BorrowingStatusReturned          BorrowingStatus = "returned"
	// Cancelled is reserved in the vocabulary; no transition in the core
	// produces it today.
	BorrowingStatusCancelled BorrowingStatus = "cancelled"
)

var validBorrowingStatuses = []BorrowingStatus{
	BorrowingStatusWaitingForConfirm,
	BorrowingStatusActive,
	BorrowingStatusReturnRequested,
	BorrowingStatusReturned,
	BorrowingStatusCancelled,
}

// String returns the literal string for the status.
func (s BorrowingStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s BorrowingStatus) IsValid() bool {
	for _, candidate := range validBorrowingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBorrowingStatus converts raw input into a BorrowingStatus.
func ParseBorrowingStatus(value string) (BorrowingStatus, error) {
	for _, candidate := range validBorrowingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid borrowing status %q", value)
}
