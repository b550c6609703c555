package state

import "github.com/localloop/localloop-backend/pkg/enums"

// ReconcileStats summarizes what a reconciliation pass corrected.
type ReconcileStats struct {
	ItemsDropped      int
	BorrowingsDropped int
	StatusRewrites    int
}

// Reconcile re-derives the consistent view of a raw snapshot. It is total
// (never fails; invalid records are dropped, not reported) and idempotent:
// Reconcile(Reconcile(s)) == Reconcile(s) for any s.
func Reconcile(s Snapshot) Snapshot {
	clean, _ := ReconcileWithStats(s)
	return clean
}

// ReconcileWithStats is Reconcile plus counters for observability.
func ReconcileWithStats(s Snapshot) (Snapshot, ReconcileStats) {
	var stats ReconcileStats
	clean := s.Clone()

	if clean.Building == nil {
		clean.Building = map[string]any{}
	}
	if clean.Residents == nil {
		clean.Residents = []Resident{}
	}
	if clean.Events == nil {
		clean.Events = []Event{}
	}
	if clean.DisposalIntents == nil {
		clean.DisposalIntents = []DisposalIntent{}
	}

	residentIDs := make(map[string]struct{}, len(clean.Residents))
	for _, r := range clean.Residents {
		if r.ID != "" {
			residentIDs[r.ID] = struct{}{}
		}
	}

	// An item survives only with an id and a known owner. Statuses outside
	// the closed enum are coerced to available.
	items := make([]Item, 0, len(clean.Items))
	for _, it := range clean.Items {
		if it.ID == "" {
			stats.ItemsDropped++
			continue
		}
		if _, ok := residentIDs[it.OwnerID]; it.OwnerID == "" || !ok {
			stats.ItemsDropped++
			continue
		}
		if !it.Status.IsValid() {
			it.Status = enums.ItemStatusAvailable
			stats.StatusRewrites++
		}
		items = append(items, it)
	}
	clean.Items = items

	itemIDs := make(map[string]struct{}, len(items))
	for _, it := range items {
		itemIDs[it.ID] = struct{}{}
	}

	// A borrowing survives only with an id, a surviving item, known lender
	// and borrower, and a status inside the closed enum.
	borrowings := make([]Borrowing, 0, len(clean.Borrowings))
	for _, b := range clean.Borrowings {
		if b.ID == "" {
			stats.BorrowingsDropped++
			continue
		}
		if _, ok := itemIDs[b.ItemID]; b.ItemID == "" || !ok {
			stats.BorrowingsDropped++
			continue
		}
		if _, ok := residentIDs[b.LenderID]; b.LenderID == "" || !ok {
			stats.BorrowingsDropped++
			continue
		}
		if _, ok := residentIDs[b.BorrowerID]; b.BorrowerID == "" || !ok {
			stats.BorrowingsDropped++
			continue
		}
		if !b.Status.IsValid() {
			stats.BorrowingsDropped++
			continue
		}
		borrowings = append(borrowings, b)
	}
	clean.Borrowings = borrowings

	statusesByItem := make(map[string][]enums.BorrowingStatus, len(borrowings))
	for _, b := range borrowings {
		statusesByItem[b.ItemID] = append(statusesByItem[b.ItemID], b.Status)
	}

	// Item status is a pure function of its borrowings, in priority order:
	// active wins, then waiting_for_confirm, then return_requested (item is
	// physically still with the borrower). A borrowed/requested item with no
	// supporting borrowing is reset to available.
	for i := range clean.Items {
		derived, ok := deriveItemStatus(clean.Items[i].Status, statusesByItem[clean.Items[i].ID])
		if ok && derived != clean.Items[i].Status {
			clean.Items[i].Status = derived
			stats.StatusRewrites++
		}
	}

	return clean, stats
}

func deriveItemStatus(current enums.ItemStatus, borrowStatuses []enums.BorrowingStatus) (enums.ItemStatus, bool) {
	var waiting, returnRequested bool
	for _, st := range borrowStatuses {
		switch st {
		case enums.BorrowingStatusActive:
			return enums.ItemStatusBorrowed, true
		case enums.BorrowingStatusWaitingForConfirm:
			waiting = true
		case enums.BorrowingStatusReturnRequested:
			returnRequested = true
		}
	}
	if waiting {
		return enums.ItemStatusRequested, true
	}
	if returnRequested {
		return enums.ItemStatusBorrowed, true
	}
	if current == enums.ItemStatusBorrowed || current == enums.ItemStatusRequested {
		return enums.ItemStatusAvailable, true
	}
	return current, false
}
