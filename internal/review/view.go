package review

import (
	"github.com/Astemirdum/fabtrack/internal/model"
)

type ItemRow struct {
	model.BorrowedItem
	Approve bool
	Serial  string
}

type RequestRow struct {
	model.BorrowRequest
	Expanded   bool
	Loaded     bool
	Items      []ItemRow
	ReturnDate string
	Submitting bool
}

// Approved counts the items currently marked for approval.
func (r RequestRow) Approved() int {
	n := 0
	for _, it := range r.Items {
		if it.Approve {
			n++
		}
	}
	return n
}

type Stats struct {
	Pending  int
	Approved int
	Returned int
	Overdue  int
}

// View is a copy of the board for rendering.
type View struct {
	Pending        []RequestRow
	PendingStale   bool
	PendingErr     error
	Processed      []model.BorrowRequest
	ProcessedStale bool
	ProcessedErr   error
	Stats          Stats
}

func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		Pending:        make([]RequestRow, 0, len(b.pending.requests)),
		PendingStale:   b.pending.stale,
		PendingErr:     b.pending.err,
		Processed:      append([]model.BorrowRequest(nil), b.approved.requests...),
		ProcessedStale: b.approved.stale,
		ProcessedErr:   b.approved.err,
	}
	for _, r := range b.pending.requests {
		row := RequestRow{
			BorrowRequest: r,
			Expanded:      b.expanded[r.ID],
			Submitting:    b.submitting[r.ID],
		}
		items, loaded := b.items[r.ID]
		row.Loaded = loaded
		if d, ok := b.drafts[r.ID]; ok {
			row.ReturnDate = d.returnDate
			for _, it := range items {
				ir := ItemRow{BorrowedItem: it}
				if di, ok := d.items[it.ID]; ok {
					ir.Approve = di.approve
					ir.Serial = di.serial
				}
				row.Items = append(row.Items, ir)
			}
		}
		v.Pending = append(v.Pending, row)
	}

	now := b.now()
	v.Stats.Pending = len(b.pending.requests)
	for _, r := range b.approved.requests {
		switch {
		case r.Status.Is(model.StatusApproved):
			v.Stats.Approved++
			if r.Overdue(now) {
				v.Stats.Overdue++
			}
		case r.Status.Is(model.StatusReturned):
			v.Stats.Returned++
		}
	}
	return v
}

// Expanded reports whether the request's item detail is open.
func (b *Board) Expanded(id model.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expanded[id]
}

// Loaded reports whether both lists have been fetched at least once.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.loaded && b.approved.loaded
}

// Items returns the cached item rows of a request, nil before its first expand.
func (b *Board) Items(id model.ID) []model.BorrowedItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.BorrowedItem(nil), b.items[id]...)
}
