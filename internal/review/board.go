package review

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Backend interface {
	Pending(ctx context.Context) ([]model.BorrowRequest, error)
	All(ctx context.Context) ([]model.BorrowRequest, error)
	Items(ctx context.Context, requestID model.ID) ([]model.BorrowedItem, error)
	Approve(ctx context.Context, requestID model.ID, req model.ApproveRequest) error
	Return(ctx context.Context, requestID model.ID) error
}

type itemDraft struct {
	approve bool
	serial  string
}

// draft is the admin's unsent decision for one request.
type draft struct {
	items      map[model.ID]*itemDraft
	returnDate string
}

type list struct {
	requests []model.BorrowRequest
	loaded   bool
	stale    bool
	err      error
}

func (l *list) fail(err error) {
	l.stale = true
	l.err = err
}

func (l *list) set(requests []model.BorrowRequest) {
	l.requests = requests
	l.loaded = true
	l.stale = false
	l.err = nil
}

// Board holds one admin's review state: the pending and approved lists, the
// lazily fetched item rows and the per-request approval drafts. Backend calls
// are made without holding the lock.
type Board struct {
	backend Backend
	log     *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	pending    list
	approved   list
	expanded   map[model.ID]bool
	loading    map[model.ID]bool
	items      map[model.ID][]model.BorrowedItem
	drafts     map[model.ID]*draft
	submitting map[model.ID]bool
}

func NewBoard(backend Backend, log *zap.Logger) *Board {
	return &Board{
		backend:    backend,
		log:        log.Named("review"),
		now:        time.Now,
		expanded:   make(map[model.ID]bool),
		loading:    make(map[model.ID]bool),
		items:      make(map[model.ID][]model.BorrowedItem),
		drafts:     make(map[model.ID]*draft),
		submitting: make(map[model.ID]bool),
	}
}

// Load fetches both lists concurrently. A failing list keeps its previous
// rows and is marked stale. A 401 from either list is returned ahead of any
// other failure.
func (b *Board) Load(ctx context.Context) error {
	var (
		g                       errgroup.Group
		pendingErr, approvedErr error
	)
	g.Go(func() error {
		pendingErr = b.LoadPending(ctx)
		return nil
	})
	g.Go(func() error {
		approvedErr = b.LoadApproved(ctx)
		return nil
	})
	_ = g.Wait() //nolint:errcheck
	return errs.First(pendingErr, approvedErr)
}

func (b *Board) LoadPending(ctx context.Context) error {
	requests, err := b.backend.Pending(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.pending.fail(err)
		b.log.Warn("load pending", zap.Error(err))
		return err
	}
	b.pending.set(requests)
	return nil
}

// LoadApproved derives the processed list from all requests: everything not
// pending, compared case-insensitively.
func (b *Board) LoadApproved(ctx context.Context) error {
	all, err := b.backend.All(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.approved.fail(err)
		b.log.Warn("load approved", zap.Error(err))
		return err
	}
	processed := make([]model.BorrowRequest, 0, len(all))
	for _, r := range all {
		if !r.Status.Is(model.StatusPending) {
			processed = append(processed, r)
		}
	}
	b.approved.set(processed)
	return nil
}

// Expand opens a request's item detail. Items are fetched on the first expand
// only and cached for the board's lifetime.
func (b *Board) Expand(ctx context.Context, id model.ID) error {
	b.mu.Lock()
	b.expanded[id] = true
	if _, cached := b.items[id]; cached || b.loading[id] {
		b.mu.Unlock()
		return nil
	}
	b.loading[id] = true
	b.mu.Unlock()

	items, err := b.backend.Items(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.loading, id)
	if err != nil {
		return err
	}
	// Approved or dropped from the backend's pending list while fetching.
	if b.pending.loaded && !contains(b.pending.requests, id) {
		delete(b.expanded, id)
		return nil
	}
	b.items[id] = items
	d := b.draftLocked(id)
	for _, it := range items {
		if _, ok := d.items[it.ID]; !ok {
			d.items[it.ID] = &itemDraft{serial: it.SerialNumber}
		}
	}
	return nil
}

func (b *Board) Collapse(id model.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expanded[id] = false
}

func (b *Board) Toggle(id, itemID model.ID) error {
	return b.editItem(id, itemID, func(it *itemDraft) { it.approve = !it.approve })
}

func (b *Board) SetApproval(id, itemID model.ID, approve bool) error {
	return b.editItem(id, itemID, func(it *itemDraft) { it.approve = approve })
}

func (b *Board) SetSerial(id, itemID model.ID, serial string) error {
	serial = strings.TrimSpace(serial)
	return b.editItem(id, itemID, func(it *itemDraft) { it.serial = serial })
}

func (b *Board) ApproveAll(id model.ID) error { return b.setAll(id, true) }

func (b *Board) RejectAll(id model.ID) error { return b.setAll(id, false) }

func (b *Board) SetReturnDate(id model.ID, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draftLocked(id).returnDate = strings.TrimSpace(value)
}

func (b *Board) setAll(id model.ID, approve bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.drafts[id]
	if !ok {
		return errors.Wrapf(errs.ErrNotFound, "request %s has no loaded items", id)
	}
	for _, it := range d.items {
		it.approve = approve
	}
	return nil
}

func (b *Board) editItem(id, itemID model.ID, fn func(*itemDraft)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.drafts[id]
	if !ok {
		return errors.Wrapf(errs.ErrNotFound, "request %s has no loaded items", id)
	}
	it, ok := d.items[itemID]
	if !ok {
		return errors.Wrapf(errs.ErrNotFound, "item %s of request %s", itemID, id)
	}
	fn(it)
	return nil
}

func (b *Board) draftLocked(id model.ID) *draft {
	d, ok := b.drafts[id]
	if !ok {
		d = &draft{items: make(map[model.ID]*itemDraft)}
		b.drafts[id] = d
	}
	return d
}

func (b *Board) Validate(id model.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validateLocked(id)
}

func (b *Board) validateLocked(id model.ID) error {
	d, ok := b.drafts[id]
	approved := 0
	if ok {
		for _, it := range d.items {
			if it.approve {
				approved++
			}
		}
	}
	if approved == 0 {
		return errs.ErrNoItemApproved
	}
	if d.returnDate == "" {
		return errs.ErrReturnDateRequired
	}
	if _, err := model.ParseTime(d.returnDate); err != nil {
		return errors.Wrap(errs.ErrReturnDateRequired, err.Error())
	}
	return nil
}

// Submit sends the approval for one request. It validates first and refuses
// a second submit while one is in flight. On success the request leaves the
// pending list and the processed list is re-fetched.
func (b *Board) Submit(ctx context.Context, id model.ID) error {
	b.mu.Lock()
	if b.submitting[id] {
		b.mu.Unlock()
		return errs.ErrSubmitInProgress
	}
	if err := b.validateLocked(id); err != nil {
		b.mu.Unlock()
		return err
	}
	req := b.approvalLocked(id)
	b.submitting[id] = true
	b.mu.Unlock()

	err := b.backend.Approve(ctx, id, req)

	b.mu.Lock()
	delete(b.submitting, id)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.pending.requests = without(b.pending.requests, id)
	delete(b.drafts, id)
	delete(b.items, id)
	delete(b.expanded, id)
	b.mu.Unlock()

	if err := b.LoadApproved(ctx); err != nil {
		b.log.Warn("reload after approve", zap.String("request", id.String()), zap.Error(err))
	}
	return nil
}

func (b *Board) approvalLocked(id model.ID) model.ApproveRequest {
	d := b.drafts[id]
	req := model.ApproveRequest{
		ReturnDate: d.returnDate,
		Items:      make([]model.ApprovalItem, 0, len(b.items[id])),
	}
	for _, it := range b.items[id] {
		di := d.items[it.ID]
		req.Items = append(req.Items, model.ApprovalItem{
			BorrowedItemID: it.ID,
			Allow:          di.approve,
			SerialNumber:   di.serial,
			Description:    it.Description,
		})
	}
	return req
}

// MarkReturned records the return and re-fetches the processed list. When the
// re-fetch fails the row is patched locally and the list stays marked stale.
func (b *Board) MarkReturned(ctx context.Context, id model.ID) error {
	if err := b.backend.Return(ctx, id); err != nil {
		return err
	}
	if err := b.LoadApproved(ctx); err != nil {
		b.mu.Lock()
		for i := range b.approved.requests {
			if b.approved.requests[i].ID == id {
				b.approved.requests[i].Status = model.StatusReturned
			}
		}
		b.mu.Unlock()
		b.log.Warn("reload after return", zap.String("request", id.String()), zap.Error(err))
	}
	return nil
}

func without(requests []model.BorrowRequest, id model.ID) []model.BorrowRequest {
	out := make([]model.BorrowRequest, 0, len(requests))
	for _, r := range requests {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func contains(requests []model.BorrowRequest, id model.ID) bool {
	for _, r := range requests {
		if r.ID == id {
			return true
		}
	}
	return false
}
