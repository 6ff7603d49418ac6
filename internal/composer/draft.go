package composer

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/pkg/errors"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// ParseQuantity reads a quantity field. Anything that is not a positive
// integer becomes 1; large values clamp to MaxQuantity.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < MinQuantity {
		return MinQuantity
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

type Line struct {
	Equipment   model.Equipment
	Quantity    int
	Description string
}

type Submitter interface {
	CreateRequest(ctx context.Context, req model.CreateBorrowRequest) error
}

// Draft is a student's unsent borrow request.
type Draft struct {
	mu         sync.Mutex
	lines      []*Line
	collection string
	submitting bool
}

func NewDraft() *Draft {
	return &Draft{}
}

// Toggle selects the equipment or removes it when already selected, and
// reports whether it is selected afterwards.
func (d *Draft) Toggle(eq model.Equipment) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(eq.ID); i >= 0 {
		d.lines = append(d.lines[:i], d.lines[i+1:]...)
		return false
	}
	d.lines = append(d.lines, &Line{Equipment: eq, Quantity: MinQuantity})
	return true
}

func (d *Draft) Remove(id model.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(id); i >= 0 {
		d.lines = append(d.lines[:i], d.lines[i+1:]...)
	}
}

func (d *Draft) Selected(id model.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.indexLocked(id) >= 0
}

func (d *Draft) SetQuantity(id model.ID, raw string) error {
	return d.edit(id, func(l *Line) { l.Quantity = ParseQuantity(raw) })
}

func (d *Draft) SetDescription(id model.ID, text string) error {
	text = strings.TrimSpace(text)
	return d.edit(id, func(l *Line) { l.Description = text })
}

// SetCollection stores the raw datetime-local value.
func (d *Draft) SetCollection(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collection = strings.TrimSpace(value)
}

func (d *Draft) Validate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.buildLocked()
	return err
}

// Build validates the draft and returns the request body. The collection time
// is sent as RFC 3339 in UTC.
func (d *Draft) Build() (model.CreateBorrowRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buildLocked()
}

func (d *Draft) buildLocked() (model.CreateBorrowRequest, error) {
	if len(d.lines) == 0 {
		return model.CreateBorrowRequest{}, errs.ErrNoItemSelected
	}
	if d.collection == "" {
		return model.CreateBorrowRequest{}, errs.ErrCollectionRequired
	}
	at, err := model.ParseTime(d.collection)
	if err != nil {
		return model.CreateBorrowRequest{}, errors.Wrap(errs.ErrCollectionRequired, err.Error())
	}
	req := model.CreateBorrowRequest{
		Items:              make([]model.RequestedItem, 0, len(d.lines)),
		CollectionDateTime: at.UTC().Format(time.RFC3339),
	}
	for _, l := range d.lines {
		req.Items = append(req.Items, model.RequestedItem{
			EquipmentID: l.Equipment.ID,
			Quantity:    l.Quantity,
			Description: l.Description,
		})
	}
	return req, nil
}

// Submit sends the request and clears the draft on success. A second Submit
// while one is in flight fails with errs.ErrSubmitInProgress.
func (d *Draft) Submit(ctx context.Context, s Submitter) error {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return errs.ErrSubmitInProgress
	}
	req, err := d.buildLocked()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.submitting = true
	d.mu.Unlock()

	err = s.CreateRequest(ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		return err
	}
	d.lines = nil
	d.collection = ""
	return nil
}

func (d *Draft) Lines() []Line {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Line, 0, len(d.lines))
	for _, l := range d.lines {
		out = append(out, *l)
	}
	return out
}

func (d *Draft) Collection() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collection
}

func (d *Draft) Submitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}

func (d *Draft) edit(id model.ID, fn func(*Line)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(id)
	if i < 0 {
		return errors.Wrapf(errs.ErrNotFound, "equipment %s is not selected", id)
	}
	fn(d.lines[i])
	return nil
}

func (d *Draft) indexLocked(id model.ID) int {
	for i, l := range d.lines {
		if l.Equipment.ID == id {
			return i
		}
	}
	return -1
}
