package state

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
)

// MsgInvalidID is shown when a detail view is opened without a usable id.
const MsgInvalidID = "This item id is not valid."

// MsgNotLoaded is returned by operations that need a loaded item.
const MsgNotLoaded = "No item is loaded."

// DetailState is a snapshot of a Detail store.
type DetailState[ID model.Key] struct {
	Async[*model.Item[ID]]
	Uploading bool
}

// Detail owns the local view of a single item plus upload progress.
// Uploading is tracked apart from Loading since an upload runs after the
// item is already on screen.
type Detail[ID model.Key] struct {
	remote Remote[ID]
	logger *log.Logger

	mu      sync.Mutex
	item    *model.Item[ID]
	loading bool
	err     string
	uploads int
	closed  bool
	seq     tokens[struct{}]
}

// NewDetail returns a store in the Loading state with no item.
func NewDetail[ID model.Key](remote Remote[ID], logger *log.Logger) *Detail[ID] {
	return &Detail[ID]{
		remote:  remote,
		logger:  discardLogger(logger).WithPrefix("detail"),
		loading: true,
		seq:     newTokens[struct{}](),
	}
}

// Snapshot returns a copy of the current state.
func (d *Detail[ID]) Snapshot() DetailState[ID] {
	d.mu.Lock()
	defer d.mu.Unlock()
	var it *model.Item[ID]
	if d.item != nil {
		cp := *d.item
		it = &cp
	}
	return DetailState[ID]{
		Async:     Async[*model.Item[ID]]{Data: it, Loading: d.loading, Error: d.err},
		Uploading: d.uploads > 0,
	}
}

// Close drops every response that arrives afterwards.
func (d *Detail[ID]) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Load fetches one item. An invalid id fails without a network call. A
// failed fetch is surfaced in Error; the store does not navigate anywhere.
func (d *Detail[ID]) Load(ctx context.Context, id ID) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if !model.ValidID(id) {
		d.seq.issue(struct{}{})
		d.item = nil
		d.loading = false
		d.err = MsgInvalidID
		d.mu.Unlock()
		return &OpError{Op: "load", Message: MsgInvalidID,
			Err: &api.Error{Kind: api.KindValidation, Reason: api.ReasonID, Message: MsgInvalidID}}
	}
	tok := d.seq.issue(struct{}{})
	d.loading = true
	d.err = ""
	d.mu.Unlock()

	it, err := d.remote.Get(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.live(tok) {
		d.logger.Debug("discarding stale load", "id", model.FormatID(id), "token", tok)
		if err != nil {
			return opError("load", err)
		}
		return nil
	}
	d.loading = false
	if err != nil {
		oe := opError("load", err)
		d.err = oe.Message
		return oe
	}
	d.item = &it
	return nil
}

// Update patches the loaded item. With nothing loaded it does nothing and
// returns nil, nil. On failure the previous item is kept.
func (d *Detail[ID]) Update(ctx context.Context, p model.Patch) (*model.Item[ID], error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if d.item == nil {
		d.mu.Unlock()
		return nil, nil
	}
	id := d.item.ID
	tok := d.seq.issue(struct{}{})
	d.err = ""
	d.mu.Unlock()

	it, err := d.remote.Update(ctx, id, p)

	d.mu.Lock()
	defer d.mu.Unlock()
	live := d.live(tok)
	if !live {
		d.logger.Debug("discarding stale update", "id", model.FormatID(id), "token", tok)
	}
	if err != nil {
		oe := opError("update", err)
		if live {
			d.err = oe.Message
		}
		return nil, oe
	}
	if live {
		d.item = &it
	}
	return &it, nil
}

// Complete flips IsCompleted of the loaded item.
func (d *Detail[ID]) Complete(ctx context.Context) error {
	cur := d.Snapshot().Data
	if cur == nil {
		return nil
	}
	done := !cur.IsCompleted
	_, err := d.Update(ctx, model.Patch{IsCompleted: &done})
	return err
}

// Delete removes the loaded item remotely. On success the caller is
// expected to leave the detail view; on failure Error is set.
func (d *Detail[ID]) Delete(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.item == nil {
		d.mu.Unlock()
		return nil
	}
	id := d.item.ID
	tok := d.seq.issue(struct{}{})
	d.err = ""
	d.mu.Unlock()

	err := d.remote.Delete(ctx, id)
	if err == nil {
		return nil
	}

	oe := opError("delete", err)
	d.mu.Lock()
	if d.live(tok) {
		d.err = oe.Message
	}
	d.mu.Unlock()
	return oe
}

// UploadImage validates and uploads img, then attaches the returned URL to
// the loaded item. Uploading is cleared however it ends.
func (d *Detail[ID]) UploadImage(ctx context.Context, img api.Image) (string, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrClosed
	}
	if d.item == nil {
		d.mu.Unlock()
		return "", &OpError{Op: "upload", Message: MsgNotLoaded}
	}
	d.uploads++
	d.err = ""
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.uploads--
		d.mu.Unlock()
	}()

	url, err := d.remote.UploadImage(ctx, img)
	if err != nil {
		oe := opError("upload", err)
		d.mu.Lock()
		if !d.closed {
			d.err = oe.Message
		}
		d.mu.Unlock()
		return "", oe
	}
	if _, err := d.Update(ctx, model.Patch{ImageURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// Save sends whichever of memo and name were supplied in one update. A name
// that is blank after trimming is ignored. Nothing is sent when no field
// remains.
func (d *Detail[ID]) Save(ctx context.Context, memo, name *string) error {
	var p model.Patch
	if memo != nil {
		m := *memo
		p.Memo = &m
	}
	if name != nil {
		if n := strings.TrimSpace(*name); n != "" {
			p.Name = &n
		}
	}
	if p.Empty() {
		return nil
	}
	_, err := d.Update(ctx, p)
	return err
}

// live reports whether a response for tok may still be applied. d.mu must
// be held.
func (d *Detail[ID]) live(tok uint64) bool {
	return !d.closed && d.seq.current(struct{}{}, tok)
}
