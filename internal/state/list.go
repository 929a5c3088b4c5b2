package state

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/model"
)

// List owns the local view of a tenant's whole collection.
type List[ID model.Key] struct {
	remote Remote[ID]
	logger *log.Logger

	mu      sync.Mutex
	items   []model.Item[ID]
	loading bool
	err     string
	closed  bool
	loads   tokens[struct{}]
	ents    tokens[ID]

	// gen counts confirmed mutations. changed and gone record the gen at
	// which an id was last written or deleted, so a load answered before
	// that write does not undo it.
	gen     uint64
	changed map[ID]uint64
	gone    map[ID]uint64
}

// NewList returns a store in the Loading state with an empty list. Call Load
// to fetch.
func NewList[ID model.Key](remote Remote[ID], logger *log.Logger) *List[ID] {
	return &List[ID]{
		remote:  remote,
		logger:  discardLogger(logger).WithPrefix("list"),
		items:   []model.Item[ID]{},
		loading: true,
		loads:   newTokens[struct{}](),
		ents:    newTokens[ID](),
		changed: map[ID]uint64{},
		gone:    map[ID]uint64{},
	}
}

// Snapshot returns a copy of the current state.
func (l *List[ID]) Snapshot() Async[[]model.Item[ID]] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Async[[]model.Item[ID]]{
		Data:    append([]model.Item[ID](nil), l.items...),
		Loading: l.loading,
		Error:   l.err,
	}
}

// Items returns a copy of the local list.
func (l *List[ID]) Items() []model.Item[ID] {
	return l.Snapshot().Data
}

// Stats counts the local list.
func (l *List[ID]) Stats() model.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.StatsOf(l.items)
}

// Find looks an item up by id in the local list.
func (l *List[ID]) Find(id ID) (model.Item[ID], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		var zero model.Item[ID]
		return zero, false
	}
	return l.items[i], true
}

// Close drops every response that arrives afterwards.
func (l *List[ID]) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Load refetches the collection. On success the list is replaced by the
// response, except for mutations confirmed while the load was in flight,
// which are kept. On failure the previous list is kept and Error is set.
func (l *List[ID]) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	tok := l.loads.issue(struct{}{})
	since := l.gen
	l.loading = true
	l.err = ""
	l.mu.Unlock()

	items, err := l.remote.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || !l.loads.current(struct{}{}, tok) {
		l.logger.Debug("discarding stale load", "token", tok)
		if err != nil {
			return opError("load", err)
		}
		return nil
	}
	l.loading = false
	if err != nil {
		oe := opError("load", err)
		l.err = oe.Message
		return oe
	}
	l.items = l.merge(items, since)
	clear(l.changed)
	clear(l.gone)
	return nil
}

// merge overlays the mutations confirmed after gen since onto a fetched
// collection. l.mu must be held.
func (l *List[ID]) merge(fetched []model.Item[ID], since uint64) []model.Item[ID] {
	if l.gen == since {
		return fetched
	}
	out := make([]model.Item[ID], 0, len(fetched))
	seen := make(map[ID]bool, len(fetched))
	for _, it := range fetched {
		if l.gone[it.ID] > since {
			continue
		}
		if l.changed[it.ID] > since {
			if i := l.index(it.ID); i >= 0 {
				it = l.items[i]
			}
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	for _, it := range l.items {
		if !seen[it.ID] && l.changed[it.ID] > since {
			out = append(out, it)
		}
	}
	l.logger.Debug("merged load with newer writes", "since", since, "gen", l.gen)
	return out
}

// touch records a confirmed write of id. l.mu must be held.
func (l *List[ID]) touch(id ID) {
	l.gen++
	l.changed[id] = l.gen
	delete(l.gone, id)
}

// Add creates an item remotely and appends the returned entity. On failure
// the list is untouched and the error is returned so the caller can keep
// its input.
func (l *List[ID]) Add(ctx context.Context, name string) (model.Item[ID], error) {
	var zero model.Item[ID]
	if !l.begin() {
		return zero, ErrClosed
	}

	it, err := l.remote.Create(ctx, model.NewItem{Name: name})

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		oe := opError("add", err)
		if !l.closed {
			l.err = oe.Message
		}
		return zero, oe
	}
	if l.closed {
		return it, nil
	}
	if i := l.index(it.ID); i >= 0 {
		l.items[i] = it
	} else {
		l.items = append(l.items, it)
	}
	l.touch(it.ID)
	return it, nil
}

// Patch updates an item remotely and replaces the local entry in place.
func (l *List[ID]) Patch(ctx context.Context, id ID, p model.Patch) (model.Item[ID], error) {
	var zero model.Item[ID]
	tok, ok := l.beginEntity(id)
	if !ok {
		return zero, ErrClosed
	}

	it, err := l.remote.Update(ctx, id, p)

	l.mu.Lock()
	defer l.mu.Unlock()
	stale := l.closed || !l.ents.current(id, tok)
	if stale {
		l.logger.Debug("discarding stale patch", "id", model.FormatID(id), "token", tok)
	}
	if err != nil {
		oe := opError("patch", err)
		if !stale {
			l.err = oe.Message
		}
		return zero, oe
	}
	if !stale {
		if i := l.index(id); i >= 0 {
			l.items[i] = it
			l.touch(id)
		}
	}
	return it, nil
}

// Remove deletes an item remotely and drops it from the local list once the
// remote confirms.
func (l *List[ID]) Remove(ctx context.Context, id ID) error {
	tok, ok := l.beginEntity(id)
	if !ok {
		return ErrClosed
	}

	err := l.remote.Delete(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		oe := opError("remove", err)
		if !l.closed && l.ents.current(id, tok) {
			l.err = oe.Message
		}
		return oe
	}
	if l.closed {
		return nil
	}
	// A confirmed delete is final whatever else is in flight for id; any
	// older response for it is now stale.
	if i := l.index(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	l.ents.forget(id)
	l.gen++
	l.gone[id] = l.gen
	delete(l.changed, id)
	return nil
}

// Toggle flips IsCompleted for a locally known item. Unknown ids are a no-op.
func (l *List[ID]) Toggle(ctx context.Context, id ID) error {
	cur, ok := l.Find(id)
	if !ok {
		return nil
	}
	done := !cur.IsCompleted
	_, err := l.Patch(ctx, id, model.Patch{IsCompleted: &done})
	return err
}

func (l *List[ID]) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.err = ""
	return true
}

func (l *List[ID]) beginEntity(id ID) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, false
	}
	l.err = ""
	return l.ents.issue(id), true
}

func (l *List[ID]) index(id ID) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}
