// Package state keeps local views of the remote collection in step with
// the server.
//
// Every mutation is fire-and-confirm: local state changes only after the
// remote answers. Each entity carries a sequence token; a response is applied
// only if it answers the most recent request issued for that entity, so
// overlapping requests cannot leave an older answer on screen. After Close,
// responses still in flight are dropped.
package state

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
)

// Remote is the subset of the API client the stores depend on.
type Remote[ID model.Key] interface {
	List(ctx context.Context) ([]model.Item[ID], error)
	Get(ctx context.Context, id ID) (model.Item[ID], error)
	Create(ctx context.Context, in model.NewItem) (model.Item[ID], error)
	Update(ctx context.Context, id ID, p model.Patch) (model.Item[ID], error)
	Delete(ctx context.Context, id ID) error
	UploadImage(ctx context.Context, img api.Image) (string, error)
}

// Async is a view-state container. Error holds the outcome of the last
// operation and may be set while Data is still valid.
type Async[T any] struct {
	Data    T
	Loading bool
	Error   string
}

// ErrClosed is returned by operations started after Close.
var ErrClosed = errors.New("state: store closed")

// OpError is what the stores return on failure: the user-facing message,
// wrapping the underlying error for errors.As / errors.Is.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }

func opError(op string, err error) *OpError {
	return &OpError{Op: op, Message: api.UserMessage(err), Err: err}
}

// tokens hands out monotonically increasing sequence numbers and remembers
// the latest one per key.
type tokens[K comparable] struct {
	next   uint64
	latest map[K]uint64
}

func newTokens[K comparable]() tokens[K] {
	return tokens[K]{latest: make(map[K]uint64)}
}

func (t *tokens[K]) issue(k K) uint64 {
	t.next++
	t.latest[k] = t.next
	return t.next
}

func (t *tokens[K]) current(k K, tok uint64) bool {
	return t.latest[k] == tok
}

func (t *tokens[K]) forget(k K) {
	delete(t.latest, k)
}

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
