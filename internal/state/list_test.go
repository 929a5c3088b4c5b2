package state

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/fakeapi"
	"github.com/idilsaglam/tada/internal/model"
)

func TestList_InitialStateIsLoading(t *testing.T) {
	_, c := setup[int64](t)
	l := NewList[int64](c, nil)

	s := l.Snapshot()
	assert.True(t, s.Loading)
	assert.Empty(t, s.Data)
	assert.Empty(t, s.Error)
}

func TestList_Scenario(t *testing.T) {
	_, c := setup[int64](t)
	l := NewList[int64](c, nil)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx))
	assert.Empty(t, l.Items())
	assert.False(t, l.Snapshot().Loading)

	it, err := l.Add(ctx, "buy milk")
	require.NoError(t, err)
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "buy milk", items[0].Name)
	assert.False(t, items[0].IsCompleted)

	require.NoError(t, l.Toggle(ctx, it.ID))
	got, ok := l.Find(it.ID)
	require.True(t, ok)
	assert.True(t, got.IsCompleted)

	require.NoError(t, l.Remove(ctx, it.ID))
	assert.Empty(t, l.Items())

	_, err = c.Get(ctx, it.ID)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestList_AddThenLoadHasExactlyOne(t *testing.T) {
	_, c := setup[string](t)
	l := NewList[string](c, nil)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx))
	it, err := l.Add(ctx, "water plants")
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)

	require.NoError(t, l.Load(ctx))
	var n int
	for _, x := range l.Items() {
		if x.Name == "water plants" {
			n++
			assert.Equal(t, it.ID, x.ID)
		}
	}
	assert.Equal(t, 1, n)
}

func TestList_AddPreservesInsertionOrder(t *testing.T) {
	srv, c := setup[int64](t)
	srv.Seed(tenant, model.NewItem{Name: "first"})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	_, err := l.Add(ctx, "second")
	require.NoError(t, err)
	_, err = l.Add(ctx, "third")
	require.NoError(t, err)

	var names []string
	for _, it := range l.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestList_ToggleTwiceRestores(t *testing.T) {
	srv, c := setup[int64](t)
	seeded := srv.Seed(tenant, model.NewItem{Name: "x"})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	require.NoError(t, l.Toggle(ctx, seeded.ID))
	require.NoError(t, l.Toggle(ctx, seeded.ID))

	got, ok := l.Find(seeded.ID)
	require.True(t, ok)
	assert.False(t, got.IsCompleted)
}

func TestList_ToggleUnknownIsNoop(t *testing.T) {
	srv, c := setup[int64](t)
	l := NewList[int64](c, nil)
	require.NoError(t, l.Load(context.Background()))
	before := len(srv.Requests())

	require.NoError(t, l.Toggle(context.Background(), 999))
	assert.Len(t, srv.Requests(), before)
}

func TestList_PatchMemoKeepsOtherFields(t *testing.T) {
	srv, c := setup[int64](t)
	done := true
	seeded := srv.Seed(tenant, model.NewItem{Name: "keep", ImageURL: strp("http://img/1.png"), IsCompleted: &done})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	_, err := l.Patch(ctx, seeded.ID, model.Patch{Memo: strp("x")})
	require.NoError(t, err)

	got, _ := l.Find(seeded.ID)
	assert.Equal(t, "x", got.MemoText())
	assert.Equal(t, "keep", got.Name)
	assert.Equal(t, "http://img/1.png", got.ImageText())
	assert.True(t, got.IsCompleted)
}

func TestList_FailuresLeaveListUntouched(t *testing.T) {
	srv, c := setup[int64](t)
	seeded := srv.Seed(tenant, model.NewItem{Name: "stay"})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))
	before := l.Items()

	srv.FailNext(http.MethodPost, fakeapi.Failure{Status: http.StatusInternalServerError})
	_, err := l.Add(ctx, "nope")
	require.Error(t, err)
	assert.Equal(t, api.MsgServer, err.Error())
	assert.Equal(t, before, l.Items())
	assert.Equal(t, api.MsgServer, l.Snapshot().Error)

	srv.FailNext(http.MethodPatch, fakeapi.Failure{Status: http.StatusInternalServerError})
	_, err = l.Patch(ctx, seeded.ID, model.Patch{Name: strp("changed")})
	require.Error(t, err)
	assert.Equal(t, before, l.Items())

	srv.FailNext(http.MethodDelete, fakeapi.Failure{Status: http.StatusInternalServerError})
	require.Error(t, l.Remove(ctx, seeded.ID))
	assert.Equal(t, before, l.Items())

	// the next successful operation clears the error
	_, err = l.Add(ctx, "works")
	require.NoError(t, err)
	assert.Empty(t, l.Snapshot().Error)
}

func TestList_LoadFailureKeepsData(t *testing.T) {
	srv, c := setup[int64](t)
	srv.Seed(tenant, model.NewItem{Name: "a"})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	srv.FailNext(http.MethodGet, fakeapi.Failure{Status: http.StatusNotFound})
	err := l.Load(ctx)
	require.Error(t, err)

	s := l.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, api.MsgNotFound, s.Error)
	require.Len(t, s.Data, 1)
	assert.Equal(t, "a", s.Data[0].Name)

	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "load", oe.Op)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestList_AddSurfacesValidationError(t *testing.T) {
	srv, c := setup[int64](t)
	l := NewList[int64](c, nil)

	_, err := l.Add(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	assert.Empty(t, srv.Requests())
}

func TestList_StalePatchIsDiscarded(t *testing.T) {
	srv, c := setup[int64](t)
	seeded := srv.Seed(tenant, model.NewItem{Name: "race"})
	l := NewList[int64](c, nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	arrived, release := holdFirst(srv, http.MethodPatch)
	firstDone := make(chan error, 1)
	go func() {
		_, err := l.Patch(ctx, seeded.ID, model.Patch{Memo: strp("old")})
		firstDone <- err
	}()
	waitFor(t, arrived)

	_, err := l.Patch(ctx, seeded.ID, model.Patch{Memo: strp("new")})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-firstDone)

	got, _ := l.Find(seeded.ID)
	assert.Equal(t, "new", got.MemoText())
}

func TestList_StaleLoadIsDiscarded(t *testing.T) {
	srv, c := setup[int64](t)
	l := NewList[int64](c, nil)
	ctx := context.Background()

	arrived, release := holdFirst(srv, http.MethodGet)
	firstDone := make(chan error, 1)
	go func() { firstDone <- l.Load(ctx) }()
	waitFor(t, arrived)

	late := srv.Seed(tenant, model.NewItem{Name: "late"})
	require.NoError(t, l.Load(ctx))

	// the held request now answers with an empty collection
	require.NoError(t, c.Delete(ctx, late.ID))
	close(release)
	require.NoError(t, <-firstDone)

	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "late", items[0].Name)
}

// slowList answers List with the collection as it was when the call started,
// but only after release is closed.
type slowList struct {
	Remote[int64]
	arrived chan struct{}
	release chan struct{}
}

func (s *slowList) List(ctx context.Context) ([]model.Item[int64], error) {
	items, err := s.Remote.List(ctx)
	close(s.arrived)
	<-s.release
	return items, err
}

func TestList_SlowLoadKeepsConfirmedWrites(t *testing.T) {
	srv, c := setup[int64](t)
	old := srv.Seed(tenant, model.NewItem{Name: "old"})
	doomed := srv.Seed(tenant, model.NewItem{Name: "doomed"})
	remote := &slowList{Remote: c, arrived: make(chan struct{}), release: make(chan struct{})}
	l := NewList[int64](remote, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- l.Load(ctx) }()
	waitFor(t, remote.arrived)

	added, err := l.Add(ctx, "buy milk")
	require.NoError(t, err)
	_, err = c.Update(ctx, old.ID, model.Patch{Name: strp("renamed elsewhere")})
	require.NoError(t, err)
	require.NoError(t, l.Remove(ctx, doomed.ID))

	close(remote.release)
	require.NoError(t, <-done)

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, old.ID, items[0].ID)
	assert.Equal(t, added.ID, items[1].ID)
	assert.Equal(t, "buy milk", items[1].Name)
	assert.False(t, l.Snapshot().Loading)

	// once applied, the next load is a plain replacement again
	require.NoError(t, l.Load(ctx))
	assert.Equal(t, "renamed elsewhere", l.Items()[0].Name)
}

func TestList_SlowLoadKeepsConfirmedPatch(t *testing.T) {
	srv, c := setup[int64](t)
	it := srv.Seed(tenant, model.NewItem{Name: "draft"})
	remote := &slowList{Remote: c, arrived: make(chan struct{}), release: make(chan struct{})}
	l := NewList[int64](remote, nil)
	ctx := context.Background()

	// seed the local list so Patch has an entry to replace
	close(remote.release)
	require.NoError(t, l.Load(ctx))

	remote.arrived = make(chan struct{})
	remote.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.Load(ctx) }()
	waitFor(t, remote.arrived)

	_, err := l.Patch(ctx, it.ID, model.Patch{Name: strp("final")})
	require.NoError(t, err)

	close(remote.release)
	require.NoError(t, <-done)
	require.Len(t, l.Items(), 1)
	assert.Equal(t, "final", l.Items()[0].Name)
}

func TestList_CloseDropsInFlightResponse(t *testing.T) {
	srv, c := setup[int64](t)
	srv.Seed(tenant, model.NewItem{Name: "never shown"})
	l := NewList[int64](c, nil)
	ctx := context.Background()

	arrived, release := holdFirst(srv, http.MethodGet)
	done := make(chan error, 1)
	go func() { done <- l.Load(ctx) }()
	waitFor(t, arrived)

	l.Close()
	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, l.Items())

	assert.ErrorIs(t, l.Load(ctx), ErrClosed)
	_, err := l.Add(ctx, "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestList_Stats(t *testing.T) {
	srv, c := setup[int64](t)
	done := true
	srv.Seed(tenant, model.NewItem{Name: "a"})
	srv.Seed(tenant, model.NewItem{Name: "b", IsCompleted: &done})
	l := NewList[int64](c, nil)
	require.NoError(t, l.Load(context.Background()))

	assert.Equal(t, model.Stats{Total: 2, Completed: 1, Active: 1}, l.Stats())
}
