package state

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/fakeapi"
	"github.com/idilsaglam/tada/internal/model"
)

const tenant = "state-test"

func strp(s string) *string { return &s }

func setup[ID model.Key](t *testing.T) (*fakeapi.Server[ID], *api.Client[ID]) {
	t.Helper()
	srv := fakeapi.New[ID]()
	t.Cleanup(srv.Close)
	c, err := api.New[ID](api.Options{BaseURL: srv.URL, Tenant: tenant, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return srv, c
}

// holdFirst blocks the first request with the given method until release is
// closed. arrived is closed once that request reached the server.
func holdFirst[ID model.Key](srv *fakeapi.Server[ID], method string) (arrived, release chan struct{}) {
	arrived = make(chan struct{})
	release = make(chan struct{})
	var seen atomic.Bool
	srv.OnRequest(func(r *http.Request) {
		if r.Method == method && seen.CompareAndSwap(false, true) {
			close(arrived)
			<-release
		}
	})
	return arrived, release
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}
