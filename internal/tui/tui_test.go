package tui

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/fakeapi"
	"github.com/idilsaglam/tada/internal/model"
)

const tenant = "tui-test"

func newTestApp(t *testing.T) (*fakeapi.Server[int64], *app[int64]) {
	t.Helper()
	srv := fakeapi.New[int64]()
	t.Cleanup(srv.Close)
	c, err := api.New[int64](api.Options{BaseURL: srv.URL, Tenant: tenant, Timeout: 5 * time.Second})
	require.NoError(t, err)
	m := newApp[int64](c, Options{Tenant: tenant})
	t.Cleanup(m.close)
	return srv, m
}

// settle runs cmd and feeds store results back into the model. Other messages
// (spinner ticks, cursor blinks) are dropped.
func settle(m *app[int64], cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			settle(m, c)
		}
	case listSyncedMsg, detailSyncedMsg[int64]:
		_, next := m.Update(msg)
		settle(m, next)
	case spinner.TickMsg:
	}
}

func press(m *app[int64], k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

// typeText sends s one rune at a time; cursor blink commands are discarded.
func typeText(m *app[int64], s string) {
	for _, r := range s {
		_ = press(m, runes(string(r)))
	}
}

func TestApp_LoadsOnInit(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Buy milk"})
	srv.Seed(tenant, model.NewItem{Name: "Walk dog"})

	assert.True(t, m.items.Snapshot().Loading)
	settle(m, m.Init())

	require.Len(t, m.list.Items(), 2)
	it, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "Buy milk", it.Name)
	assert.Contains(t, m.View(), "Walk dog")
}

func TestApp_AddToggleDelete(t *testing.T) {
	srv, m := newTestApp(t)
	settle(m, m.Init())

	_ = press(m, runes("a"))
	assert.Equal(t, modeAdd, m.mode)
	typeText(m, "Write tests")
	settle(m, press(m, keyEnter))

	assert.Equal(t, modeNormal, m.mode)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "added", m.status)

	settle(m, press(m, keySpace))
	it, _ := m.selected()
	assert.True(t, it.IsCompleted)
	assert.True(t, srv.Items(tenant)[0].IsCompleted)

	settle(m, press(m, runes("d")))
	assert.Empty(t, m.list.Items())
	assert.Empty(t, srv.Items(tenant))
}

func TestApp_AddRejectsBlankName(t *testing.T) {
	srv, m := newTestApp(t)
	settle(m, m.Init())

	_ = press(m, runes("a"))
	typeText(m, "   ")
	assert.Nil(t, press(m, keyEnter))
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Name cannot be empty", m.inputErr)

	_ = press(m, keyEsc)
	assert.Equal(t, modeNormal, m.mode)
	assert.Empty(t, srv.Items(tenant))
}

func TestApp_AddFailureKeepsInput(t *testing.T) {
	srv, m := newTestApp(t)
	settle(m, m.Init())

	_ = press(m, runes("a"))
	typeText(m, "Write tests")
	srv.FailNext(http.MethodPost, fakeapi.Failure{Status: http.StatusInternalServerError})
	settle(m, press(m, keyEnter))

	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Write tests", m.input.Value())
	assert.Equal(t, api.MsgServer, m.inputErr)
	assert.False(t, m.adding)
	assert.Empty(t, m.list.Items())

	// the same text goes through on the next try
	settle(m, press(m, keyEnter))
	assert.Equal(t, modeNormal, m.mode)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Write tests", srv.Items(tenant)[0].Name)
}

func TestApp_RenameFromList(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Old"})
	settle(m, m.Init())

	_ = press(m, runes("e"))
	assert.Equal(t, "Old", m.input.Value())
	m.input.SetValue("New name")
	settle(m, press(m, keyEnter))

	it, _ := m.selected()
	assert.Equal(t, "New name", it.Name)
	assert.Equal(t, "New name", srv.Items(tenant)[0].Name)
}

func TestApp_FilterCycles(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "open"})
	done := true
	srv.Seed(tenant, model.NewItem{Name: "closed", IsCompleted: &done})
	settle(m, m.Init())
	require.Len(t, m.list.Items(), 2)

	_ = press(m, keyTab)
	assert.Equal(t, model.FilterActive, m.filter)
	require.Len(t, m.list.Items(), 1)
	it, _ := m.selected()
	assert.Equal(t, "open", it.Name)

	_ = press(m, keyTab)
	assert.Equal(t, model.FilterCompleted, m.filter)
	it, _ = m.selected()
	assert.Equal(t, "closed", it.Name)

	_ = press(m, keyTab)
	assert.Len(t, m.list.Items(), 2)
}

func TestApp_LoadErrorShown(t *testing.T) {
	srv, m := newTestApp(t)
	srv.FailNext(http.MethodGet, fakeapi.Failure{Status: http.StatusInternalServerError})
	settle(m, m.Init())

	assert.Equal(t, api.MsgServer, m.items.Snapshot().Error)
	assert.Contains(t, m.View(), api.MsgServer)

	srv.Seed(tenant, model.NewItem{Name: "back"})
	settle(m, press(m, runes("r")))
	assert.Empty(t, m.items.Snapshot().Error)
	assert.Len(t, m.list.Items(), 1)
}

func TestApp_DetailEditing(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Plan trip"})
	settle(m, m.Init())

	settle(m, press(m, keyEnter))
	require.Equal(t, pageDetail, m.page)
	snap := m.detail.Snapshot()
	require.NotNil(t, snap.Data)
	assert.Contains(t, m.View(), "Plan trip")

	settle(m, press(m, runes("c")))
	assert.True(t, m.detail.Snapshot().Data.IsCompleted)
	assert.Equal(t, "completed", m.status)

	_ = press(m, runes("m"))
	require.Equal(t, modeMemo, m.mode)
	m.memo.SetValue("book hotel")
	settle(m, press(m, keySave))
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, "book hotel", m.detail.Snapshot().Data.MemoText())

	_ = press(m, runes("e"))
	m.input.SetValue("Plan summer trip")
	settle(m, press(m, keyEnter))
	assert.Equal(t, "Plan summer trip", m.detail.Snapshot().Data.Name)

	stored := srv.Items(tenant)[0]
	assert.Equal(t, "Plan summer trip", stored.Name)
	assert.Equal(t, "book hotel", stored.MemoText())
	assert.True(t, stored.IsCompleted)

	settle(m, press(m, keyEsc))
	assert.Equal(t, pageList, m.page)
	assert.Nil(t, m.detail)
	it, _ := m.selected()
	assert.Equal(t, "Plan summer trip", it.Name)
}

func TestApp_DetailImage(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Receipt"})
	settle(m, m.Init())
	settle(m, press(m, keyEnter))

	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain words\n"), 0o600))
	png := filepath.Join(dir, "receipt.png")
	require.NoError(t, os.WriteFile(png, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...), 0o600))

	_ = press(m, runes("i"))
	m.input.SetValue(txt)
	assert.Nil(t, press(m, keyEnter))
	assert.Equal(t, modeImage, m.mode)
	assert.NotEmpty(t, m.inputErr)
	assert.Empty(t, srv.Uploads())

	m.input.SetValue(png)
	settle(m, press(m, keyEnter))
	assert.Equal(t, modeNormal, m.mode)
	require.Len(t, srv.Uploads(), 1)
	assert.NotEmpty(t, m.detail.Snapshot().Data.ImageText())
	assert.False(t, m.detail.Snapshot().Uploading)
}

func TestApp_DetailDeleteReturnsToList(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Gone soon"})
	srv.Seed(tenant, model.NewItem{Name: "Stays"})
	settle(m, m.Init())
	settle(m, press(m, keyEnter))

	settle(m, press(m, runes("x")))
	assert.Equal(t, pageList, m.page)
	assert.Equal(t, "deleted", m.status)
	require.Len(t, m.list.Items(), 1)
	it, _ := m.selected()
	assert.Equal(t, "Stays", it.Name)
}

func TestApp_DetailLoadFailureShownInPlace(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "Flaky"})
	settle(m, m.Init())

	srv.FailNext(http.MethodGet, fakeapi.Failure{Status: http.StatusNotFound})
	settle(m, press(m, keyEnter))
	assert.Equal(t, pageDetail, m.page)
	assert.Nil(t, m.detail.Snapshot().Data)
	assert.Contains(t, m.View(), api.MsgNotFound)

	settle(m, press(m, runes("r")))
	require.NotNil(t, m.detail.Snapshot().Data)
	assert.Equal(t, "Flaky", m.detail.Snapshot().Data.Name)
}

func TestApp_IgnoresResultsFromLeftDetail(t *testing.T) {
	srv, m := newTestApp(t)
	srv.Seed(tenant, model.NewItem{Name: "First"})
	settle(m, m.Init())

	open := press(m, keyEnter)
	left := m.detail
	settle(m, press(m, keyEsc))
	require.Nil(t, m.detail)

	// The load issued before leaving finishes late.
	settle(m, open)
	assert.Equal(t, pageList, m.page)
	assert.Nil(t, m.detail)
	assert.Nil(t, left.Snapshot().Data)
}

func TestApp_Quit(t *testing.T) {
	_, m := newTestApp(t)
	settle(m, m.Init())
	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_WindowSize(t *testing.T) {
	_, m := newTestApp(t)
	_, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 116, m.list.Width())
}
