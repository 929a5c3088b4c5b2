// Package tui is the interactive front end: a list page over state.List and
// a detail page over state.Detail.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/ui"
)

type Options struct {
	Tenant string
	Filter model.Filter
	Logger *log.Logger
}

// Run starts the program on the alternate screen and blocks until quit.
func Run[ID model.Key](remote state.Remote[ID], opts Options) error {
	m := newApp(remote, opts)
	defer m.close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type page int

const (
	pageList page = iota
	pageDetail
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeRename
	modeMemo
	modeImage
)

// listSyncedMsg reports a finished list store operation.
type listSyncedMsg struct {
	op  string
	err error
}

// detailSyncedMsg reports a finished detail store operation. store tells
// apart messages from a detail page that has since been left.
type detailSyncedMsg[ID model.Key] struct {
	store *state.Detail[ID]
	op    string
	err   error
}

// listItem adapts model.Item to bubbles/list.Item.
type listItem[ID model.Key] struct {
	model.Item[ID]
}

func (i listItem[ID]) FilterValue() string { return i.Name }

// Custom delegate to control how items render (single line)
type itemDelegate[ID model.Key] struct{}

func (d itemDelegate[ID]) Height() int                               { return 1 }
func (d itemDelegate[ID]) Spacing() int                              { return 0 }
func (d itemDelegate[ID]) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate[ID]) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem[ID])
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	text := it.Name
	if it.IsCompleted {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	t := ui.Current()
	if it.MemoText() != "" {
		text += " " + mutedStyle.Render(t.SymMemo)
	}
	if it.ImageText() != "" {
		text += " " + mutedStyle.Render(t.SymImage)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

type app[ID model.Key] struct {
	ctx    context.Context
	cancel context.CancelFunc
	remote state.Remote[ID]
	logger *log.Logger
	tenant string

	items  *state.List[ID]
	detail *state.Detail[ID] // nil on the list page
	openID ID
	filter model.Filter

	page   page
	mode   mode
	width  int
	height int

	list     list.Model
	spinner  spinner.Model
	input    textinput.Model
	memo     textarea.Model
	help     help.Model
	lkeys    listKeys
	dkeys    detailKeys
	inputErr string
	status   string
	adding   bool // a create is in flight; the add prompt stays open until it answers
}

func newApp[ID model.Key](remote state.Remote[ID], opts Options) *app[ID] {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	filter := opts.Filter
	if filter == "" {
		filter = model.FilterAll
	}

	m := &app[ID]{
		ctx:    ctx,
		cancel: cancel,
		remote: remote,
		logger: logger,
		tenant: opts.Tenant,
		items:  state.NewList(remote, logger),
		filter: filter,
		width:  80,
		height: 24,
		lkeys:  newListKeys(),
		dkeys:  newDetailKeys(),
		help:   help.New(),
	}

	l := list.New(nil, itemDelegate[ID]{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding { return m.lkeys.extra()[:4] }
	l.AdditionalFullHelpKeys = m.lkeys.extra
	m.list = l

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle))

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.CharLimit = 200

	m.memo = textarea.New()
	m.memo.Placeholder = "Memo..."
	m.memo.ShowLineNumbers = false

	m.resize()
	m.refreshList()
	return m
}

// close stops in-flight work and disposes both stores.
func (m *app[ID]) close() {
	m.cancel()
	m.items.Close()
	if m.detail != nil {
		m.detail.Close()
	}
}

func (m *app[ID]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listOp("load", m.items.Load))
}

// -------------- commands ----------------

func (m *app[ID]) listOp(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return listSyncedMsg{op: op, err: fn(ctx)}
	}
}

func (m *app[ID]) detailOp(op string, fn func(context.Context, *state.Detail[ID]) error) tea.Cmd {
	ctx, d := m.ctx, m.detail
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		return detailSyncedMsg[ID]{store: d, op: op, err: fn(ctx, d)}
	}
}

func (m *app[ID]) selected() (model.Item[ID], bool) {
	it, ok := m.list.SelectedItem().(listItem[ID])
	return it.Item, ok
}

// -------------- update ----------------

func (m *app[ID]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listSyncedMsg:
		m.refreshList()
		if msg.op == "added" {
			m.adding = false
			if m.mode == modeAdd {
				if msg.err != nil {
					m.inputErr = errText(msg.err)
					return m, nil
				}
				m.stopInput()
			}
		}
		if msg.err != nil {
			m.logger.Debug("list op failed", "op", msg.op, "err", msg.err)
		} else if msg.op != "load" {
			m.status = msg.op
		}
		return m, nil

	case detailSyncedMsg[ID]:
		if msg.store != m.detail {
			return m, nil
		}
		if msg.op == "delete" && msg.err == nil {
			return m, m.back("deleted")
		}
		if msg.err == nil && msg.op != "load" {
			m.status = msg.op
		}
		return m, nil
	}

	if m.mode != modeNormal {
		return m.updateInput(msg)
	}
	if m.page == pageDetail {
		return m.updateDetail(msg)
	}
	return m.updateList(msg)
}

func (m *app[ID]) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)
	// While the list's own filter prompt is open every key belongs to it.
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	m.status = ""

	switch {
	case key.Matches(km, m.lkeys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.lkeys.Toggle):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.listOp("toggled", func(ctx context.Context) error { return m.items.Toggle(ctx, id) })
		}
		return m, nil
	case key.Matches(km, m.lkeys.Delete):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.listOp("deleted", func(ctx context.Context) error { return m.items.Remove(ctx, id) })
		}
		return m, nil
	case key.Matches(km, m.lkeys.Add):
		return m, m.startInput(modeAdd, "", "New item name...")
	case key.Matches(km, m.lkeys.Rename):
		if it, ok := m.selected(); ok {
			return m, m.startInput(modeRename, it.Name, "Edit item name...")
		}
		return m, nil
	case key.Matches(km, m.lkeys.Open):
		if it, ok := m.selected(); ok {
			return m, m.open(it.ID)
		}
		return m, nil
	case key.Matches(km, m.lkeys.Filter):
		m.filter = m.filter.Next()
		m.refreshList()
		return m, nil
	case key.Matches(km, m.lkeys.Reload):
		m.refreshList()
		return m, tea.Batch(m.spinner.Tick, m.listOp("load", m.items.Load))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *app[ID]) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, nil
	}
	m.status = ""
	snap := m.detail.Snapshot()

	switch {
	case key.Matches(km, m.dkeys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.dkeys.Back):
		return m, m.back("")
	case key.Matches(km, m.dkeys.Retry):
		if snap.Data == nil && !snap.Loading {
			return m, m.open(m.detailID())
		}
		return m, nil
	}

	if snap.Data == nil {
		return m, nil
	}
	switch {
	case key.Matches(km, m.dkeys.Complete):
		return m, m.detailOp("completed", func(ctx context.Context, d *state.Detail[ID]) error {
			return d.Complete(ctx)
		})
	case key.Matches(km, m.dkeys.Delete):
		return m, m.detailOp("delete", func(ctx context.Context, d *state.Detail[ID]) error {
			return d.Delete(ctx)
		})
	case key.Matches(km, m.dkeys.Rename):
		return m, m.startInput(modeRename, snap.Data.Name, "Edit item name...")
	case key.Matches(km, m.dkeys.Image):
		return m, m.startInput(modeImage, "", "Path to a jpeg, png, gif or webp image...")
	case key.Matches(km, m.dkeys.Memo):
		m.mode = modeMemo
		m.inputErr = ""
		m.memo.SetValue(snap.Data.MemoText())
		m.memo.CursorEnd()
		return m, m.memo.Focus()
	}
	return m, nil
}

func (m *app[ID]) startInput(md mode, value, placeholder string) tea.Cmd {
	m.mode = md
	m.inputErr = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	return m.input.Focus()
}

func (m *app[ID]) stopInput() {
	m.mode = modeNormal
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
	m.memo.Blur()
}

func (m *app[ID]) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)
	if isKey && km.String() == "esc" {
		m.stopInput()
		return m, nil
	}

	if m.mode == modeMemo {
		if isKey && km.String() == "ctrl+s" {
			memo := m.memo.Value()
			m.stopInput()
			return m, m.detailOp("memo saved", func(ctx context.Context, d *state.Detail[ID]) error {
				return d.Save(ctx, &memo, nil)
			})
		}
		var cmd tea.Cmd
		m.memo, cmd = m.memo.Update(msg)
		return m, cmd
	}

	if isKey && km.String() == "enter" {
		return m, m.submit(strings.TrimSpace(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit finishes a one-line input. Invalid input keeps the prompt open.
func (m *app[ID]) submit(value string) tea.Cmd {
	switch m.mode {
	case modeAdd:
		if value == "" {
			m.inputErr = "Name cannot be empty"
			return nil
		}
		if m.adding {
			return nil
		}
		m.adding = true
		m.inputErr = ""
		return m.listOp("added", func(ctx context.Context) error {
			_, err := m.items.Add(ctx, value)
			return err
		})

	case modeRename:
		if value == "" {
			m.inputErr = "Name cannot be empty"
			return nil
		}
		m.stopInput()
		if m.page == pageDetail {
			return m.detailOp("renamed", func(ctx context.Context, d *state.Detail[ID]) error {
				return d.Save(ctx, nil, &value)
			})
		}
		it, ok := m.selected()
		if !ok {
			return nil
		}
		id := it.ID
		return m.listOp("renamed", func(ctx context.Context) error {
			_, err := m.items.Patch(ctx, id, model.Patch{Name: &value})
			return err
		})

	case modeImage:
		if value == "" {
			m.inputErr = "Path cannot be empty"
			return nil
		}
		img, err := api.ReadImage(value)
		if err != nil {
			m.inputErr = imageError(err)
			return nil
		}
		if err := api.ValidateImage(img); err != nil {
			m.inputErr = api.UserMessage(err)
			return nil
		}
		m.stopInput()
		return tea.Batch(m.spinner.Tick, m.detailOp("image attached", func(ctx context.Context, d *state.Detail[ID]) error {
			_, err := d.UploadImage(ctx, img)
			return err
		}))
	}
	m.stopInput()
	return nil
}

// errText is the message shown for a failed store operation.
func errText(err error) string {
	var oe *state.OpError
	if errors.As(err, &oe) {
		return oe.Message
	}
	return api.UserMessage(err)
}

func imageError(err error) string {
	if api.IsKind(err, api.KindValidation) {
		return api.UserMessage(err)
	}
	return err.Error()
}

// open switches to the detail page for id with a fresh store.
func (m *app[ID]) open(id ID) tea.Cmd {
	if m.detail != nil {
		m.detail.Close()
	}
	m.detail = state.NewDetail(m.remote, m.logger)
	m.openID = id
	m.page = pageDetail
	return tea.Batch(m.spinner.Tick, m.detailOp("load", func(ctx context.Context, d *state.Detail[ID]) error {
		return d.Load(ctx, id)
	}))
}

func (m *app[ID]) detailID() ID { return m.openID }

// back leaves the detail page and reloads the list so edits show up there.
func (m *app[ID]) back(status string) tea.Cmd {
	if m.detail != nil {
		m.detail.Close()
		m.detail = nil
	}
	m.page = pageList
	m.status = status
	return m.listOp("load", m.items.Load)
}

// -------------- view ----------------

func (m *app[ID]) resize() {
	h := m.height - 6
	if m.mode == modeAdd || m.mode == modeRename {
		h -= 3
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.memo.SetWidth(m.width - 8)
	m.memo.SetHeight(5)
	m.help.Width = m.width - 4
}

// refreshList copies the store snapshot into the bubbles list.
func (m *app[ID]) refreshList() {
	snap := m.items.Snapshot()
	shown := model.Apply(m.filter, snap.Data)
	li := make([]list.Item, 0, len(shown))
	for _, it := range shown {
		li = append(li, listItem[ID]{it})
	}
	m.list.SetItems(li)

	st := model.StatsOf(snap.Data)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), st.Completed,
		pendingStyle.Render("•"), st.Active,
		accentStyle.Render("Total"), st.Total,
		mutedStyle.Render("["+string(m.filter)+"]"),
	)
}

func (m *app[ID]) View() string {
	m.resize()
	var content string
	if m.page == pageDetail {
		content = m.detailView()
	} else {
		content = m.listView()
	}
	return panelString(content)
}

func (m *app[ID]) listView() string {
	snap := m.items.Snapshot()
	var b strings.Builder
	b.WriteString(mutedStyle.Render("tenant "+m.tenant) + "\n")
	if snap.Loading {
		b.WriteString(m.spinner.View() + " loading...\n")
	}
	b.WriteString(m.list.View())
	b.WriteString("\n" + m.statusLine(snap.Error))

	if m.mode == modeAdd || m.mode == modeRename {
		title := "Add new item"
		if m.mode == modeRename {
			title = "Rename item"
		}
		b.WriteString("\n" + m.inputBar(title))
	}
	return b.String()
}

func (m *app[ID]) detailView() string {
	snap := m.detail.Snapshot()
	var b strings.Builder

	switch {
	case snap.Loading && snap.Data == nil:
		b.WriteString(m.spinner.View() + " loading item...\n")
	case snap.Data == nil:
		msg := snap.Error
		if msg == "" {
			msg = api.MsgNotFound
		}
		b.WriteString(errorStyle.Render(msg) + "\n")
		b.WriteString(helpStyle.Render("r retry • esc back") + "\n")
		return b.String()
	default:
		it := snap.Data
		status := pendingStyle.Render("active")
		if it.IsCompleted {
			status = successStyle.Render("completed")
		}
		memo := it.MemoText()
		if memo == "" {
			memo = mutedStyle.Render("(no memo)")
		}
		image := it.ImageText()
		if image == "" {
			image = mutedStyle.Render("(no image)")
		}
		b.WriteString(titleStyle.Render(it.Name) + "\n\n")
		b.WriteString(labelStyle.Render("id") + model.FormatID(it.ID) + "\n")
		b.WriteString(labelStyle.Render("status") + status + "\n")
		b.WriteString(labelStyle.Render("memo") + memo + "\n")
		b.WriteString(labelStyle.Render("image") + ui.Truncate(image, m.width-14) + "\n")
	}
	if snap.Uploading {
		b.WriteString(m.spinner.View() + " uploading image...\n")
	} else if snap.Loading {
		b.WriteString(m.spinner.View() + " saving...\n")
	}
	b.WriteString(m.statusLine(snap.Error) + "\n")

	switch m.mode {
	case modeRename:
		b.WriteString(m.inputBar("Rename item") + "\n")
	case modeImage:
		b.WriteString(m.inputBar("Attach image") + "\n")
	case modeMemo:
		b.WriteString(barStyle.Render("Memo "+helpStyle.Render("ctrl+s save • esc cancel")+"\n"+m.memo.View()) + "\n")
	}
	b.WriteString(m.help.View(m.dkeys))
	return b.String()
}

func (m *app[ID]) statusLine(errMsg string) string {
	if errMsg != "" {
		return errorStyle.Render(errMsg)
	}
	if m.status != "" {
		return successStyle.Render("✔ " + m.status)
	}
	return ""
}

func (m *app[ID]) inputBar(title string) string {
	if m.inputErr != "" {
		title += ": " + errorStyle.Render(m.inputErr)
	}
	return barStyle.Render(title + "\n" + m.input.View())
}
