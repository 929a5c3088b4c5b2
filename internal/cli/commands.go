package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// commands runs one subcommand against the remote through the state stores.
type commands[ID model.Key] struct {
	*env
	client state.Remote[ID]
	tenant string
	ctx    context.Context
}

func (c *commands[ID]) parseID(cmd, s string) (ID, bool) {
	id, err := model.ParseID[ID](s)
	if err != nil {
		c.fail(fmt.Sprintf("%s: %s", cmd, err))
		fmt.Fprintln(c.opt.Stderr, ui.Dim("Hint: run `tada ls` to see item ids"))
		return id, false
	}
	return id, true
}

// report prints err and picks the exit code for it.
func (c *commands[ID]) report(op string, err error) int {
	var (
		oe  *state.OpError
		ae  *api.Error
		msg = err.Error()
	)
	switch {
	case errors.As(err, &oe):
		msg = oe.Message
	case errors.As(err, &ae):
		msg = api.UserMessage(err)
	}
	c.fail(op + ": " + msg)
	c.logger.Debug("command failed", "op", op, "kind", api.KindOf(err), "err", err)
	if api.IsKind(err, api.KindValidation) {
		return 2
	}
	return 1
}

func (c *commands[ID]) doList() int {
	l := state.NewList(c.client, c.logger)
	defer l.Close()
	if err := l.Load(c.ctx); err != nil {
		return c.report("load", err)
	}
	items := l.Items()
	st := l.Stats()
	t := ui.Current()

	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), st.Completed,
		ui.C(t.Pending, t.SymUnchecked), st.Active,
		ui.C(t.Accent, "Total"), st.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(st.Completed, st.Total, 28)))
	lines = append(lines, ui.C(t.Muted, "tenant "+c.tenant))
	lines = append(lines, "")

	items = model.Apply(c.opt.Filter, items)
	if c.opt.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `tada add \"Buy milk\"`"))
	ui.Panel(c.opt.Stdout, lines)
	return 0
}

func (c *commands[ID]) doAdd(name string) int {
	l := state.NewList(c.client, c.logger)
	defer l.Close()
	it, err := l.Add(c.ctx, strings.TrimSpace(name))
	if err != nil {
		return c.report("add", err)
	}
	c.ok(fmt.Sprintf("added %s %s", model.FormatID(it.ID), it.Name))
	return 0
}

func (c *commands[ID]) doToggle(id ID) int {
	l := state.NewList(c.client, c.logger)
	defer l.Close()
	if err := l.Load(c.ctx); err != nil {
		return c.report("load", err)
	}
	if _, ok := l.Find(id); !ok {
		c.fail("done: " + api.MsgNotFound)
		return 1
	}
	if err := l.Toggle(c.ctx, id); err != nil {
		return c.report("done", err)
	}
	it, _ := l.Find(id)
	if it.IsCompleted {
		c.ok("completed " + it.Name)
	} else {
		c.ok("reopened " + it.Name)
	}
	return 0
}

func (c *commands[ID]) doRemove(id ID) int {
	l := state.NewList(c.client, c.logger)
	defer l.Close()
	if err := l.Remove(c.ctx, id); err != nil {
		return c.report("rm", err)
	}
	c.ok("removed " + model.FormatID(id))
	return 0
}

// loaded opens a detail store on id; the caller closes it.
func (c *commands[ID]) loaded(op string, id ID) (*state.Detail[ID], int) {
	d := state.NewDetail(c.client, c.logger)
	if err := d.Load(c.ctx, id); err != nil {
		d.Close()
		return nil, c.report(op, err)
	}
	return d, 0
}

func (c *commands[ID]) doShow(id ID) int {
	d, code := c.loaded("show", id)
	if d == nil {
		return code
	}
	defer d.Close()
	ui.Panel(c.opt.Stdout, detailLines(*d.Snapshot().Data))
	return 0
}

func (c *commands[ID]) doRename(id ID, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		c.fail("edit: name cannot be empty")
		return 2
	}
	d, code := c.loaded("edit", id)
	if d == nil {
		return code
	}
	defer d.Close()
	if err := d.Save(c.ctx, nil, &name); err != nil {
		return c.report("edit", err)
	}
	c.ok("renamed to " + d.Snapshot().Data.Name)
	return 0
}

func (c *commands[ID]) doMemo(id ID, memo string) int {
	d, code := c.loaded("memo", id)
	if d == nil {
		return code
	}
	defer d.Close()
	if err := d.Save(c.ctx, &memo, nil); err != nil {
		return c.report("memo", err)
	}
	if memo == "" {
		c.ok("memo cleared")
	} else {
		c.ok("memo saved")
	}
	return 0
}

func (c *commands[ID]) doImage(id ID, path string) int {
	img, err := api.ReadImage(path)
	if err != nil {
		return c.report("image", err)
	}
	d, code := c.loaded("image", id)
	if d == nil {
		return code
	}
	defer d.Close()
	url, err := d.UploadImage(c.ctx, img)
	if err != nil {
		return c.report("image", err)
	}
	c.ok(fmt.Sprintf("uploaded %s (%s, %s)", img.Name, img.Type, ui.FormatFileSize(int64(len(img.Data)))))
	fmt.Fprintln(c.opt.Stdout, ui.Dim(url))
	return 0
}

func (c *commands[ID]) doTUI() int {
	err := tui.Run(c.client, tui.Options{
		Tenant: c.tenant,
		Filter: c.opt.Filter,
		Logger: c.logger,
	})
	if err != nil {
		c.fail("tui: " + err.Error())
		return 1
	}
	return 0
}

// -------------- rendering helpers --------------

func flatLines[ID model.Key](items []model.Item[ID]) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		box := t.BoxUnchecked
		color := t.Muted
		if it.IsCompleted {
			box, color = t.BoxChecked, t.Success
		}
		marks := ""
		if it.MemoText() != "" {
			marks += " " + ui.C(t.Muted, t.SymMemo)
		}
		if it.ImageText() != "" {
			marks += " " + ui.C(t.Muted, t.SymImage)
		}
		out = append(out, fmt.Sprintf("%s %s %s%s",
			ui.Dim(fmt.Sprintf("%4s", model.FormatID(it.ID))), ui.C(color, box), ui.Truncate(it.Name, 80), marks))
	}
	return out
}

func groupLines[ID model.Key](items []model.Item[ID]) []string {
	t := ui.Current()
	pend := model.Apply(model.FilterActive, items)
	done := model.Apply(model.FilterCompleted, items)

	section := func(title string, its []model.Item[ID]) []string {
		lines := []string{ui.C(t.Accent, fmt.Sprintf("%s (%d)", title, len(its)))}
		if len(its) == 0 {
			return append(lines, ui.C(t.Muted, "(none)"))
		}
		return append(lines, flatLines(its)...)
	}

	var lines []string
	lines = append(lines, section("Pending", pend)...)
	lines = append(lines, "")
	lines = append(lines, section("Done", done)...)
	return lines
}

func detailLines[ID model.Key](it model.Item[ID]) []string {
	t := ui.Current()
	status := ui.C(t.Pending, "active")
	if it.IsCompleted {
		status = ui.C(t.Success, "completed")
	}
	memo := it.MemoText()
	if memo == "" {
		memo = ui.C(t.Muted, "(no memo)")
	}
	image := it.ImageText()
	if image == "" {
		image = ui.C(t.Muted, "(no image)")
	}
	return []string{
		ui.C(t.Title, it.Name),
		"",
		ui.C(t.Muted, "id     ") + model.FormatID(it.ID),
		ui.C(t.Muted, "status ") + status,
		ui.C(t.Muted, "memo   ") + memo,
		ui.C(t.Muted, "image  ") + image,
	}
}
