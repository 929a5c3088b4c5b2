package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group  bool         // list grouped by pending/done
	Filter model.Filter // list filter
	Tenant string       // --tenant override

	// Config and Prefs default to the environment and ~/.tada when nil.
	Config *config.Config
	Prefs  *jsonstore.Store

	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Filter == "" {
		o.Filter = model.FilterAll
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	opt.defaults()
	if len(args) == 0 {
		PrintHelp(opt.Stdout)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return 0
	case "ls", "add", "done", "rm", "edit", "memo", "show", "image", "tui", "tenant":
	default:
		ui.Fail(opt.Stderr, "unknown subcommand: "+cmd)
		fmt.Fprintln(opt.Stderr)
		PrintHelp(opt.Stderr)
		return 2
	}

	e, code := setup(cmd, opt)
	if code != 0 {
		return code
	}
	defer e.close()

	if cmd == "tenant" {
		return e.doTenant(a)
	}

	switch e.cfg.IDKind {
	case config.IDString:
		return dispatch[string](e, cmd, a)
	default:
		return dispatch[int64](e, cmd, a)
	}
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tada - a tiny todo client for the remote todo API

Usage:
  tada [--tenant id] [--group] [--filter all|active|completed] <subcommand> [args]

Subcommands:
  ls                    List items
  add <name...>         Add a new item (name can be multiple words)
  done <id>             Toggle completion of an item
  rm <id>               Remove an item
  edit <id> <name...>   Rename an item
  memo <id> [text...]   Set (or clear) an item's memo
  show <id>             Show one item
  image <id> <path>     Upload an image and attach it to an item
  tenant [use <id>|clear]  Show, save or forget the tenant
  tui                   Interactive list

Environment:
  TADA_API_URL, TADA_TENANT_ID, TADA_IMAGE_ROUTE (tenant|shared),
  TADA_ID_KIND (numeric|string), TADA_TIMEOUT, TADA_LOG_LEVEL, TADA_LOG_FILE

Examples:
  tada add "Buy milk"
  tada ls
  tada done 2
  tada image 2 ./receipt.png
`)
}

// env is what every subcommand needs, built once per run.
type env struct {
	opt    Options
	cfg    *config.Config
	prefs  *jsonstore.Store
	logger *log.Logger
	closer io.Closer
}

func setup(cmd string, opt Options) (*env, int) {
	var cfg *config.Config
	if opt.Config != nil {
		c := *opt.Config
		cfg = &c
	} else {
		c, err := config.Load()
		if err != nil {
			ui.Fail(opt.Stderr, "config: "+err.Error())
			return nil, 1
		}
		cfg = c
	}
	prefs := opt.Prefs
	if prefs == nil {
		p, err := jsonstore.Default()
		if err != nil {
			ui.Fail(opt.Stderr, "prefs: "+err.Error())
			return nil, 1
		}
		prefs = p
	}
	saved, err := prefs.Load()
	if err != nil {
		ui.Fail(opt.Stderr, "prefs: "+err.Error())
		return nil, 1
	}
	cfg.ResolveTenant(opt.Tenant, saved.Tenant)

	// The TUI owns the terminal; only log there when a file is configured.
	var fallback io.Writer = opt.Stderr
	if cmd == "tui" {
		fallback = nil
	}
	logger, closer, err := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		File:     cfg.Log.File,
		Fallback: fallback,
	})
	if err != nil {
		ui.Fail(opt.Stderr, "log: "+err.Error())
		return nil, 1
	}
	return &env{opt: opt, cfg: cfg, prefs: prefs, logger: logger, closer: closer}, 0
}

func (e *env) close() { _ = e.closer.Close() }

func (e *env) fail(msg string) { ui.Fail(e.opt.Stderr, msg) }

func (e *env) ok(msg string) { ui.OK(e.opt.Stdout, msg) }

func (e *env) doTenant(a []string) int {
	switch {
	case len(a) == 0:
		fmt.Fprintf(e.opt.Stdout, "tenant: %s\n", e.cfg.Tenant)
		fmt.Fprintf(e.opt.Stdout, "source: %s\n", e.cfg.TenantSource)
		fmt.Fprintln(e.opt.Stdout, ui.Dim("env override: TADA_TENANT_ID"))
		return 0
	case a[0] == "use" && len(a) == 2:
		if err := e.prefs.SetTenant(a[1]); err != nil {
			e.fail("tenant: " + err.Error())
			return 1
		}
		e.ok("tenant saved: " + strings.TrimSpace(a[1]))
		if e.cfg.TenantSource == config.SourceEnv || e.cfg.TenantSource == config.SourceFlag {
			fmt.Fprintln(e.opt.Stderr, ui.Dim("note: TADA_TENANT_ID or --tenant still takes precedence"))
		}
		return 0
	case a[0] == "clear" && len(a) == 1:
		if err := e.prefs.ClearTenant(); err != nil {
			e.fail("tenant: " + err.Error())
			return 1
		}
		e.ok("saved tenant cleared")
		return 0
	}
	e.fail("usage: tada tenant [use <id>|clear]")
	return 2
}

func dispatch[ID model.Key](e *env, cmd string, a []string) int {
	opts := e.cfg.ClientOptions()
	opts.Logger = e.logger
	client, err := api.New[ID](opts)
	if err != nil {
		e.fail("client: " + err.Error())
		return 1
	}
	c := &commands[ID]{env: e, client: client, tenant: client.Tenant(), ctx: context.Background()}
	e.logger.Debug("dispatch", "cmd", cmd, "tenant", client.Tenant(), "id_kind", e.cfg.IDKind)

	switch cmd {
	case "ls":
		return c.doList()

	case "add":
		if len(a) == 0 {
			e.fail("usage: tada add <name...>")
			return 2
		}
		return c.doAdd(strings.Join(a, " "))

	case "done", "rm", "show":
		if len(a) != 1 {
			e.fail(fmt.Sprintf("usage: tada %s <id>", cmd))
			return 2
		}
		id, ok := c.parseID(cmd, a[0])
		if !ok {
			return 2
		}
		switch cmd {
		case "done":
			return c.doToggle(id)
		case "rm":
			return c.doRemove(id)
		default:
			return c.doShow(id)
		}

	case "edit":
		if len(a) < 2 {
			e.fail("usage: tada edit <id> <name...>")
			return 2
		}
		id, ok := c.parseID(cmd, a[0])
		if !ok {
			return 2
		}
		return c.doRename(id, strings.Join(a[1:], " "))

	case "memo":
		if len(a) < 1 {
			e.fail("usage: tada memo <id> [text...]")
			return 2
		}
		id, ok := c.parseID(cmd, a[0])
		if !ok {
			return 2
		}
		return c.doMemo(id, strings.Join(a[1:], " "))

	case "image":
		if len(a) != 2 {
			e.fail("usage: tada image <id> <path>")
			return 2
		}
		id, ok := c.parseID(cmd, a[0])
		if !ok {
			return 2
		}
		return c.doImage(id, a[1])

	case "tui":
		return c.doTUI()
	}
	return 2
}
