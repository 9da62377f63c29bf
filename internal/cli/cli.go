// Package cli implements the finadm commands on top of the hooks.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/fx"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
	"gitlab.com/yelinaung/finadm/internal/session"
	"gitlab.com/yelinaung/finadm/internal/telemetry"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `usage: finadm <command> [args]

commands:
  version
  login <email> <password>
  logout
  whoami
  tx list [--all | --user id] [--type t] [--search s] [--page n] [--limit n]
  tx add [--date YYYY-MM-DD] <amount> <income|expense> <category> <description>
  tx delete <id>
  stats [--from date] [--to date]
  users list [--search s] [--role r] [--status s]
  accounts list [--type t] [--in currency]
  categories list [--type t]
  settings [theme <light|dark|auto>]
  report monthly [--months n]
  export tx <path> [--period week|month] [--local]
  export users <path>
  export report <pdf|excel> <path> [--from date] [--to date]
`

// App runs commands against one set of services.
type App struct {
	svc     *service.Services
	sess    *session.Manager
	fx      *fx.Converter
	out     io.Writer
	version string
	now     func() time.Time
}

// New creates an App writing to out. rates backs currency conversion.
func New(svc *service.Services, sess *session.Manager, rates fx.RateSource, out io.Writer, version string) *App {
	return &App{
		svc:     svc,
		sess:    sess,
		fx:      fx.NewConverter(rates),
		out:     out,
		version: version,
		now:     time.Now,
	}
}

type command func(ctx context.Context, args []string) error

func (a *App) commands() map[string]command {
	return map[string]command{
		"version":    a.cmdVersion,
		"login":      a.cmdLogin,
		"logout":     a.cmdLogout,
		"whoami":     a.cmdWhoami,
		"tx":         a.cmdTx,
		"stats":      a.cmdStats,
		"users":      a.cmdUsers,
		"accounts":   a.cmdAccounts,
		"categories": a.cmdCategories,
		"settings":   a.cmdSettings,
		"report":     a.cmdReport,
		"export":     a.cmdExport,
	}
}

// Run executes one command line, without the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		_, _ = io.WriteString(a.out, usage)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	cmd, ok := a.commands()[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	ctx, span := telemetry.StartCommand(ctx, args[0])
	defer span.End()

	err := cmd(ctx, args[1:])
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// sub dispatches "<group> <name> ..." commands.
func sub(ctx context.Context, group string, args []string, cmds map[string]command) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s needs a subcommand", ErrUsage, group)
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown %s subcommand %q", ErrUsage, group, args[0])
	}
	return cmd(ctx, args[1:])
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

// requireUser returns the logged-in user or ErrNotAuthenticated.
func (a *App) requireUser(ctx context.Context) (*models.User, error) {
	u, err := a.svc.Auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: run finadm login first", apierr.ErrNotAuthenticated)
	}
	return u, nil
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func row(cols ...string) string {
	return strings.Join(cols, "\t") + "\n"
}
