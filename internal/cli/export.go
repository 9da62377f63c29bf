package cli

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/export"
	"gitlab.com/yelinaung/finadm/internal/hooks"
	"gitlab.com/yelinaung/finadm/internal/service"
)

func (a *App) cmdExport(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	return sub(ctx, "export", args, map[string]command{
		"tx":     a.exportTx,
		"users":  a.exportUsers,
		"report": a.exportReport,
	})
}

// pathArg splits "<path> [flags]" so the path may come before the flags.
func pathArg(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}
	return "", args
}

func (a *App) exportTx(ctx context.Context, args []string) error {
	path, rest := pathArg(args)
	fl := newTxFlags("export tx")
	period := fl.fs.String("period", "", "week or month")
	local := fl.fs.Bool("local", false, "render the CSV locally from the listed page")
	if err := parse(fl.fs, rest); err != nil {
		return err
	}
	if path == "" && fl.fs.NArg() > 0 {
		path = fl.fs.Arg(0)
	}
	filter, err := fl.resolve()
	if err != nil {
		return err
	}
	switch *period {
	case "", export.PeriodWeek, export.PeriodMonth:
	default:
		return fmt.Errorf("%w: --period must be week or month", ErrUsage)
	}
	filter.From, filter.To = export.PeriodRange(*period, a.now())

	h := a.transactions()
	var written string
	if *local {
		written, err = a.exportTxLocal(ctx, h, filter, path, *period)
	} else {
		if err := h.SetFilter(ctx, filter); err != nil {
			return err
		}
		written, err = h.Export(ctx, path)
	}
	if err != nil {
		return err
	}
	a.printf("Wrote %s\n", written)
	return nil
}

// exportTxLocal renders the listed page without the export endpoint.
func (a *App) exportTxLocal(ctx context.Context, h *hooks.Transactions, f service.TransactionFilter, path, period string) (string, error) {
	if err := h.SetFilter(ctx, f); err != nil {
		return "", err
	}
	data, err := export.TransactionsCSV(h.Transactions())
	if err != nil {
		return "", err
	}
	blob := &apiclient.Blob{Data: data, ContentType: "text/csv"}
	return export.WriteBlob(path, export.Filename("transactions", period, "csv", a.now()), blob)
}

func (a *App) exportUsers(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: export users <path>", ErrUsage)
	}
	written, err := hooks.NewAdminUsers(a.svc.Admin, a.svc.Auth, service.UserFilter{}).Export(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("Wrote %s\n", written)
	return nil
}

func (a *App) exportReport(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: export report <pdf|excel> <path>", ErrUsage)
	}
	format, path := args[0], args[1]

	var f service.ReportFilter
	fs := newFlags("export report")
	fs.StringVar(&f.From, "from", "", "start date")
	fs.StringVar(&f.To, "to", "", "end date")
	if err := parse(fs, args[2:]); err != nil {
		return err
	}

	h := hooks.NewReports(a.svc.Reports)
	var (
		written string
		err     error
	)
	switch format {
	case "pdf":
		written, err = h.ExportPDF(ctx, f, path)
	case "excel":
		written, err = h.ExportExcel(ctx, f, path)
	default:
		return fmt.Errorf("%w: report format must be pdf or excel", ErrUsage)
	}
	if err != nil {
		return err
	}
	a.printf("Wrote %s\n", written)
	return nil
}
