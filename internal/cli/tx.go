package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finadm/internal/hooks"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
	"gitlab.com/yelinaung/finadm/internal/stats"
)

func (a *App) cmdTx(ctx context.Context, args []string) error {
	return sub(ctx, "tx", args, map[string]command{
		"list":   a.txList,
		"add":    a.txAdd,
		"delete": a.txDelete,
	})
}

func (a *App) transactions() *hooks.Transactions {
	return hooks.NewTransactions(a.svc.Transactions, a.svc.Auth, service.TransactionFilter{})
}

// txFlags holds the listing flags shared by tx list and export tx.
type txFlags struct {
	fs     *flag.FlagSet
	all    bool
	user   string
	filter service.TransactionFilter
}

func newTxFlags(name string) *txFlags {
	f := &txFlags{fs: newFlags(name)}
	f.fs.BoolVar(&f.all, "all", false, "all users (admin)")
	f.fs.StringVar(&f.user, "user", "", "user id")
	f.fs.StringVar(&f.filter.Type, "type", "", "income or expense")
	f.fs.StringVar(&f.filter.Search, "search", "", "search text")
	f.fs.StringVar(&f.filter.Category, "category", "", "category")
	f.fs.IntVar(&f.filter.Page, "page", 0, "page")
	f.fs.IntVar(&f.filter.Limit, "limit", 0, "page size")
	return f
}

func (f *txFlags) resolve() (service.TransactionFilter, error) {
	if f.all && f.user != "" {
		return service.TransactionFilter{}, fmt.Errorf("%w: --all and --user are exclusive", ErrUsage)
	}
	switch {
	case f.all:
		f.filter.Scope = service.AllUsers()
	case f.user != "":
		f.filter.Scope = service.SpecificUser(f.user)
	}
	return f.filter, nil
}

func (a *App) txList(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	fl := newTxFlags("tx list")
	if err := parse(fl.fs, args); err != nil {
		return err
	}
	filter, err := fl.resolve()
	if err != nil {
		return err
	}

	h := a.transactions()
	if err := h.SetFilter(ctx, filter); err != nil {
		return err
	}

	txs := h.Transactions()
	if len(txs) == 0 {
		a.printf("No transactions\n")
	} else {
		tw := a.table()
		_, _ = fmt.Fprint(tw, row("ID", "DATE", "TYPE", "AMOUNT", "CATEGORY", "DESCRIPTION"))
		for _, tx := range txs {
			_, _ = fmt.Fprint(tw, row(tx.ID, tx.Date, string(tx.Type), money(tx.SignedAmount()), tx.Category, tx.Description))
		}
		_ = tw.Flush()
	}

	p := h.Pagination()
	a.printf("page %d/%d, %d total\n", p.Current, p.Pages, p.Total)
	if s := h.Stats(); s != nil {
		a.printSummary(s)
	}
	return nil
}

func (a *App) printSummary(s *stats.Result) {
	a.printf("income %s  expenses %s  balance %s  (%d transactions)\n",
		money(s.Summary.Income), money(s.Summary.Expenses), money(s.Summary.Balance), s.Summary.Count)
}

func (a *App) txAdd(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	fs := newFlags("tx add")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	if err := parse(fs, args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 4 {
		return fmt.Errorf("%w: tx add <amount> <income|expense> <category> <description>", ErrUsage)
	}

	amount, err := decimal.NewFromString(rest[0])
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be a positive number", ErrUsage)
	}
	typ := models.TransactionType(strings.ToLower(rest[1]))
	if !typ.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrUsage)
	}

	tx, err := a.transactions().Create(ctx, service.CreateTransactionData{
		Amount:      amount,
		Type:        typ,
		Category:    a.resolveCategory(ctx, rest[2], typ),
		Description: strings.Join(rest[3:], " "),
		Date:        *date,
	})
	if err != nil {
		return err
	}
	a.printf("Added %s %s %s (%s)\n", tx.Type, money(tx.Amount), tx.Category, tx.ID)
	return nil
}

func (a *App) txDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: tx delete <id>", ErrUsage)
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	if err := a.transactions().Delete(ctx, args[0]); err != nil {
		return err
	}
	a.printf("Deleted %s\n", args[0])
	return nil
}

func (a *App) cmdStats(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	fs := newFlags("stats")
	from := fs.String("from", "", "start date")
	to := fs.String("to", "", "end date")
	if err := parse(fs, args); err != nil {
		return err
	}

	h := a.transactions()
	h.LoadStats(ctx, *from, *to)
	s := h.Stats()
	if s == nil {
		return errors.New("stats unavailable")
	}

	a.printSummary(s)
	tw := a.table()
	_, _ = fmt.Fprint(tw, row("CATEGORY", "TYPE", "TOTAL", "COUNT"))
	for _, g := range s.Groups {
		_, _ = fmt.Fprint(tw, row(g.Category, string(g.Type), money(g.Total), fmt.Sprint(g.Count)))
	}
	return tw.Flush()
}
