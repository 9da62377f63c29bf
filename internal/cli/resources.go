package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/finadm/internal/hooks"
	"gitlab.com/yelinaung/finadm/internal/models"
	"gitlab.com/yelinaung/finadm/internal/service"
)

func (a *App) cmdUsers(ctx context.Context, args []string) error {
	return sub(ctx, "users", args, map[string]command{"list": a.usersList})
}

func (a *App) usersList(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	var f service.UserFilter
	fs := newFlags("users list")
	fs.StringVar(&f.Search, "search", "", "name or email")
	fs.StringVar(&f.Role, "role", "", "admin or normal")
	fs.StringVar(&f.Status, "status", "", "active or inactive")
	fs.IntVar(&f.Page, "page", 0, "page")
	if err := parse(fs, args); err != nil {
		return err
	}

	h := hooks.NewAdminUsers(a.svc.Admin, a.svc.Auth, f)
	if err := h.SetFilter(ctx, f); err != nil {
		return err
	}
	h.LoadSystemStats(ctx)

	tw := a.table()
	_, _ = fmt.Fprint(tw, row("ID", "NAME", "EMAIL", "ROLE", "STATUS", "LAST LOGIN"))
	for _, u := range h.Users() {
		_, _ = fmt.Fprint(tw, row(u.ID, u.Name, u.Email, string(u.Role), string(u.Status), u.LastLogin))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := h.Pagination()
	a.printf("page %d/%d, %d total\n", p.Current, p.Pages, p.Total)
	if s := h.SystemStats(); s != nil {
		a.printf("users %d (%d active, %d new this month), transactions %d, revenue %s\n",
			s.TotalUsers, s.ActiveUsers, s.NewUsersThisMonth, s.TotalTransactions, money(s.TotalRevenue))
	}
	return nil
}

func (a *App) cmdAccounts(ctx context.Context, args []string) error {
	return sub(ctx, "accounts", args, map[string]command{"list": a.accountsList})
}

func (a *App) accountsList(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	var f service.AccountFilter
	fs := newFlags("accounts list")
	fs.StringVar(&f.Type, "type", "", "account type")
	fs.StringVar(&f.Search, "search", "", "name")
	in := fs.String("in", "", "also show balances converted to this currency")
	if err := parse(fs, args); err != nil {
		return err
	}

	h := hooks.NewAccounts(a.svc.Accounts, a.svc.Auth, f)
	if err := h.Load(ctx); err != nil {
		return err
	}

	accounts := h.Accounts()
	if *in != "" {
		return a.printConverted(ctx, accounts, strings.ToUpper(*in))
	}

	tw := a.table()
	_, _ = fmt.Fprint(tw, row("ID", "NAME", "TYPE", "BALANCE", "CURRENCY"))
	for _, acc := range accounts {
		_, _ = fmt.Fprint(tw, row(acc.ID, acc.Name, string(acc.Type), money(acc.Balance), acc.Currency))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.printf("total balance %s\n", money(h.TotalBalance()))
	return nil
}

func (a *App) printConverted(ctx context.Context, accounts []models.Account, to string) error {
	converted, total, err := a.fx.Balances(ctx, accounts, to)
	if err != nil {
		return err
	}

	tw := a.table()
	_, _ = fmt.Fprint(tw, row("ID", "NAME", "TYPE", "BALANCE", "CURRENCY", to))
	for i, acc := range accounts {
		_, _ = fmt.Fprint(tw, row(acc.ID, acc.Name, string(acc.Type), money(acc.Balance), acc.Currency, money(converted[i])))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.printf("total balance %s %s\n", money(total), to)
	return nil
}

func (a *App) cmdCategories(ctx context.Context, args []string) error {
	return sub(ctx, "categories", args, map[string]command{"list": a.categoriesList})
}

func (a *App) categoriesList(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	var f service.CategoryFilter
	fs := newFlags("categories list")
	fs.StringVar(&f.Type, "type", "", "income or expense")
	fs.StringVar(&f.Search, "search", "", "name")
	if err := parse(fs, args); err != nil {
		return err
	}

	h := hooks.NewCategories(a.svc.Categories, a.svc.Auth, f)
	if err := h.Load(ctx); err != nil {
		return err
	}

	tw := a.table()
	_, _ = fmt.Fprint(tw, row("ID", "NAME", "TYPE", "COLOR"))
	for _, c := range h.Categories() {
		_, _ = fmt.Fprint(tw, row(c.ID, c.Name, string(c.Type), c.Color))
	}
	return tw.Flush()
}

func (a *App) cmdSettings(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	h := hooks.NewSettings(a.svc.Settings, a.svc.Auth)

	if len(args) > 0 {
		if args[0] != "theme" || len(args) != 2 {
			return fmt.Errorf("%w: settings [theme <light|dark|auto>]", ErrUsage)
		}
		theme := models.Theme(args[1])
		if !theme.Valid() {
			return fmt.Errorf("%w: unknown theme %q", ErrUsage, args[1])
		}
		if err := h.UpdateTheme(ctx, theme); err != nil {
			return err
		}
	} else if err := h.Load(ctx); err != nil {
		if h.Settings() == nil {
			return err
		}
		a.printf("backend unavailable, showing cached settings\n")
	}

	s := h.Settings()
	if s == nil {
		return errors.New("no settings available")
	}
	a.printf("theme: %s\nlanguage: %s\ncurrency: %s\n", s.Theme, s.Language, s.Currency)
	a.printf("notifications: email=%t push=%t alerts=%t weekly=%t\n",
		s.Notifications.Email, s.Notifications.Push, s.Notifications.TransactionAlerts, s.Notifications.WeeklyReport)
	a.printf("privacy: showBalance=%t shareData=%t\n", s.Privacy.ShowBalance, s.Privacy.ShareData)
	return nil
}

func (a *App) cmdReport(ctx context.Context, args []string) error {
	return sub(ctx, "report", args, map[string]command{"monthly": a.reportMonthly})
}

func (a *App) reportMonthly(ctx context.Context, args []string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	fs := newFlags("report monthly")
	n := fs.Int("months", service.DefaultReportMonths, "number of months")
	if err := parse(fs, args); err != nil {
		return err
	}

	months, err := hooks.NewReports(a.svc.Reports).GetMonthly(ctx, *n)
	if err != nil {
		return err
	}

	tw := a.table()
	_, _ = fmt.Fprint(tw, row("MONTH", "INCOME", "EXPENSE", "BALANCE", "SAVINGS %"))
	for _, m := range months {
		_, _ = fmt.Fprint(tw, row(m.Month, money(m.Income), money(m.Expense), money(m.Balance), m.SavingsRate.StringFixed(1)))
	}
	return tw.Flush()
}
