package cli

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/finadm/internal/service"
)

func (a *App) cmdVersion(_ context.Context, _ []string) error {
	a.printf("finadm %s\n", a.version)
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <email> <password>", ErrUsage)
	}
	s, err := a.svc.Auth.Login(ctx, service.LoginCredentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	a.printf("Logged in as %s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.Role)
	return nil
}

func (a *App) cmdLogout(ctx context.Context, _ []string) error {
	if err := a.svc.Auth.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func (a *App) cmdWhoami(ctx context.Context, _ []string) error {
	u, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	a.printf("%s <%s>\nrole: %s\nid: %s\n", u.Name, u.Email, u.Role, u.ID)
	if exp, ok := a.sess.TokenExpiry(ctx); ok {
		left := exp.Sub(a.now()).Round(time.Second)
		if left > 0 {
			a.printf("access token expires in %s\n", left)
		} else {
			a.printf("access token expired, it will be refreshed on the next request\n")
		}
	}
	return nil
}
