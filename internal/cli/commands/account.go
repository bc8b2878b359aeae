package commands

import (
	"context"
	"fmt"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/service"
)

type registerCmd struct{}

func (registerCmd) Name() string { return "register" }
func (registerCmd) Description() string {
	return "Зарегистрироваться и войти (--admin только для первого пользователя)"
}
func (registerCmd) Usage() string { return "register [--admin] <username> <password> <confirm>" }

func (registerCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := newFlagSet("register")
	admin := fs.Bool("admin", false, "seed the first administrator")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return ErrUsage
	}
	u, err := app.Users.Register(ctx, rest[0], rest[1], rest[2], *admin)
	if err != nil {
		return err
	}
	if err := app.StartSession(service.Session{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store session token" }
func (loginCmd) Usage() string       { return "login <username> <password>" }

func (loginCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	sess, err := app.Users.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := app.StartSession(sess); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Забыть сохранённую сессию" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := app.EndSession(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Показать текущего пользователя" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	role := "customer"
	if sess.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(Out, "%s (id %d, %s)\n", sess.Username, sess.UserID, role)
	return nil
}

func init() {
	RegisterCmd(registerCmd{})
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(whoamiCmd{})
}
