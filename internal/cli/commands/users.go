package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/service"
)

type usersCmd struct{}

func (usersCmd) Name() string        { return "users" }
func (usersCmd) Description() string { return "Список пользователей, включая удалённых (admin)" }
func (usersCmd) Usage() string       { return "users [query]" }

func (usersCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	list, err := app.Users.Search(ctx, sess, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет пользователей")
		return nil
	}
	for _, u := range list {
		flags := ""
		if u.IsAdmin {
			flags += " admin"
		}
		if u.Deleted() {
			flags += " (deleted)"
		}
		fmt.Fprintf(Out, "- %d  %s%s\n", u.ID, u.Username, flags)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
	return nil
}

type userDeleteCmd struct{}

func (userDeleteCmd) Name() string        { return "user-delete" }
func (userDeleteCmd) Description() string { return "Удалить пользователя (admin)" }
func (userDeleteCmd) Usage() string       { return "user-delete <id>" }

func (userDeleteCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Users.Delete(ctx, sess, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted user %d\n", id)
	return nil
}

type userRestoreCmd struct{}

func (userRestoreCmd) Name() string        { return "user-restore" }
func (userRestoreCmd) Description() string { return "Восстановить пользователя (admin)" }
func (userRestoreCmd) Usage() string       { return "user-restore <id>" }

func (userRestoreCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Users.Restore(ctx, sess, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Restored user %d\n", id)
	return nil
}

type userEditCmd struct{}

func (userEditCmd) Name() string        { return "user-edit" }
func (userEditCmd) Description() string { return "Переименовать, сменить пароль или права (admin)" }
func (userEditCmd) Usage() string {
	return "user-edit [--name=<username>] [--password=<password>] [--admin=true|false] <id>"
}

func (userEditCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := newFlagSet("user-edit")
	name := fs.String("name", "", "new username")
	password := fs.String("password", "", "new password")
	admin := fs.String("admin", "", "true|false")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if len(set) == 0 {
		return ErrUsage
	}
	var edit service.UserEdit
	if set["name"] {
		edit.Username = name
	}
	if set["password"] {
		edit.Password = password
	}
	if set["admin"] {
		v, err := strconv.ParseBool(*admin)
		if err != nil {
			return ErrUsage
		}
		edit.IsAdmin = &v
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	u, err := app.Users.Edit(ctx, sess, id, edit)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated user %d: %s admin=%t\n", u.ID, u.Username, u.IsAdmin)
	return nil
}

func init() {
	RegisterCmd(usersCmd{})
	RegisterCmd(userDeleteCmd{})
	RegisterCmd(userRestoreCmd{})
	RegisterCmd(userEditCmd{})
}
