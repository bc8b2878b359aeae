package commands

import (
	"context"
	"fmt"
	"strings"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/model"
	"GophShop/internal/service"
)

func printProducts(list []model.Product) {
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет товаров")
		return
	}
	for _, p := range list {
		state := ""
		if p.Status != model.ProductNormal {
			state = " (" + p.Status.String() + ")"
		}
		fmt.Fprintf(Out, "- %d  %s  price=%.2f  stock=%d%s\n", p.ID, p.Name, p.Price, p.Stock, state)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
}

type productsCmd struct{}

func (productsCmd) Name() string        { return "products" }
func (productsCmd) Description() string { return "Показать каталог" }
func (productsCmd) Usage() string       { return "products" }

func (productsCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	list, err := app.Products.Load(ctx, sess)
	if err != nil {
		return err
	}
	printProducts(list)
	return nil
}

type productSearchCmd struct{}

func (productSearchCmd) Name() string        { return "product-search" }
func (productSearchCmd) Description() string { return "Найти товар по id или части названия" }
func (productSearchCmd) Usage() string       { return "product-search <query>" }

func (productSearchCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	list, err := app.Products.Search(ctx, sess, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printProducts(list)
	return nil
}

type productAddCmd struct{}

func (productAddCmd) Name() string        { return "product-add" }
func (productAddCmd) Description() string { return "Добавить товар (admin)" }
func (productAddCmd) Usage() string       { return "product-add <name> <price> <stock>" }

func (productAddCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	price, err := parsePrice(args[1])
	if err != nil {
		return err
	}
	stock, err := parseCount(args[2])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	p, err := app.Products.Add(ctx, sess, args[0], price, stock)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "Created:")
	fmt.Fprintf(Out, "  id:    %d\n", p.ID)
	fmt.Fprintf(Out, "  name:  %s\n", p.Name)
	fmt.Fprintf(Out, "  price: %.2f\n", p.Price)
	fmt.Fprintf(Out, "  stock: %d\n", p.Stock)
	return nil
}

type productEditCmd struct{}

func (productEditCmd) Name() string        { return "product-edit" }
func (productEditCmd) Description() string { return "Изменить название, цену или остаток (admin)" }
func (productEditCmd) Usage() string {
	return "product-edit [--name=<name>] [--price=<price>] [--stock=<n>] <id>"
}

func (productEditCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := newFlagSet("product-edit")
	name := fs.String("name", "", "new name")
	price := fs.Float64("price", 0, "new price")
	stock := fs.Int("stock", 0, "new stock")
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
	var edit service.ProductEdit
	if set["name"] {
		edit.Name = name
	}
	if set["price"] {
		edit.Price = price
	}
	if set["stock"] {
		s := int32(*stock)
		edit.Stock = &s
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	p, err := app.Products.Edit(ctx, sess, id, edit)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated: %d  %s  price=%.2f  stock=%d (%s)\n", p.ID, p.Name, p.Price, p.Stock, p.Status)
	return nil
}

type productDeleteCmd struct{}

func (productDeleteCmd) Name() string        { return "product-delete" }
func (productDeleteCmd) Description() string { return "Удалить товар (admin)" }
func (productDeleteCmd) Usage() string       { return "product-delete <id>" }

func (productDeleteCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
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
	if err := app.Products.Delete(ctx, sess, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted product %d\n", id)
	return nil
}

type productRestoreCmd struct{}

func (productRestoreCmd) Name() string        { return "product-restore" }
func (productRestoreCmd) Description() string { return "Восстановить удалённый товар (admin)" }
func (productRestoreCmd) Usage() string       { return "product-restore <id>" }

func (productRestoreCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
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
	if err := app.Products.Restore(ctx, sess, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Restored product %d\n", id)
	return nil
}

func init() {
	RegisterCmd(productsCmd{})
	RegisterCmd(productSearchCmd{})
	RegisterCmd(productAddCmd{})
	RegisterCmd(productEditCmd{})
	RegisterCmd(productDeleteCmd{})
	RegisterCmd(productRestoreCmd{})
}
