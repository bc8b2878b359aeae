package commands

import (
	"context"
	"fmt"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/model"
	"GophShop/internal/service"
)

type cartCmd struct{}

func (cartCmd) Name() string        { return "cart" }
func (cartCmd) Description() string { return "Показать корзину и сумму выбранных строк" }
func (cartCmd) Usage() string       { return "cart" }

func (cartCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	lines, err := app.Carts.Load(ctx, sess)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(Out, "Корзина пуста")
		return nil
	}
	for _, l := range lines {
		mark := "[ ]"
		if l.Item.Selected() {
			mark = "[x]"
		}
		name := l.ProductName
		if name == "" {
			name = "?"
		}
		na := ""
		if !l.Available {
			na = " (unavailable)"
		}
		fmt.Fprintf(Out, "%s %d  %s  x%d  %.2f  delivery=%s%s\n",
			mark, l.Item.ProductID, name, l.Item.Count, l.Subtotal(), l.Item.Delivery, na)
	}
	fmt.Fprintf(Out, "Итого к оплате: %.2f\n", service.SelectedTotal(lines))
	return nil
}

type cartAddCmd struct{}

func (cartAddCmd) Name() string        { return "cart-add" }
func (cartAddCmd) Description() string { return "Положить товар в корзину" }
func (cartAddCmd) Usage() string       { return "cart-add <product-id> [count]" }

func (cartAddCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	count := int32(1)
	if len(args) == 2 {
		if count, err = parseCount(args[1]); err != nil {
			return err
		}
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	item, err := app.Carts.Add(ctx, sess, pid, count)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "In cart: product %d x%d\n", item.ProductID, item.Count)
	return nil
}

type cartSetCmd struct{}

func (cartSetCmd) Name() string        { return "cart-set" }
func (cartSetCmd) Description() string { return "Изменить количество (0 убирает строку)" }
func (cartSetCmd) Usage() string       { return "cart-set <product-id> <count>" }

func (cartSetCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	count, err := parseCount(args[1])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Carts.SetCount(ctx, sess, pid, count); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated: product %d x%d\n", pid, count)
	return nil
}

type cartSelectCmd struct{}

func (cartSelectCmd) Name() string { return "cart-select" }
func (cartSelectCmd) Description() string {
	return "Выбрать способ доставки строки: standard|express|priority|none"
}
func (cartSelectCmd) Usage() string { return "cart-select <product-id> <delivery>" }

func (cartSelectCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	d, err := model.ParseDelivery(args[1])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Carts.Select(ctx, sess, pid, d); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Product %d: delivery=%s\n", pid, d)
	return nil
}

type cartRemoveCmd struct{}

func (cartRemoveCmd) Name() string        { return "cart-remove" }
func (cartRemoveCmd) Description() string { return "Убрать товар из корзины" }
func (cartRemoveCmd) Usage() string       { return "cart-remove <product-id>" }

func (cartRemoveCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Carts.Remove(ctx, sess, pid); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Removed product %d\n", pid)
	return nil
}

func init() {
	RegisterCmd(cartCmd{})
	RegisterCmd(cartAddCmd{})
	RegisterCmd(cartSetCmd{})
	RegisterCmd(cartSelectCmd{})
	RegisterCmd(cartRemoveCmd{})
}
