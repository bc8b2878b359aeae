package commands

import (
	"context"
	"fmt"
	"strings"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/model"
	"GophShop/internal/service"
)

type checkoutCmd struct{}

func (checkoutCmd) Name() string        { return "checkout" }
func (checkoutCmd) Description() string { return "Оформить заказ из выбранных строк корзины" }
func (checkoutCmd) Usage() string       { return "checkout <address>" }

func (checkoutCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	o, err := app.Checkout.Checkout(ctx, sess, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "Order placed:")
	fmt.Fprintf(Out, "  id:      %d\n", o.OrderID)
	fmt.Fprintf(Out, "  lines:   %d\n", len(o.Lines))
	fmt.Fprintf(Out, "  total:   %.2f\n", o.TotalPrice)
	fmt.Fprintf(Out, "  arrival: %s\n", formatTime(o.ArrivalTime))
	return nil
}

type ordersCmd struct{}

func (ordersCmd) Name() string        { return "orders" }
func (ordersCmd) Description() string { return "Показать текущие заказы" }
func (ordersCmd) Usage() string       { return "orders" }

func (ordersCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	list, err := app.Orders.LoadOrders(ctx, sess)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет заказов")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(Out, "Order %d  [%s]  total=%.2f  placed=%s  arrival=%s\n",
			o.OrderID, o.Status, o.TotalPrice, formatTime(o.OrderTime), formatTime(o.ArrivalTime))
		fmt.Fprintf(Out, "  address: %s  delivery: %s\n", o.Address, o.Delivery)
		for _, l := range o.Lines {
			name := l.ProductName
			if !l.Available {
				name += " (unavailable)"
			}
			fmt.Fprintf(Out, "  - %d  %s  x%d  %.2f\n", l.Item.ProductID, name, l.Item.Count, l.UnitPrice)
		}
	}
	return nil
}

type orderCancelCmd struct{}

func (orderCancelCmd) Name() string        { return "order-cancel" }
func (orderCancelCmd) Description() string { return "Отменить недоставленный заказ" }
func (orderCancelCmd) Usage() string       { return "order-cancel <order-id>" }

func (orderCancelCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	oid, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Orders.CancelOrder(ctx, sess, oid); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Order %d cancelled\n", oid)
	return nil
}

type orderEditCmd struct{}

func (orderEditCmd) Name() string        { return "order-edit" }
func (orderEditCmd) Description() string { return "Изменить адрес или доставку заказа" }
func (orderEditCmd) Usage() string {
	return "order-edit [--address=<address>] [--delivery=<delivery>] <order-id>"
}

func (orderEditCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := newFlagSet("order-edit")
	address := fs.String("address", "", "new delivery address")
	delivery := fs.String("delivery", "", "standard|express|priority")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}
	oid, err := parseOrderID(fs.Arg(0))
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if len(set) == 0 {
		return ErrUsage
	}
	var info service.OrderInfo
	if set["address"] {
		info.Address = address
	}
	if set["delivery"] {
		d, err := model.ParseDelivery(*delivery)
		if err != nil {
			return err
		}
		info.Delivery = &d
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.Orders.UpdateOrderInfo(ctx, sess, oid, info); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Order %d updated\n", oid)
	return nil
}

type historyCmd struct{}

func (historyCmd) Name() string        { return "history" }
func (historyCmd) Description() string { return "Показать завершённые и отменённые заказы" }
func (historyCmd) Usage() string       { return "history" }

func (historyCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	list, err := app.Orders.LoadHistory(ctx, sess)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "История пуста")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(Out, "Order %d  [%s]  total=%.2f  placed=%s\n",
			o.OrderID, o.Status, o.TotalPrice, formatTime(o.OrderTime))
		for _, it := range o.Items {
			fmt.Fprintf(Out, "  - %d  %s  x%d  %.2f\n", it.ProductID, it.ProductName, it.Count, it.Price)
		}
	}
	return nil
}

type historyClearCmd struct{}

func (historyClearCmd) Name() string        { return "history-clear" }
func (historyClearCmd) Description() string { return "Очистить историю заказов" }
func (historyClearCmd) Usage() string       { return "history-clear" }

func (historyClearCmd) Run(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := app.Session(ctx)
	if err != nil {
		return err
	}
	n, err := app.Orders.ClearHistory(ctx, sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Removed %d history lines\n", n)
	return nil
}

func init() {
	RegisterCmd(checkoutCmd{})
	RegisterCmd(ordersCmd{})
	RegisterCmd(orderCancelCmd{})
	RegisterCmd(orderEditCmd{})
	RegisterCmd(historyCmd{})
	RegisterCmd(historyClearCmd{})
}
