package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// NewOrdersCmd creates the orders command group
func NewOrdersCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage your orders",
	}
	cmd.AddCommand(newOrdersListCmd(load), newOrdersCreateCmd(load), newOrdersCancelCmd(load))
	return cmd
}

func newOrdersListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your orders",
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			orders, err := env.Service.GetMyOrders(cmd.Context(), params)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(env.Out, "No orders found.")
				fmt.Fprintln(env.Out, "\nPlace an order with: carepoint orders create --item <product-id>:<qty> --address <id>")
				return nil
			}
			return printOrders(env.Out, orders)
		}),
	}

	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")

	return cmd
}

func newOrdersCreateCmd(load EnvLoader) *cobra.Command {
	var (
		items     []string
		addressID int64
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Place an order",
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			req := services.CreateOrderRequest{AddressID: addressID, Notes: notes}
			for _, raw := range items {
				item, err := parseOrderItem(raw)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}

			order, err := env.Service.CreateOrder(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "✓ Order #%d placed (%s, total %s)\n", order.ID, order.Status, money(order.Total))
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&items, "item", nil, "Product and quantity as <product-id>:<qty> (repeatable)")
	cmd.Flags().Int64Var(&addressID, "address", 0, "Shipping address ID")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the pharmacy")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func newOrdersCancelCmd(load EnvLoader) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := env.Prompter.Confirm(fmt.Sprintf("Cancel order #%d", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(env.Out, "Aborted.")
					return nil
				}
			}

			order, err := env.Service.CancelOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Order #%d is now %s\n", order.ID, order.Status)
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func printOrders(out io.Writer, orders []services.Order) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED")
	fmt.Fprintln(w, "──\t──────\t─────\t─────\t──────")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			o.ID,
			o.Status,
			len(o.Items),
			money(o.Total),
			ago(o.CreatedAt),
		)
	}
	return w.Flush()
}

func parseOrderItem(raw string) (services.OrderItem, error) {
	idPart, qtyPart, found := strings.Cut(raw, ":")
	if !found {
		qtyPart = "1"
	}

	id, err := parseID(idPart)
	if err != nil {
		return services.OrderItem{}, fmt.Errorf("invalid item %q: %w", raw, err)
	}
	qty, err := strconv.Atoi(qtyPart)
	if err != nil || qty <= 0 {
		return services.OrderItem{}, fmt.Errorf("invalid item %q: quantity must be a positive integer", raw)
	}

	return services.OrderItem{ProductID: id, Quantity: qty}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
