package commands

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// NewAdminCmd creates the admin command group. Every subcommand requires
// the admin role.
func NewAdminCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users, orders, products and tickets",
	}

	users := &cobra.Command{Use: "users", Short: "Manage user accounts"}
	users.AddCommand(newAdminUsersListCmd(load), newAdminUsersDeleteCmd(load))

	orders := &cobra.Command{Use: "orders", Short: "Manage all orders"}
	orders.AddCommand(newAdminOrdersListCmd(load), newAdminOrdersStatusCmd(load))

	products := &cobra.Command{Use: "products", Short: "Manage the catalog"}
	products.AddCommand(newAdminProductsUploadImageCmd(load))

	tickets := &cobra.Command{Use: "tickets", Short: "Manage support tickets"}
	tickets.AddCommand(newAdminTicketsListCmd(load))

	cmd.AddCommand(users, orders, products, tickets)
	return cmd
}

func newAdminUsersListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			page, err := env.Service.GetAllUsers(cmd.Context(), params)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "%s users (%s admins, %s customers)\n\n",
				count(page.Totals.Total), count(page.Totals.Admins), count(page.Totals.Users))

			w := newTable(env.Out)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tJOINED")
			fmt.Fprintln(w, "──\t────\t─────\t────\t──────")
			for _, u := range page.Users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, orDash(u.Name), orDash(u.Email), orDash(u.Role), ago(u.CreatedAt))
			}
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&params.Search, "search", "", "Filter by name or email")
	cmd.Flags().StringVar(&params.Role, "role", "", "Filter by role")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")

	return cmd
}

func newAdminUsersDeleteCmd(load EnvLoader) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if env.Session != nil && env.Session.UserID == id {
				return fmt.Errorf("refusing to delete your own account")
			}

			if !yes {
				ok, err := env.Prompter.Confirm(fmt.Sprintf("Delete user #%d", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(env.Out, "Aborted.")
					return nil
				}
			}

			if err := env.Service.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ User #%d deleted\n", id)
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newAdminOrdersListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all orders",
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			page, err := env.Service.GetAllOrders(cmd.Context(), params)
			if err != nil {
				return err
			}

			t := page.Totals
			fmt.Fprintf(env.Out, "%s orders, %s revenue (pending %s, processing %s, shipped %s, delivered %s, cancelled %s)\n\n",
				count(t.Total), money(t.Revenue), count(t.Pending), count(t.Processing), count(t.Shipped), count(t.Delivered), count(t.Cancelled))

			if len(page.Orders) == 0 {
				fmt.Fprintln(env.Out, "No orders found.")
				return nil
			}
			return printOrders(env.Out, page.Orders)
		}),
	}

	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&params.Search, "search", "", "Filter by customer")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")

	return cmd
}

func newAdminOrdersStatusCmd(load EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Change an order's status",
		Args:  cobra.ExactArgs(2),
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			order, err := env.Service.UpdateOrderStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Order #%d is now %s\n", order.ID, order.Status)
			return nil
		}),
	}
}

func newAdminProductsUploadImageCmd(load EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <product-id> <file>",
		Short: "Upload a product image",
		Args:  cobra.ExactArgs(2),
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			product, err := env.Service.UploadProductImage(cmd.Context(), id,
				filepath.Base(args[1]), mime.TypeByExtension(filepath.Ext(args[1])), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Image uploaded for %s: %s\n", product.Name, product.ImageURL)
			return nil
		}),
	}
}

func newAdminTicketsListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all support tickets",
		RunE: guarded(load, guard.RequireAdmin, func(cmd *cobra.Command, args []string, env *Env) error {
			page, err := env.Service.GetAllTickets(cmd.Context(), params)
			if err != nil {
				return err
			}
			printTicketTotals(env.Out, page.Totals)

			if len(page.Tickets) == 0 {
				fmt.Fprintln(env.Out, "No tickets found.")
				return nil
			}
			return printTickets(env.Out, page.Tickets)
		}),
	}

	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")

	return cmd
}

func printTicketTotals(out io.Writer, t services.TicketTotals) {
	fmt.Fprintf(out, "%s tickets (open %s, in progress %s, resolved %s, closed %s)\n\n",
		count(t.Total), count(t.Open), count(t.InProgress), count(t.Resolved), count(t.Closed))
}
