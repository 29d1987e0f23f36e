package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/search"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// NewProductsCmd creates the products command group
func NewProductsCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
	}
	cmd.AddCommand(newProductsListCmd(load), newProductsSearchCmd(load))
	return cmd
}

func newProductsListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List products",
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			products, err := env.Service.GetProducts(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printProducts(env.Out, products)
		}),
	}

	cmd.Flags().StringVar(&params.Search, "search", "", "Filter by name")
	cmd.Flags().StringVar(&params.Category, "category", "", "Filter by category")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")

	return cmd
}

func newProductsSearchCmd(load EnvLoader) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search interactively, one query per line",
		Long: `Reads queries from stdin, one per line. A query is only sent once typing
has paused for the debounce delay, and results for a query that has been
superseded are never shown.`,
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			return runProductSearch(cmd, env, cmd.InOrStdin(), delay)
		}),
	}

	cmd.Flags().DurationVar(&delay, "debounce", search.DefaultDelay, "Quiet period before a query is sent")

	return cmd
}

func runProductSearch(cmd *cobra.Command, env *Env, in io.Reader, delay time.Duration) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results := make(chan search.Result[[]services.Product], 8)
	d := search.New(ctx, delay,
		func(ctx context.Context, q string) ([]services.Product, error) {
			return env.Service.GetProducts(ctx, services.ListParams{Search: q})
		},
		func(r search.Result[[]services.Product]) {
			select {
			case results <- r:
			default:
			}
		},
	)
	defer d.Close()

	lines := readLines(ctx, in)

	var last, shown uint64
	inputDone := false
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				inputDone = true
				lines = nil
				if last == shown {
					return nil
				}
				continue
			}
			if line != "" {
				last = d.Input(line)
			}

		case r := <-results:
			shown = r.Generation
			if r.Err == nil {
				fmt.Fprintf(env.Out, "Results for %q:\n", r.Query)
				if err := printProducts(env.Out, r.Value); err != nil {
					return err
				}
			}
			if inputDone && shown == last {
				return r.Err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readLines streams trimmed lines of in until EOF or until ctx is done
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func printProducts(out io.Writer, products []services.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(out, "No products found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tRX")
	fmt.Fprintln(w, "──\t────\t────────\t─────\t─────\t──")
	for _, p := range products {
		rx := ""
		if p.RequiresPrescription {
			rx = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			p.Name,
			orDash(p.Category),
			money(p.Price),
			count(p.Stock),
			rx,
		)
	}
	return w.Flush()
}
