package commands

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/services"
)

const maxAttachmentSize = 10 << 20 // 10MB

// NewTicketsCmd creates the tickets command group
func NewTicketsCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Contact support",
	}
	cmd.AddCommand(newTicketsListCmd(load), newTicketsCreateCmd(load))
	return cmd
}

func newTicketsListCmd(load EnvLoader) *cobra.Command {
	var params services.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your support tickets",
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			tickets, err := env.Service.GetMyTickets(cmd.Context(), params)
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Fprintln(env.Out, "No tickets found.")
				return nil
			}
			return printTickets(env.Out, tickets)
		}),
	}

	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status")

	return cmd
}

func newTicketsCreateCmd(load EnvLoader) *cobra.Command {
	var (
		in      services.NewTicket
		attachs []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a support ticket",
		RunE: guarded(load, guard.RequireUser, func(cmd *cobra.Command, args []string, env *Env) error {
			for _, path := range attachs {
				f, err := openAttachment(env.Out, path)
				if err != nil {
					return err
				}
				defer f.Close()

				in.Attachments = append(in.Attachments, api.FormFile{
					Filename:    filepath.Base(path),
					ContentType: mime.TypeByExtension(filepath.Ext(path)),
					Content:     f,
				})
			}

			ticket, err := env.Service.CreateTicket(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Ticket #%d opened: %s\n", ticket.ID, ticket.Subject)
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&in.Message, "message", "", "Describe the problem")
	cmd.Flags().StringVar(&in.Priority, "priority", "", "low, medium or high (default medium)")
	cmd.Flags().StringArrayVar(&attachs, "attach", nil, "File to attach (repeatable)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func openAttachment(out io.Writer, path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if info.Size() > maxAttachmentSize {
		return nil, fmt.Errorf("attachment %s is %s, the limit is %s",
			filepath.Base(path), humanize.Bytes(uint64(info.Size())), humanize.Bytes(maxAttachmentSize))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	fmt.Fprintf(out, "Attaching %s (%s)\n", filepath.Base(path), humanize.Bytes(uint64(info.Size())))
	return f, nil
}

func printTickets(out io.Writer, tickets []services.Ticket) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tSUBJECT\tSTATUS\tPRIORITY\tOPENED")
	fmt.Fprintln(w, "──\t───────\t──────\t────────\t──────")
	for _, t := range tickets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Subject,
			t.Status,
			orDash(t.Priority),
			ago(t.CreatedAt),
		)
	}
	return w.Flush()
}
