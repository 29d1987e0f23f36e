package services

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
)

var (
	ticketStatuses   = []string{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}
	ticketPriorities = []string{"low", "medium", "high"}
)

// NewTicket is the support ticket form. Attachments are uploaded with it.
type NewTicket struct {
	Subject     string
	Message     string
	Priority    string // defaults to medium
	Attachments []api.FormFile
}

// CreateTicket opens a support ticket as a multipart form
func (s *Service) CreateTicket(ctx context.Context, in NewTicket) (*Ticket, error) {
	if in.Subject == "" {
		return nil, &InputError{Field: "subject", Message: "is required"}
	}
	if in.Message == "" {
		return nil, &InputError{Field: "message", Message: "is required"}
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if err := oneOf("priority", in.Priority, ticketPriorities...); err != nil {
		return nil, err
	}

	body := api.NewMultipart().
		Field("subject", in.Subject).
		Field("message", in.Message).
		Field("priority", in.Priority)
	for _, f := range in.Attachments {
		f.Field = "attachments[]"
		body.File(f)
	}

	var resp api.Envelope[Ticket]
	if err := s.gw.Post(ctx, "/tickets", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetMyTickets lists the current user's tickets
func (s *Service) GetMyTickets(ctx context.Context, params ListParams) ([]Ticket, error) {
	var resp api.List[Ticket]
	if err := s.gw.Get(ctx, "/tickets/my", &resp, params.option()); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTicket returns one ticket with its replies
func (s *Service) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	var resp api.Envelope[Ticket]
	if err := s.gw.Get(ctx, idPath("/tickets/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type replyRequest struct {
	Message string `json:"message"`
}

// ReplyTicket appends a reply to a ticket thread
func (s *Service) ReplyTicket(ctx context.Context, id int64, message string) (*TicketReply, error) {
	if message == "" {
		return nil, &InputError{Field: "message", Message: "is required"}
	}

	var resp api.Envelope[TicketReply]
	if err := s.gw.Post(ctx, idPath("/tickets/%d/replies", id), replyRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetAllTickets lists every ticket with summary totals (admin)
func (s *Service) GetAllTickets(ctx context.Context, params ListParams) (*TicketPage, error) {
	var resp api.Envelope[TicketPage]
	if err := s.gw.Get(ctx, "/admin/tickets", &resp, params.option()); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateTicketStatus moves a ticket to another status (admin)
func (s *Service) UpdateTicketStatus(ctx context.Context, id int64, status string) (*Ticket, error) {
	if err := oneOf("status", status, ticketStatuses...); err != nil {
		return nil, err
	}

	var resp api.Envelope[Ticket]
	if err := s.gw.Put(ctx, idPath("/admin/tickets/%d/status", id), statusUpdate{Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
