package web

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// listQuery is the query string list pages accept
type listQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Role     string `form:"role"`
	Category string `form:"category"`
}

func (q listQuery) params() services.ListParams {
	return services.ListParams{
		Page:     q.Page,
		PerPage:  q.PerPage,
		Search:   q.Search,
		Status:   q.Status,
		Role:     q.Role,
		Category: q.Category,
	}
}

func bindList(p *page, name string) (services.ListParams, bool) {
	var q listQuery
	if err := p.c.ShouldBindQuery(&q); err != nil {
		p.fail(name, err)
		return services.ListParams{}, false
	}
	return q.params(), true
}

func paramID(p *page, name string) (int64, bool) {
	id, err := strconv.ParseInt(p.c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		p.fail(name, &services.InputError{Field: "id", Message: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) listProducts(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "products")
	if !ok {
		return
	}

	products, err := p.svc.GetProducts(c.Request.Context(), params)
	if err != nil {
		p.fail("products", err)
		return
	}
	p.render(http.StatusOK, "products", products)
}

func (s *Server) getProduct(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "product")
	if !ok {
		return
	}

	product, err := p.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		p.fail("product", err)
		return
	}
	p.render(http.StatusOK, "product", product)
}

func (s *Server) dashboard(c *gin.Context) {
	p := pageFrom(c)
	ctx := c.Request.Context()

	user, err := p.svc.Profile(ctx)
	if err != nil {
		p.fail("dashboard", err)
		return
	}
	orders, err := p.svc.GetMyOrders(ctx, services.ListParams{PerPage: 5})
	if err != nil {
		p.fail("dashboard", err)
		return
	}

	p.render(http.StatusOK, "dashboard", gin.H{
		"profile":       user,
		"recent_orders": orders,
	})
}

func (s *Server) myOrders(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "orders")
	if !ok {
		return
	}

	orders, err := p.svc.GetMyOrders(c.Request.Context(), params)
	if err != nil {
		p.fail("orders", err)
		return
	}
	p.render(http.StatusOK, "orders", orders)
}

func (s *Server) getOrder(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "order")
	if !ok {
		return
	}

	order, err := p.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		p.fail("order", err)
		return
	}
	p.render(http.StatusOK, "order", order)
}

func (s *Server) createOrder(c *gin.Context) {
	p := pageFrom(c)

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		p.fail("checkout", err)
		return
	}

	order, err := p.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		p.fail("checkout", err)
		return
	}

	p.notes.Notify(notify.Success("Order placed successfully."))
	p.render(http.StatusCreated, "order", order)
}

func (s *Server) cancelOrder(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "order")
	if !ok {
		return
	}

	order, err := p.svc.CancelOrder(c.Request.Context(), id)
	if err != nil {
		p.fail("order", err)
		return
	}

	p.notes.Notify(notify.Success("Order cancelled."))
	p.render(http.StatusOK, "order", order)
}

func (s *Server) myTickets(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "tickets")
	if !ok {
		return
	}

	tickets, err := p.svc.GetMyTickets(c.Request.Context(), params)
	if err != nil {
		p.fail("tickets", err)
		return
	}
	p.render(http.StatusOK, "tickets", tickets)
}

func (s *Server) getTicket(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "ticket")
	if !ok {
		return
	}

	ticket, err := p.svc.GetTicket(c.Request.Context(), id)
	if err != nil {
		p.fail("ticket", err)
		return
	}
	p.render(http.StatusOK, "ticket", ticket)
}

// createTicket forwards a browser multipart form, attachments included
func (s *Server) createTicket(c *gin.Context) {
	p := pageFrom(c)

	in := services.NewTicket{
		Subject:  c.PostForm("subject"),
		Message:  c.PostForm("message"),
		Priority: c.PostForm("priority"),
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["attachments"] {
			f, err := openUpload(fh)
			if err != nil {
				p.fail("new-ticket", err)
				return
			}
			defer f.Close()
			in.Attachments = append(in.Attachments, api.FormFile{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Content:     f,
			})
		}
	}

	ticket, err := p.svc.CreateTicket(c.Request.Context(), in)
	if err != nil {
		p.fail("new-ticket", err)
		return
	}

	p.notes.Notify(notify.Success("Ticket submitted. Our team will get back to you."))
	p.render(http.StatusCreated, "ticket", ticket)
}

type replyForm struct {
	Message string `form:"message" json:"message" binding:"required"`
}

func (s *Server) replyTicket(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "ticket")
	if !ok {
		return
	}

	var form replyForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("ticket", err)
		return
	}

	reply, err := p.svc.ReplyTicket(c.Request.Context(), id, form.Message)
	if err != nil {
		p.fail("ticket", err)
		return
	}
	p.render(http.StatusCreated, "ticket-reply", reply)
}

func (s *Server) questionnaire(c *gin.Context) {
	p := pageFrom(c)

	q, err := p.svc.GetQuestionnaire(c.Request.Context())
	if err != nil {
		p.fail("questionnaire", err)
		return
	}
	p.render(http.StatusOK, "questionnaire", q)
}

func (s *Server) submitQuestionnaire(c *gin.Context) {
	p := pageFrom(c)

	var sub services.QuestionnaireSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		p.fail("questionnaire", err)
		return
	}

	if err := p.svc.SubmitQuestionnaire(c.Request.Context(), sub); err != nil {
		p.fail("questionnaire", err)
		return
	}

	p.notes.Notify(notify.Success("Questionnaire submitted."))
	p.redirect(CustomerHome)
}

func (s *Server) addresses(c *gin.Context) {
	p := pageFrom(c)

	addrs, err := p.svc.GetAddresses(c.Request.Context())
	if err != nil {
		p.fail("addresses", err)
		return
	}
	p.render(http.StatusOK, "addresses", addrs)
}

func (s *Server) createAddress(c *gin.Context) {
	p := pageFrom(c)

	var addr services.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		p.fail("addresses", err)
		return
	}

	created, err := p.svc.CreateAddress(c.Request.Context(), addr)
	if err != nil {
		p.fail("addresses", err)
		return
	}
	p.render(http.StatusCreated, "address", created)
}

func (s *Server) deleteAddress(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "addresses")
	if !ok {
		return
	}

	if err := p.svc.DeleteAddress(c.Request.Context(), id); err != nil {
		p.fail("addresses", err)
		return
	}
	p.notes.Notify(notify.Success("Address removed."))
	p.render(http.StatusOK, "addresses", nil)
}

func openUpload(fh *multipart.FileHeader) (io.ReadCloser, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, &services.InputError{Field: fh.Filename, Message: "could not be read"}
	}
	return f, nil
}
