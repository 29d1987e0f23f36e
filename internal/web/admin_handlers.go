package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
	"github.com/carepoint-rx/carepoint/internal/session"
)

type roleForm struct {
	Role string `form:"role" json:"role" binding:"required,oneof=admin user"`
}

type statusForm struct {
	Status string `form:"status" json:"status" binding:"required"`
}

// adminDashboard shows the summary totals of every admin list
func (s *Server) adminDashboard(c *gin.Context) {
	p := pageFrom(c)
	ctx := c.Request.Context()
	first := services.ListParams{Page: 1, PerPage: 1}

	users, err := p.svc.GetAllUsers(ctx, first)
	if err != nil {
		p.fail("admin", err)
		return
	}
	orders, err := p.svc.GetAllOrders(ctx, first)
	if err != nil {
		p.fail("admin", err)
		return
	}
	tickets, err := p.svc.GetAllTickets(ctx, first)
	if err != nil {
		p.fail("admin", err)
		return
	}

	p.render(http.StatusOK, "admin", gin.H{
		"users":   users.Totals,
		"orders":  orders.Totals,
		"tickets": tickets.Totals,
	})
}

func (s *Server) adminUsers(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "admin-users")
	if !ok {
		return
	}

	users, err := p.svc.GetAllUsers(c.Request.Context(), params)
	if err != nil {
		p.fail("admin-users", err)
		return
	}
	p.render(http.StatusOK, "admin-users", users)
}

func (s *Server) adminUser(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-user")
	if !ok {
		return
	}

	user, err := p.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		p.fail("admin-user", err)
		return
	}
	p.render(http.StatusOK, "admin-user", user)
}

func (s *Server) adminUpdateUserRole(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-user")
	if !ok {
		return
	}

	var form roleForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("admin-user", err)
		return
	}

	user, err := p.svc.UpdateUserRole(c.Request.Context(), id, session.Role(form.Role))
	if err != nil {
		p.fail("admin-user", err)
		return
	}

	p.notes.Notify(notify.Success("User role updated."))
	p.render(http.StatusOK, "admin-user", user)
}

func (s *Server) adminDeleteUser(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-users")
	if !ok {
		return
	}

	if err := p.svc.DeleteUser(c.Request.Context(), id); err != nil {
		p.fail("admin-users", err)
		return
	}

	p.notes.Notify(notify.Success("User deleted."))
	p.render(http.StatusOK, "admin-users", nil)
}

func (s *Server) adminOrders(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "admin-orders")
	if !ok {
		return
	}

	orders, err := p.svc.GetAllOrders(c.Request.Context(), params)
	if err != nil {
		p.fail("admin-orders", err)
		return
	}
	p.render(http.StatusOK, "admin-orders", orders)
}

func (s *Server) adminUpdateOrderStatus(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-orders")
	if !ok {
		return
	}

	var form statusForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("admin-orders", err)
		return
	}

	order, err := p.svc.UpdateOrderStatus(c.Request.Context(), id, form.Status)
	if err != nil {
		p.fail("admin-orders", err)
		return
	}

	p.notes.Notify(notify.Success("Order status updated."))
	p.render(http.StatusOK, "admin-order", order)
}

func (s *Server) adminProducts(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "admin-products")
	if !ok {
		return
	}

	products, err := p.svc.GetProducts(c.Request.Context(), params)
	if err != nil {
		p.fail("admin-products", err)
		return
	}
	p.render(http.StatusOK, "admin-products", products)
}

func (s *Server) adminCreateProduct(c *gin.Context) {
	p := pageFrom(c)

	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		p.fail("admin-products", err)
		return
	}

	product, err := p.svc.CreateProduct(c.Request.Context(), in)
	if err != nil {
		p.fail("admin-products", err)
		return
	}

	p.notes.Notify(notify.Success("Product created."))
	p.render(http.StatusCreated, "admin-product", product)
}

func (s *Server) adminUpdateProduct(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-product")
	if !ok {
		return
	}

	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		p.fail("admin-product", err)
		return
	}

	product, err := p.svc.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		p.fail("admin-product", err)
		return
	}

	p.notes.Notify(notify.Success("Product updated."))
	p.render(http.StatusOK, "admin-product", product)
}

func (s *Server) adminDeleteProduct(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-products")
	if !ok {
		return
	}

	if err := p.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		p.fail("admin-products", err)
		return
	}

	p.notes.Notify(notify.Success("Product deleted."))
	p.render(http.StatusOK, "admin-products", nil)
}

func (s *Server) adminUploadProductImage(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-product")
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		p.fail("admin-product", &services.InputError{Field: "image", Message: "is required"})
		return
	}
	f, err := openUpload(fh)
	if err != nil {
		p.fail("admin-product", err)
		return
	}
	defer f.Close()

	product, err := p.svc.UploadProductImage(c.Request.Context(), id, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		p.fail("admin-product", err)
		return
	}

	p.notes.Notify(notify.Success("Product image uploaded."))
	p.render(http.StatusOK, "admin-product", product)
}

func (s *Server) adminTickets(c *gin.Context) {
	p := pageFrom(c)
	params, ok := bindList(p, "admin-tickets")
	if !ok {
		return
	}

	tickets, err := p.svc.GetAllTickets(c.Request.Context(), params)
	if err != nil {
		p.fail("admin-tickets", err)
		return
	}
	p.render(http.StatusOK, "admin-tickets", tickets)
}

func (s *Server) adminUpdateTicketStatus(c *gin.Context) {
	p := pageFrom(c)
	id, ok := paramID(p, "admin-tickets")
	if !ok {
		return
	}

	var form statusForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("admin-tickets", err)
		return
	}

	ticket, err := p.svc.UpdateTicketStatus(c.Request.Context(), id, form.Status)
	if err != nil {
		p.fail("admin-tickets", err)
		return
	}

	p.notes.Notify(notify.Success("Ticket status updated."))
	p.render(http.StatusOK, "admin-ticket", ticket)
}
