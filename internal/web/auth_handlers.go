package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// Landing pages after login
const (
	AdminHome    = "/admin"
	CustomerHome = "/dashboard"
)

// LoginForm represents a login request
type LoginForm struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

// RegisterForm represents a registration request
type RegisterForm struct {
	Name                 string `form:"name" json:"name" binding:"required"`
	Email                string `form:"email" json:"email" binding:"required,email"`
	Password             string `form:"password" json:"password" binding:"required,min=8"`
	PasswordConfirmation string `form:"password_confirmation" json:"password_confirmation" binding:"required,eqfield=Password"`
	Phone                string `form:"phone" json:"phone"`
	DateOfBirth          string `form:"date_of_birth" json:"date_of_birth"`
}

func homeFor(sess *session.Session) string {
	if session.IsAdmin(sess) {
		return AdminHome
	}
	return CustomerHome
}

func (s *Server) loginPage(c *gin.Context) {
	p := pageFrom(c)
	_, err := p.store.Get(c.Request.Context())
	p.render(http.StatusOK, "login", gin.H{
		"authenticated": err == nil,
	})
}

func (s *Server) login(c *gin.Context) {
	p := pageFrom(c)

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("login", err)
		return
	}

	sess, err := p.svc.Login(c.Request.Context(), services.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		p.fail("login", err)
		return
	}

	p.notes.Notify(notify.Success("Welcome back!"))
	p.redirect(homeFor(sess))
}

func (s *Server) register(c *gin.Context) {
	p := pageFrom(c)

	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail("register", err)
		return
	}

	_, err := p.svc.Register(c.Request.Context(), services.RegisterRequest{
		Name:                 form.Name,
		Email:                form.Email,
		Password:             form.Password,
		PasswordConfirmation: form.PasswordConfirmation,
		Phone:                form.Phone,
		DateOfBirth:          form.DateOfBirth,
	})
	if err != nil {
		p.fail("register", err)
		return
	}

	p.notes.Notify(notify.Success("Account created. Please log in."))
	p.redirect(gateway.LoginRoute)
}

func (s *Server) logout(c *gin.Context) {
	p := pageFrom(c)

	if err := p.svc.Logout(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session on logout")
	}

	p.notes.Notify(notify.Success("You have been logged out."))
	p.redirect(gateway.LoginRoute)
}

func (s *Server) profile(c *gin.Context) {
	p := pageFrom(c)

	user, err := p.svc.Profile(c.Request.Context())
	if err != nil {
		p.fail("profile", err)
		return
	}
	p.render(http.StatusOK, "profile", user)
}
