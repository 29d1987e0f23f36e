package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/apierr"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
	"github.com/carepoint-rx/carepoint/internal/session"
)

const (
	pageKey         = "page"
	flashCookieName = "cp-flash"
)

// page is the per-request view of the access layer: the browser's session
// store, the services bound to it, and the side-effect sinks the gateway
// handler writes to.
type page struct {
	c      *gin.Context
	store  *session.Store
	svc    *services.Service
	notes  *notify.Recorder
	nav    *navigator
	flash  []notify.Notification
	secure bool

	// set by RequireRole
	guard *guard.Guard
}

func pageFrom(c *gin.Context) *page {
	v, ok := c.Get(pageKey)
	if !ok {
		panic("web: page context missing; sessionMiddleware not installed")
	}
	return v.(*page)
}

// navigator records the route the gateway handler asked for. The page is
// redirected there instead of rendering once the handler returns.
type navigator struct {
	mu     sync.Mutex
	target string
}

func (n *navigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = route
}

func (n *navigator) Target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// sessionView is the part of the session pages may display
type sessionView struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

func (p *page) viewer() *sessionView {
	var sess *session.Session
	if p.guard != nil {
		sess = p.guard.Session()
	}
	if sess == nil {
		sess, _ = p.store.Get(p.c.Request.Context())
	}
	if sess == nil {
		return nil
	}
	return &sessionView{UserID: sess.UserID, Role: string(sess.Role), Name: sess.Name, Email: sess.Email}
}

func (p *page) notifications() []notify.Notification {
	out := append([]notify.Notification{}, p.flash...)
	p.flash = nil
	return append(out, p.notes.Drain()...)
}

// render writes the page's JSON view model
func (p *page) render(status int, name string, data any) {
	p.c.JSON(status, gin.H{
		"page":          name,
		"user":          p.viewer(),
		"data":          data,
		"notifications": p.notifications(),
	})
}

// redirect sends the browser to route with pending notifications carried
// over in the flash cookie
func (p *page) redirect(route string) {
	if notes := p.notifications(); len(notes) > 0 {
		if value, err := encodeFlash(notes); err == nil {
			http.SetCookie(p.c.Writer, &http.Cookie{
				Name:     flashCookieName,
				Value:    value,
				Path:     "/",
				Secure:   p.secure,
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}
	}
	p.c.Redirect(http.StatusSeeOther, route)
	p.c.Abort()
}

// fail finishes a request whose service call failed. The gateway handler
// has already produced the user-facing notifications; a navigation it
// requested wins over rendering.
func (p *page) fail(name string, err error) {
	if target := p.nav.Target(); target != "" {
		p.redirect(target)
		return
	}

	var inputErr *services.InputError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &inputErr):
		p.notes.Notify(notify.Error(inputErr.Error()))
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			p.notes.Notify(notify.Error(fe.Field() + " is invalid"))
		}
	}

	p.c.JSON(statusFor(err), gin.H{
		"page":          name,
		"user":          p.viewer(),
		"error":         err.Error(),
		"notifications": p.notifications(),
	})
	p.c.Abort()
}

func statusFor(err error) int {
	if e, ok := apierr.As(err); ok {
		switch e.Kind {
		case apierr.Unauthorized:
			return http.StatusUnauthorized
		case apierr.Forbidden:
			return http.StatusForbidden
		case apierr.NotFound:
			return http.StatusNotFound
		case apierr.ValidationFailed:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	}

	var decodeErr *api.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func encodeFlash(notes []notify.Notification) (string, error) {
	data, err := json.Marshal(notes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeFlash(value string) []notify.Notification {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var notes []notify.Notification
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil
	}
	return notes
}
