package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// SessionIDCookie identifies a browser's slice of the server-side store
const SessionIDCookie = "cp-sid"

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// sessionMiddleware builds the request's session store and services.
// The local half lives in the server-side KV under the browser's id, the
// cookie half in the request's own cookies.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := s.browserID(c)

		primary := session.NewLocalBackend(session.Prefixed(s.kv, sid+":"))
		cookieOpts := []session.CookieOption{}
		if s.config.Web.InsecureCookies {
			cookieOpts = append(cookieOpts, session.WithInsecureCookies())
		}
		secondary := session.NewCookieBackend(session.NewHTTPCookies(c.Writer, c.Request), cookieOpts...)

		store := session.NewStore(primary, secondary, session.WithLogger(s.logger))

		p := &page{
			c:      c,
			store:  store,
			notes:  &notify.Recorder{},
			nav:    &navigator{},
			secure: !s.config.Web.InsecureCookies,
		}

		if v, err := c.Cookie(flashCookieName); err == nil && v != "" {
			p.flash = decodeFlash(v)
			http.SetCookie(c.Writer, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})
		}

		handler := gateway.NewHandler(gateway.HandlerOptions{
			Sessions:  store,
			Notifier:  p.notes,
			Navigator: p.nav,
			Logger:    s.logger,
		})
		gw := gateway.New(s.client.WithTokens(store), handler)
		p.svc = services.New(gw, store, services.WithLogger(s.logger))

		c.Set(pageKey, p)
		c.Next()
	}
}

// browserID returns the request's browser id, issuing a new one when the
// cookie is missing or not a ULID
func (s *Server) browserID(c *gin.Context) string {
	if v, err := c.Cookie(SessionIDCookie); err == nil {
		if id, err := ulid.ParseStrict(v); err == nil {
			return id.String()
		}
	}

	id := ulid.Make().String()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionIDCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(session.DefaultTTL.Seconds()),
		Secure:   !s.config.Web.InsecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return id
}

// RequireRole guards a route group. The guard is evaluated once per
// request; a visitor who does not satisfy it is sent to the login page.
func RequireRole(req guard.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pageFrom(c)

		g := guard.New(req, gateway.LoginRoute)
		if g.Check(c.Request.Context(), p.store) != guard.Authorized {
			p.redirect(g.Redirect())
			return
		}

		p.guard = g
		c.Next()
	}
}
