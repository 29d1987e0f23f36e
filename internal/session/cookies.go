package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Cookie names
const (
	CookieToken  = "auth-token"
	CookieRole   = "user-role"
	CookieUserID = "user-id"
)

var cookieNames = []string{CookieToken, CookieRole, CookieUserID}

// Cookies is a cookie jar. A cookie with MaxAge < 0 deletes the entry.
type Cookies interface {
	Get(name string) (value string, found bool, err error)
	Set(c *http.Cookie) error
}

// CookieBackend keeps the token, role and user id in three cookies.
type CookieBackend struct {
	jar    Cookies
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// CookieOption configures a CookieBackend
type CookieOption func(*CookieBackend)

// WithTTL overrides the cookie lifetime
func WithTTL(ttl time.Duration) CookieOption {
	return func(b *CookieBackend) {
		b.ttl = ttl
	}
}

// WithInsecureCookies drops the Secure attribute (plain-HTTP development only)
func WithInsecureCookies() CookieOption {
	return func(b *CookieBackend) {
		b.secure = false
	}
}

// WithClock sets the time source used for cookie expiry
func WithClock(now func() time.Time) CookieOption {
	return func(b *CookieBackend) {
		b.now = now
	}
}

// NewCookieBackend creates a cookie backend over jar
func NewCookieBackend(jar Cookies, opts ...CookieOption) *CookieBackend {
	b := &CookieBackend{
		jar:    jar,
		ttl:    DefaultTTL,
		secure: true,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *CookieBackend) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  b.now().Add(b.ttl),
		MaxAge:   int(b.ttl.Seconds()),
		Secure:   b.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// Load implements Backend
func (b *CookieBackend) Load(_ context.Context) (*Session, error) {
	values := make(map[string]string, len(cookieNames))
	for _, name := range cookieNames {
		v, found, err := b.jar.Get(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookie %s: %w", name, err)
		}
		if !found || v == "" {
			return nil, fmt.Errorf("%w: cookie %s missing", ErrNoSession, name)
		}
		values[name] = v
	}

	role, ok := ParseRole(values[CookieRole])
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrNoSession, values[CookieRole])
	}

	id, err := strconv.ParseInt(values[CookieUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id: %v", ErrNoSession, err)
	}

	return &Session{
		Token:  values[CookieToken],
		Role:   role,
		UserID: id,
	}, nil
}

// Save implements Backend
func (b *CookieBackend) Save(_ context.Context, s Session) error {
	for _, c := range []*http.Cookie{
		b.cookie(CookieToken, s.Token),
		b.cookie(CookieRole, string(s.Role)),
		b.cookie(CookieUserID, strconv.FormatInt(s.UserID, 10)),
	} {
		if err := b.jar.Set(c); err != nil {
			return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
		}
	}
	return nil
}

// Clear implements Backend
func (b *CookieBackend) Clear(_ context.Context) error {
	var errs []error
	for _, name := range cookieNames {
		expired := b.cookie(name, "")
		expired.MaxAge = -1
		expired.Expires = time.Unix(0, 0)
		errs = append(errs, b.jar.Set(expired))
	}
	return errors.Join(errs...)
}

// Token implements Backend
func (b *CookieBackend) Token(_ context.Context) (string, error) {
	v, found, err := b.jar.Get(CookieToken)
	if err != nil {
		return "", err
	}
	if !found || v == "" {
		return "", ErrNoSession
	}
	return v, nil
}

// HTTPCookies is a jar over one HTTP request/response pair. Writes made
// during the request are visible to later reads in the same request.
type HTTPCookies struct {
	w       http.ResponseWriter
	r       *http.Request
	mu      sync.Mutex
	written map[string]*http.Cookie
}

// NewHTTPCookies creates a jar for a single request
func NewHTTPCookies(w http.ResponseWriter, r *http.Request) *HTTPCookies {
	return &HTTPCookies{w: w, r: r, written: make(map[string]*http.Cookie)}
}

// Get implements Cookies
func (h *HTTPCookies) Get(name string) (string, bool, error) {
	h.mu.Lock()
	c, ok := h.written[name]
	h.mu.Unlock()
	if ok {
		if c.MaxAge < 0 {
			return "", false, nil
		}
		return c.Value, true, nil
	}

	rc, err := h.r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", false, nil
		}
		return "", false, err
	}
	return rc.Value, true, nil
}

// Set implements Cookies
func (h *HTTPCookies) Set(c *http.Cookie) error {
	h.mu.Lock()
	h.written[c.Name] = c
	h.mu.Unlock()
	http.SetCookie(h.w, c)
	return nil
}

// fileCookie is one persisted entry of a FileCookies jar
type fileCookie struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// FileCookies is a cookie jar persisted as a JSON file, used by the CLI.
// Expired entries read as missing.
type FileCookies struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileCookies creates a jar stored at path
func NewFileCookies(path string) *FileCookies {
	return &FileCookies{path: path, now: time.Now}
}

func (f *FileCookies) load() (map[string]fileCookie, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]fileCookie{}, nil
		}
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	jar := map[string]fileCookie{}
	if err := json.Unmarshal(data, &jar); err != nil {
		// A corrupt jar behaves like an empty one and is rewritten on next save
		return map[string]fileCookie{}, nil
	}
	return jar, nil
}

func (f *FileCookies) save(jar map[string]fileCookie) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}

	if len(jar) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cookie file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	return nil
}

// Get implements Cookies
func (f *FileCookies) Get(name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	jar, err := f.load()
	if err != nil {
		return "", false, err
	}
	c, ok := jar[name]
	if !ok || !c.Expires.After(f.now()) {
		return "", false, nil
	}
	return c.Value, true, nil
}

// Set implements Cookies
func (f *FileCookies) Set(c *http.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	jar, err := f.load()
	if err != nil {
		return err
	}

	if c.MaxAge < 0 {
		delete(jar, c.Name)
	} else {
		jar[c.Name] = fileCookie{Value: c.Value, Expires: c.Expires}
	}
	return f.save(jar)
}
