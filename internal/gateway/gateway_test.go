package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/apierr"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/session"
)

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type fixture struct {
	gw       *Gateway
	store    *session.Store
	kv       *session.MemoryKV
	jar      *session.FileCookies
	notes    *notify.Recorder
	nav      *recordingNavigator
	requests []*http.Request
	mu       sync.Mutex
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	f := &fixture{
		kv:    session.NewMemoryKV(),
		jar:   session.NewFileCookies(filepath.Join(t.TempDir(), "cookies.json")),
		notes: &notify.Recorder{},
		nav:   &recordingNavigator{},
	}
	f.store = session.NewStore(session.NewLocalBackend(f.kv), session.NewCookieBackend(f.jar))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r)
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, f.store)
	require.NoError(t, err)

	f.gw = New(client, NewHandler(HandlerOptions{
		Sessions:  f.store,
		Notifier:  f.notes,
		Navigator: f.nav,
		Logger:    zerolog.Nop(),
	}))

	require.NoError(t, f.store.Set(context.Background(), session.Session{
		Token: "live-token", Role: session.RoleUser, UserID: 9,
	}))

	return f
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fixture) assertSessionIntact(t *testing.T) {
	t.Helper()
	got, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-token", got.Token)
}

func TestGateway_UnauthorizedClearsSessionAndNavigates(t *testing.T) {
	f := newFixture(t, respond(http.StatusUnauthorized, `{"message":"Token expired"}`))

	err := f.gw.Get(context.Background(), "/orders", nil)

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.Unauthorized), "error must be rethrown unchanged")

	assert.Equal(t, "Bearer live-token", f.requests[0].Header.Get("Authorization"))

	assert.False(t, f.store.IsAuthenticated(context.Background()))
	assert.Equal(t, 0, f.kv.Len())
	for _, name := range []string{session.CookieToken, session.CookieRole, session.CookieUserID} {
		_, found, err := f.jar.Get(name)
		require.NoError(t, err)
		assert.False(t, found, name)
	}

	assert.Equal(t, []notify.Notification{notify.Error(MsgSessionExpired)}, f.notes.All())
	assert.Equal(t, []string{"/auth/login"}, f.nav.all())
}

func TestGateway_MessageOverrideKeepsSideEffects(t *testing.T) {
	f := newFixture(t, respond(http.StatusUnauthorized, `{"message":"Invalid credentials"}`))

	ctx := WithMessage(context.Background(), apierr.Unauthorized, "Wrong password.")
	ctx = WithMessage(ctx, apierr.Forbidden, "unused")
	err := f.gw.Post(ctx, "/auth/login", map[string]string{"email": "a@b.c"}, nil)

	require.True(t, apierr.IsKind(err, apierr.Unauthorized))
	assert.Equal(t, []notify.Notification{notify.Error("Wrong password.")}, f.notes.All())
	assert.Equal(t, []string{"/auth/login"}, f.nav.all())
	assert.False(t, f.store.IsAuthenticated(context.Background()))

	// The override is scoped to its context
	f.notes.Drain()
	_ = f.gw.Get(context.Background(), "/orders", nil)
	assert.Equal(t, []notify.Notification{notify.Error(MsgSessionExpired)}, f.notes.All())
}

func TestGateway_ConcurrentUnauthorizedIsIdempotent(t *testing.T) {
	f := newFixture(t, respond(http.StatusUnauthorized, ``))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.gw.Get(context.Background(), "/orders", nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, apierr.IsKind(err, apierr.Unauthorized))
	}
	assert.False(t, f.store.IsAuthenticated(context.Background()))
	for _, route := range f.nav.all() {
		assert.Equal(t, "/auth/login", route)
	}
}

func TestGateway_ValidationFieldErrorsOnePerMessage(t *testing.T) {
	body := `{"message":"invalid","errors":{
		"email":["The email has already been taken."],
		"password":["The password must be at least 8 characters."],
		"date_of_birth":["You must be 18 or older."]
	}}`
	f := newFixture(t, respond(http.StatusUnprocessableEntity, body))

	err := f.gw.Post(context.Background(), "/auth/register", map[string]string{"email": "x"}, nil)
	assert.True(t, apierr.IsKind(err, apierr.ValidationFailed))

	assert.Equal(t, []notify.Notification{
		notify.Error("The email has already been taken."),
		notify.Error("The password must be at least 8 characters."),
		notify.Error("You must be 18 or older."),
	}, f.notes.All())
	assert.Empty(t, f.nav.all())
	f.assertSessionIntact(t)
}

func TestGateway_ValidationWithoutFieldMap(t *testing.T) {
	f := newFixture(t, respond(http.StatusUnprocessableEntity, `{"message":"invalid"}`))

	_ = f.gw.Put(context.Background(), "/orders/1", map[string]string{}, nil)

	assert.Equal(t, []notify.Notification{notify.Error(MsgValidation)}, f.notes.All())
}

func TestGateway_SingleToastCategories(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   apierr.Kind
		msg    string
	}{
		{name: "forbidden", status: http.StatusForbidden, kind: apierr.Forbidden, msg: MsgForbidden},
		{name: "not found", status: http.StatusNotFound, kind: apierr.NotFound, msg: MsgNotFound},
		{name: "server error", status: http.StatusInternalServerError, kind: apierr.ServerError, msg: MsgServerError},
		{name: "other", status: http.StatusConflict, kind: apierr.Unclassified, msg: MsgUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, respond(tt.status, `{}`))

			err := f.gw.Delete(context.Background(), "/addresses/3", nil)

			assert.True(t, apierr.IsKind(err, tt.kind))
			assert.Equal(t, []notify.Notification{notify.Error(tt.msg)}, f.notes.All())
			assert.Empty(t, f.nav.all())
			f.assertSessionIntact(t)
		})
	}
}

func TestGateway_NetworkFailure(t *testing.T) {
	store := session.NewStore(
		session.NewLocalBackend(session.NewMemoryKV()),
		session.NewCookieBackend(session.NewFileCookies(filepath.Join(t.TempDir(), "c.json"))),
	)
	require.NoError(t, store.Set(context.Background(), session.Session{Token: "t", Role: session.RoleAdmin, UserID: 1}))

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := api.New(base, store)
	require.NoError(t, err)

	notes := &notify.Recorder{}
	nav := &recordingNavigator{}
	gw := New(client, NewHandler(HandlerOptions{Sessions: store, Notifier: notes, Navigator: nav}))

	err = gw.Get(context.Background(), "/products", nil)

	assert.True(t, apierr.IsKind(err, apierr.NetworkFailure))
	assert.Equal(t, []notify.Notification{notify.Error(MsgNetwork)}, notes.All())
	assert.Empty(t, nav.all())

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", got.Token)
}

func TestGateway_SuccessHasNoSideEffects(t *testing.T) {
	f := newFixture(t, respond(http.StatusOK, `{"data":[]}`))

	var out api.List[struct {
		ID int64 `json:"id"`
	}]
	require.NoError(t, f.gw.Get(context.Background(), "/products", &out))

	assert.Empty(t, f.notes.All())
	assert.Empty(t, f.nav.all())
	f.assertSessionIntact(t)
}

func TestGateway_DecodeErrorNotifiesOnce(t *testing.T) {
	f := newFixture(t, respond(http.StatusOK, `{"data":null}`))

	var out api.List[struct {
		ID int64 `json:"id"`
	}]
	err := f.gw.Get(context.Background(), "/products", &out)

	var decodeErr *api.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, []notify.Notification{notify.Error(MsgUnexpectedResponse)}, f.notes.All())
}

func TestGateway_CanceledRequestIsSilent(t *testing.T) {
	f := newFixture(t, respond(http.StatusOK, `{}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.gw.Get(ctx, "/products", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.notes.All())
	f.assertSessionIntact(t)
}

func TestHandler_NilAndForeignErrors(t *testing.T) {
	notes := &notify.Recorder{}
	h := NewHandler(HandlerOptions{Notifier: notes})

	assert.NoError(t, h.Handle(context.Background(), nil))

	plain := errors.New("boom")
	assert.Same(t, plain, h.Handle(context.Background(), plain))
	assert.Empty(t, notes.All())
}
