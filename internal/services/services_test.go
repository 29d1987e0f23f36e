package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/apierr"
	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/session"
)

type env struct {
	svc   *Service
	store *session.Store
	kv    *session.MemoryKV
	jar   *session.FileCookies
	notes *notify.Recorder
	mux   *http.ServeMux

	mu   sync.Mutex
	hits int
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		kv:    session.NewMemoryKV(),
		jar:   session.NewFileCookies(filepath.Join(t.TempDir(), "cookies.json")),
		notes: &notify.Recorder{},
		mux:   http.NewServeMux(),
	}
	e.store = session.NewStore(session.NewLocalBackend(e.kv), session.NewCookieBackend(e.jar))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.hits++
		e.mu.Unlock()
		e.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL+"/api", e.store)
	require.NoError(t, err)

	handler := gateway.NewHandler(gateway.HandlerOptions{Sessions: e.store, Notifier: e.notes})
	e.svc = New(gateway.New(client, handler), e.store)
	return e
}

func (e *env) requests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits
}

func (e *env) login(t *testing.T, role session.Role) {
	t.Helper()
	require.NoError(t, e.store.Set(context.Background(), session.Session{Token: "tok", Role: role, UserID: 7}))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestLogin_StoresSessionInBothStores(t *testing.T) {
	e := newEnv(t)
	e.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))

		var body LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Email)
		assert.Equal(t, "secret", body.Password)

		writeJSON(w, http.StatusOK, `{"data":{"token":"abc","user":{"id":12,"role":"admin","name":"Ada","email":"ada@example.com"}}}`)
	})

	ctx := context.Background()
	sess, err := e.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, sess.Role)

	assert.True(t, e.store.IsAuthenticated(ctx))
	got, err := e.store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.UserID)
	assert.True(t, session.IsAdmin(got))

	token, found, err := e.jar.Get(session.CookieToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)
}

func TestLogin_RoleFromTokenClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role":    "user",
		"user_id": 31,
	}).SignedString([]byte("not-our-key"))
	require.NoError(t, err)

	e := newEnv(t)
	e.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"token":"`+token+`","user":{"name":"Bo"}}}`)
	})

	sess, err := e.svc.Login(context.Background(), LoginRequest{Email: "bo@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, sess.Role)
	assert.Equal(t, int64(31), sess.UserID)
}

func TestLogin_InvalidInputSendsNothing(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, 0, e.requests())
	assert.Empty(t, e.notes.All())
}

func TestLogin_RejectedCredentials(t *testing.T) {
	e := newEnv(t)
	e.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	})

	_, err := e.svc.Login(context.Background(), LoginRequest{Email: "a@b.co", Password: "wrong"})
	assert.True(t, apierr.IsKind(err, apierr.Unauthorized))
	assert.False(t, e.store.IsAuthenticated(context.Background()))
	assert.Equal(t, []notify.Notification{notify.Error(MsgInvalidCredentials)}, e.notes.All())
}

func TestLogin_MissingTokenIsDecodeError(t *testing.T) {
	e := newEnv(t)
	e.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"user":{"id":1,"role":"user"}}}`)
	})

	_, err := e.svc.Login(context.Background(), LoginRequest{Email: "a@b.co", Password: "pw"})
	var decodeErr *api.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.False(t, e.store.IsAuthenticated(context.Background()))
}

func TestLogout_IsLocalAndIdempotent(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)

	ctx := context.Background()
	require.NoError(t, e.svc.Logout(ctx))
	assert.False(t, e.store.IsAuthenticated(ctx))

	require.NoError(t, e.svc.Logout(ctx))
	assert.False(t, e.store.IsAuthenticated(ctx))
	assert.Equal(t, 0, e.requests())
}

func TestRegister_FieldErrors(t *testing.T) {
	e := newEnv(t)
	e.mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"errors":{"email":["The email has already been taken."],"phone":"The phone format is invalid."}}`)
	})

	_, err := e.svc.Register(context.Background(), RegisterRequest{
		Name:                 "Cy",
		Email:                "cy@example.com",
		Password:             "longenough",
		PasswordConfirmation: "longenough",
		DateOfBirth:          "1990-04-01",
	})
	assert.True(t, apierr.IsKind(err, apierr.ValidationFailed))
	assert.Equal(t, []notify.Notification{
		notify.Error("The email has already been taken."),
		notify.Error("The phone format is invalid."),
	}, e.notes.All())
}

func TestRegister_PasswordMismatch(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Register(context.Background(), RegisterRequest{
		Name: "Cy", Email: "cy@example.com", Password: "longenough", PasswordConfirmation: "different",
	})
	require.Error(t, err)
	assert.Equal(t, 0, e.requests())
}

func TestGetAllUsers_NestedPayload(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "ada", r.URL.Query().Get("search"))
		assert.False(t, r.URL.Query().Has("role"))

		writeJSON(w, http.StatusOK, `{"data":{"users":[{"id":1,"name":"Ada","role":"admin"},{"id":2,"name":"Bo","role":"user"}],"totals":{"total":2,"admins":1,"users":1}}}`)
	})

	page, err := e.svc.GetAllUsers(context.Background(), ListParams{Page: 2, Search: "ada"})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "Bo", page.Users[1].Name)
	assert.Equal(t, UserTotals{Total: 2, Admins: 1, Users: 1}, page.Totals)
}

func TestGetAllUsers_ShapeMismatch(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":1}]}`)
	})

	_, err := e.svc.GetAllUsers(context.Background(), ListParams{})
	var decodeErr *api.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, []notify.Notification{notify.Error(gateway.MsgUnexpectedResponse)}, e.notes.All())
}

func TestUpdateUserRole(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("PUT /api/admin/users/5/role", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"role":"admin"}`, string(body))
		writeJSON(w, http.StatusOK, `{"data":{"id":5,"role":"admin"}}`)
	})

	u, err := e.svc.UpdateUserRole(context.Background(), 5, session.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)

	_, err = e.svc.UpdateUserRole(context.Background(), 5, session.Role("root"))
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, 1, e.requests())
}

func TestDeleteUser_ForbiddenKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("DELETE /api/admin/users/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"message":"Admins only"}`)
	})

	err := e.svc.DeleteUser(context.Background(), 9)
	assert.True(t, apierr.IsKind(err, apierr.Forbidden))
	assert.True(t, e.store.IsAuthenticated(context.Background()))
	assert.Equal(t, []notify.Notification{notify.Error(gateway.MsgForbidden)}, e.notes.All())
}

func TestUploadProductImage_Multipart(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("POST /api/admin/products/4/image", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "box.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))

		writeJSON(w, http.StatusOK, `{"data":{"id":4,"name":"Vitamin D","price":9.5,"image_url":"/img/4.png"}}`)
	})

	p, err := e.svc.UploadProductImage(context.Background(), 4, "box.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/img/4.png", p.ImageURL)
}

func TestGetProducts(t *testing.T) {
	e := newEnv(t)
	e.mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "vitamins", r.URL.Query().Get("category"))
		writeJSON(w, http.StatusOK, `{"data":[{"id":1,"name":"Vitamin C","price":4.25}]}`)
	})

	products, err := e.svc.GetProducts(context.Background(), ListParams{Category: "vitamins"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 4.25, products[0].Price)
}

func TestCreateOrder(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(3), body.AddressID)
		require.Len(t, body.Items, 1)
		writeJSON(w, http.StatusCreated, `{"data":{"id":100,"status":"pending","total":19.98,"items":[{"product_id":1,"quantity":2,"price":9.99}]},"message":"Order placed"}`)
	})

	order, err := e.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items:     []OrderItem{{ProductID: 1, Quantity: 2}},
		AddressID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, OrderPending, order.Status)

	_, err = e.svc.CreateOrder(context.Background(), CreateOrderRequest{AddressID: 3})
	require.Error(t, err)
	assert.Equal(t, 1, e.requests())
}

func TestGetAllOrdersAndStatus(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("GET /api/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shipped", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, `{"data":{"orders":[{"id":1,"status":"shipped"}],"totals":{"total":1,"shipped":1,"revenue":42.5}}}`)
	})
	e.mux.HandleFunc("PUT /api/admin/orders/1/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"id":1,"status":"delivered"}}`)
	})

	page, err := e.svc.GetAllOrders(context.Background(), ListParams{Status: OrderShipped})
	require.NoError(t, err)
	assert.Equal(t, 42.5, page.Totals.Revenue)

	order, err := e.svc.UpdateOrderStatus(context.Background(), 1, OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, OrderDelivered, order.Status)

	_, err = e.svc.UpdateOrderStatus(context.Background(), 1, "lost")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "status", inputErr.Field)
}

func TestCancelOrder_NotFound(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)

	_, err := e.svc.CancelOrder(context.Background(), 404)
	assert.True(t, apierr.IsKind(err, apierr.NotFound))
	assert.Equal(t, []notify.Notification{notify.Error(gateway.MsgNotFound)}, e.notes.All())
}

func TestCreateTicket_WithAttachments(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("POST /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Late delivery", r.FormValue("subject"))
		assert.Equal(t, "medium", r.FormValue("priority"))
		assert.Len(t, r.MultipartForm.File["attachments[]"], 2)
		writeJSON(w, http.StatusCreated, `{"data":{"id":8,"subject":"Late delivery","status":"open"}}`)
	})

	ticket, err := e.svc.CreateTicket(context.Background(), NewTicket{
		Subject: "Late delivery",
		Message: "Order 100 has not arrived",
		Attachments: []api.FormFile{
			{Filename: "receipt.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF")},
			{Filename: "photo.jpg", Content: strings.NewReader("JPEG")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TicketOpen, ticket.Status)

	_, err = e.svc.CreateTicket(context.Background(), NewTicket{Subject: "x", Message: "y", Priority: "urgent"})
	require.Error(t, err)
	assert.Equal(t, 1, e.requests())
}

func TestReplyAndTicketStatus(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleAdmin)
	e.mux.HandleFunc("POST /api/tickets/8/replies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"data":{"id":1,"message":"On its way","is_staff":true}}`)
	})
	e.mux.HandleFunc("GET /api/admin/tickets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"tickets":[{"id":8,"subject":"Late delivery","status":"open"}],"totals":{"total":1,"open":1}}}`)
	})
	e.mux.HandleFunc("PUT /api/admin/tickets/8/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"id":8,"subject":"Late delivery","status":"resolved"}}`)
	})

	reply, err := e.svc.ReplyTicket(context.Background(), 8, "On its way")
	require.NoError(t, err)
	assert.True(t, reply.IsStaff)

	page, err := e.svc.GetAllTickets(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Totals.Open)

	ticket, err := e.svc.UpdateTicketStatus(context.Background(), 8, TicketResolved)
	require.NoError(t, err)
	assert.Equal(t, TicketResolved, ticket.Status)
}

func TestQuestionnaire(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("GET /api/questionnaire", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"id":1,"title":"Intake","questions":[{"id":1,"text":"Any allergies?","type":"yes_no","required":true}]}}`)
	})
	e.mux.HandleFunc("POST /api/questionnaire/submit", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"answers":[{"question_id":1,"answer":"no"}]}`, string(body))
		writeJSON(w, http.StatusOK, `{"message":"Thanks"}`)
	})

	q, err := e.svc.GetQuestionnaire(context.Background())
	require.NoError(t, err)
	require.Len(t, q.Questions, 1)

	require.NoError(t, e.svc.SubmitQuestionnaire(context.Background(), QuestionnaireSubmission{
		Answers: []Answer{{QuestionID: 1, Answer: "no"}},
	}))
}

func TestAddresses(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("GET /api/addresses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":3,"line1":"1 Main St","city":"Springfield","postal_code":"12345","country":"US"}]}`)
	})
	e.mux.HandleFunc("POST /api/addresses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"data":{"id":4,"line1":"2 Elm St","city":"Springfield","postal_code":"12345","country":"US"}}`)
	})
	e.mux.HandleFunc("DELETE /api/addresses/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"Deleted"}`)
	})

	ctx := context.Background()
	addrs, err := e.svc.GetAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, addrs, 1)

	created, err := e.svc.CreateAddress(ctx, Address{Line1: "2 Elm St", City: "Springfield", PostalCode: "12345", Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	require.NoError(t, e.svc.DeleteAddress(ctx, 3))

	_, err = e.svc.CreateAddress(ctx, Address{Line1: "no city"})
	require.Error(t, err)
	assert.Equal(t, 3, e.requests())
}

func TestExpiredSessionDuringServiceCall(t *testing.T) {
	e := newEnv(t)
	e.login(t, session.RoleUser)
	e.mux.HandleFunc("GET /api/orders/my", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Token expired"}`)
	})

	_, err := e.svc.GetMyOrders(context.Background(), ListParams{})
	assert.True(t, apierr.IsKind(err, apierr.Unauthorized))
	assert.False(t, e.store.IsAuthenticated(context.Background()))
	assert.Equal(t, []notify.Notification{notify.Error(gateway.MsgSessionExpired)}, e.notes.All())
}
