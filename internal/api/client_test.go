package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-rx/carepoint/internal/apierr"
)

func staticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenSource) *Client {
	t.Helper()
	c, err := New(srv.URL+"/api/v1", tokens)
	require.NoError(t, err)
	return c
}

type product struct {
	ID    int64   `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price"`
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("", nil)
	assert.Error(t, err)

	_, err = New("api.carepoint.test", nil)
	assert.Error(t, err)

	_, err = New("https://api.carepoint.test", nil)
	assert.NoError(t, err)
}

func TestClient_BearerHeader(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		if present {
			gotAuth.Store(r.Header.Get("Authorization"))
		} else {
			gotAuth.Store("<none>")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		tokens TokenSource
		want   string
	}{
		{name: "token present", tokens: staticToken("abc.def.ghi"), want: "Bearer abc.def.ghi"},
		{name: "empty token", tokens: staticToken(""), want: "<none>"},
		{name: "no token source", tokens: nil, want: "<none>"},
		{
			name: "token source fails",
			tokens: TokenFunc(func(context.Context) (string, error) {
				return "", errors.New("keyring locked")
			}),
			want: "<none>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, srv, tt.tokens)
			for _, call := range []func() error{
				func() error { return c.Get(context.Background(), "/products", nil) },
				func() error { return c.Post(context.Background(), "/orders", map[string]int{"x": 1}, nil) },
				func() error { return c.Put(context.Background(), "/orders/1", map[string]int{"x": 1}, nil) },
				func() error { return c.Patch(context.Background(), "/orders/1", map[string]int{"x": 1}, nil) },
				func() error { return c.Delete(context.Background(), "/orders/1", nil) },
			} {
				require.NoError(t, call())
				assert.Equal(t, tt.want, gotAuth.Load())
			}
		})
	}
}

func TestClient_TokenReadAtCallTime(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	token := "first"
	c := newTestClient(t, srv, TokenFunc(func(context.Context) (string, error) { return token, nil }))

	require.NoError(t, c.Get(context.Background(), "/me", nil))
	token = "second"
	require.NoError(t, c.Get(context.Background(), "/me", nil))

	assert.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestClient_PathQueryAndJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/admin/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "aspirin", r.URL.Query().Get("search"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Trace"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Aspirin", body["name"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":5,"name":"Aspirin","price":4.5},"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	var out Envelope[product]
	err := c.Post(context.Background(), "admin/products?page=2", map[string]any{"name": "Aspirin"}, &out,
		WithQuery(url.Values{"search": {"aspirin"}}),
		WithHeader("X-Trace", "yes"),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Data.ID)
	require.NotNil(t, out.Success)
	assert.True(t, *out.Success)
}

func TestClient_MultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Broken seal", r.FormValue("subject"))

		f, hdr, err := r.FormFile("attachments[]")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "photo.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		data, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(data))

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, staticToken("t"))
	body := NewMultipart().
		Field("subject", "Broken seal").
		File(FormFile{Field: "attachments[]", Filename: "photo.png", ContentType: "image/png", Content: strings.NewReader("PNGDATA")})

	require.NoError(t, c.Post(context.Background(), "/tickets", body, nil))
}

func TestClient_ContentTypeOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "JPEG", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	require.NoError(t, c.Put(context.Background(), "/products/1/image", strings.NewReader("JPEG"), nil, WithContentType("image/jpeg")))
}

func TestClient_ErrorStatusesAreClassifiedWithoutRetry(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   apierr.Kind
	}{
		{http.StatusUnauthorized, `{"message":"Unauthenticated."}`, apierr.Unauthorized},
		{http.StatusForbidden, `{"error":"Admin access required"}`, apierr.Forbidden},
		{http.StatusNotFound, ``, apierr.NotFound},
		{http.StatusUnprocessableEntity, `{"errors":{"email":["taken"]}}`, apierr.ValidationFailed},
		{http.StatusInternalServerError, `oops`, apierr.ServerError},
		{http.StatusServiceUnavailable, ``, apierr.Unclassified},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv, staticToken("t"))
			err := c.Get(context.Background(), "/orders", nil)

			e, ok := apierr.As(err)
			require.True(t, ok, "expected *apierr.Error, got %T", err)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, "/orders", e.Path)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(base, staticToken("t"))
	require.NoError(t, err)

	err = c.Get(context.Background(), "/products", nil)
	assert.True(t, apierr.IsKind(err, apierr.NetworkFailure))
	assert.Zero(t, apierr.StatusOf(err))
}

func TestClient_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>`},
		{name: "null list", body: `{"data":null}`},
		{name: "missing data", body: `{"message":"ok"}`},
		{name: "element fails validation", body: `{"data":[{"id":1,"name":"A"},{"id":0,"name":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out List[product]
			err := newTestClient(t, srv, nil).Get(context.Background(), "/products", &out)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "/products", decodeErr.Path)
		})
	}
}

func TestClient_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out List[product]
	require.NoError(t, newTestClient(t, srv, nil).Delete(context.Background(), "/products/1", &out))
}

func TestClient_WithTokensDoesNotMutateOriginal(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	base := newTestClient(t, srv, nil)
	bound := base.WithTokens(staticToken("per-request"))

	require.NoError(t, bound.Get(context.Background(), "/me", nil))
	require.NoError(t, base.Get(context.Background(), "/me", nil))

	assert.Equal(t, []string{"Bearer per-request", ""}, seen)
}

func TestValidate_NonStruct(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(&map[string]any{}))
	var p *product
	assert.NoError(t, Validate(p))
	assert.Error(t, Validate(&product{}))
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope[product]("GET", "/products/1", []byte(`{"data":{"id":1,"name":"Aspirin"},"message":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", env.Data.Name)
	assert.Equal(t, "ok", env.Message)

	_, err = DecodeEnvelope[product]("GET", "/products/1", []byte(`{"data":{"id":1}}`))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "/products/1", decodeErr.Path)

	_, err = DecodeEnvelope[product]("GET", "/products/1", []byte(`<html>`))
	require.ErrorAs(t, err, &decodeErr)
}
