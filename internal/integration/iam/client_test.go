package iam

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

// recordedRequest is what the fake SCIM server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Accept string
	Body   map[string]interface{}
}

// newSCIMServer serves canned responses keyed by "METHOD path".
func newSCIMServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Accept: r.Header.Get("Accept"),
		}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.Body)
		}
		seen = append(seen, rec)

		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"Not Found","detail":"no route"}}`))
			return
		}
		handler(w)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, serverURL string, params config.Params) *SCIMClient {
	t.Helper()

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		BaseURL: serverURL,
		Headers: map[string]string{"Accept": "application/json"},
		Auth:    &transport.AuthConfig{Type: transport.AuthBearer, Token: "scim-token"},
	})
	require.NoError(t, err)

	p, err := NewIAMIntegration(&api.ProviderConfig{
		Transport: tr,
		Instance: &config.InstanceConfig{
			Name:    "scim",
			Type:    "iam",
			BaseURL: serverURL,
			Params:  params,
		},
	})
	require.NoError(t, err)
	return p.(*IAMIntegration).client.(*SCIMClient)
}

func TestSCIMClient_Test(t *testing.T) {
	t.Run("ok with version", func(t *testing.T) {
		server, seen := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /t1/scim/v2/Users/": respond(200, `{"totalResults":0}`),
		})
		c := newTestClient(t, server.URL, config.Params{"tenant_id": "t1", "api_version": "2"})

		require.NoError(t, c.Test(context.Background()))
		require.Len(t, *seen, 1)
		assert.Equal(t, "version=2", (*seen)[0].Query)
		assert.Equal(t, "Bearer scim-token", (*seen)[0].Auth)
		assert.Equal(t, "application/json", (*seen)[0].Accept)
	})

	t.Run("non 200 success code", func(t *testing.T) {
		server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(201, `created`),
		})
		c := newTestClient(t, server.URL, nil)

		err := c.Test(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Error testing [201] - created")
	})

	t.Run("unauthorized", func(t *testing.T) {
		server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(401, `bad token`),
		})
		c := newTestClient(t, server.URL, nil)

		err := c.Test(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Error testing [401] - bad token")

		var opErr *operation.Error
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, operation.ErrorTypeAuth, opErr.Type)
	})
}

func TestSCIMClient_GetUser(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		server, seen := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(200, `{"totalResults":0}`),
		})
		c := newTestClient(t, server.URL, nil)

		user, err := c.GetUser(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
		require.Len(t, *seen, 1)
		assert.Equal(t, `filter=userName+eq+%22jane%40example.com%22`, (*seen)[0].Query)
	})

	t.Run("missing total", func(t *testing.T) {
		server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(200, `{}`),
		})
		c := newTestClient(t, server.URL, nil)

		user, err := c.GetUser(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("found", func(t *testing.T) {
		server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(200, `{"totalResults":1,"Resources":[{"id":"u-1","userName":"jane@example.com","active":true,"title":"Engineer"}]}`),
		})
		c := newTestClient(t, server.URL, nil)

		user, err := c.GetUser(context.Background(), "jane@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "jane@example.com", user.Username)
		assert.True(t, user.Active)
		assert.Equal(t, "Engineer", user.Data["title"])
	})

	t.Run("vendor error keeps status", func(t *testing.T) {
		server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
			"GET /scim/v2/Users/": respond(500, `{"error":{"message":"boom","detail":"db down"}}`),
		})
		c := newTestClient(t, server.URL, nil)

		_, err := c.GetUser(context.Background(), "jane@example.com")
		te, ok := transport.AsTransportError(err)
		require.True(t, ok)
		assert.Equal(t, 500, te.StatusCode)
		assert.Contains(t, string(te.Body), "db down")
	})
}

func TestSCIMClient_Writes(t *testing.T) {
	userJSON := `{"id":"u-1","userName":"jane@example.com","active":false}`

	server, seen := newSCIMServer(t, map[string]func(http.ResponseWriter){
		"POST /scim/v2/Users/":     respond(201, userJSON),
		"PATCH /scim/v2/Users/u-1": respond(200, userJSON),
	})
	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	created, err := c.CreateUser(ctx, map[string]interface{}{"userName": "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", created.ID)
	assert.False(t, created.Active)

	_, err = c.UpdateUser(ctx, "u-1", map[string]interface{}{"title": "Lead"})
	require.NoError(t, err)

	_, err = c.EnableUser(ctx, "u-1")
	require.NoError(t, err)

	_, err = c.DisableUser(ctx, "u-1")
	require.NoError(t, err)

	require.Len(t, *seen, 4)
	assert.Equal(t, "POST", (*seen)[0].Method)
	assert.Equal(t, "jane@example.com", (*seen)[0].Body["userName"])
	assert.Equal(t, "PATCH", (*seen)[1].Method)
	assert.Equal(t, "Lead", (*seen)[1].Body["title"])
	assert.Equal(t, map[string]interface{}{"active": true}, (*seen)[2].Body)
	assert.Equal(t, map[string]interface{}{"active": false}, (*seen)[3].Body)
}

func TestSCIMClient_UpdateEscapesID(t *testing.T) {
	server, seen := newSCIMServer(t, map[string]func(http.ResponseWriter){
		"PATCH /scim/v2/Users/a b": respond(200, `{"id":"a b"}`),
	})
	c := newTestClient(t, server.URL, nil)

	_, err := c.UpdateUser(context.Background(), "a b", map[string]interface{}{"active": true})
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "/scim/v2/Users/a b", (*seen)[0].Path)
}

func TestSCIMClient_GetAppFields(t *testing.T) {
	server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
		"GET /schema": respond(200, `{"result":[{"name":"userName","description":"Login"},{"name":"title","description":"Job title"},{"description":"no name"}]}`),
	})
	c := newTestClient(t, server.URL, nil)

	fields, err := c.GetAppFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"userName": "Login", "title": "Job title"}, fields)
}

func TestSCIMClient_InvalidJSON(t *testing.T) {
	server, _ := newSCIMServer(t, map[string]func(http.ResponseWriter){
		"GET /schema": respond(200, `<html>`),
	})
	c := newTestClient(t, server.URL, nil)

	_, err := c.GetAppFields(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid JSON"))
}
