package portal_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// testClient drives a fiber app and carries cookies between requests
type testClient struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, app *fiber.App) *testClient {
	return &testClient{
		t:       t,
		app:     app,
		cookies: map[string]*http.Cookie{},
	}
}

func (c *testClient) Do(req *http.Request) *http.Response {
	c.t.Helper()

	for _, cookie := range c.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)

	for _, cookie := range resp.Cookies() {
		expired := cookie.MaxAge < 0 ||
			(!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()))
		if cookie.Value == "" || expired {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}

	return resp
}

func (c *testClient) Get(target string) *http.Response {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *testClient) PostForm(target string, form url.Values) *http.Response {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

func (c *testClient) Cookie(name string) (*http.Cookie, bool) {
	cookie, ok := c.cookies[name]
	return cookie, ok
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := repository.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	_, err = portal.Migrate(ctx, db)
	require.NoError(t, err)

	return db
}
