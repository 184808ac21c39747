package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/query", Middleware(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postJSON(app *fiber.App, body string) int {
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		return 0
	}
	return resp.StatusCode
}

func TestValidQueryPasses(t *testing.T) {
	app := newTestApp(Config{})
	assert.Equal(t, fiber.StatusOK, postJSON(app, `{"query":"AI投资趋势"}`))
}

func TestMissingQueryRejected(t *testing.T) {
	app := newTestApp(Config{})
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":""}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":42}`))
}

func TestMalformedJSONRejected(t *testing.T) {
	app := newTestApp(Config{})
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":`))
}

func TestOverlongQueryRejected(t *testing.T) {
	app := newTestApp(Config{MaxQueryLength: 10})
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":"this query is longer than ten bytes"}`))
}

func TestInjectionPatternsRejected(t *testing.T) {
	app := newTestApp(Config{})
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":"1 UNION SELECT * FROM users"}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(app, `{"query":"<script>alert(1)</script>"}`))
}

func TestUnsupportedContentTypeRejected(t *testing.T) {
	app := newTestApp(Config{})
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader("query=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}
