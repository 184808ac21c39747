package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtr-ai/ragcore/internal/cache"
	"github.com/svtr-ai/ragcore/internal/expansion"
	"github.com/svtr-ai/ragcore/internal/middleware/validation"
	"github.com/svtr-ai/ragcore/internal/query"
	"github.com/svtr-ai/ragcore/internal/retrieval"
	"github.com/svtr-ai/ragcore/internal/storage/models"
)

type stubRetriever struct{}

func (stubRetriever) Retrieve(ctx context.Context, req retrieval.Request) retrieval.Result {
	return retrieval.Result{}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	engine, err := query.NewEngine(query.Config{
		Expander:  expansion.New(),
		Cache:     cache.New(cache.Config{DisableSemantic: true}),
		Retriever: stubRetriever{},
	})
	require.NoError(t, err)

	h := NewQueryHandler(engine, nil)
	app := fiber.New()
	app.Post("/api/v1/query", validation.Middleware(validation.Config{}), h.HandleQuery)
	return app
}

func TestHandleQueryUsesSanitizedBody(t *testing.T) {
	app := newTestApp(t)

	body := `{"query":"  SVTR的创始人是谁？\u0000  "}`
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var bundle models.ContextBundle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))

	// NUL byte and padding stripped by the middleware must not survive
	// into the answered bundle.
	assert.Equal(t, "SVTR的创始人是谁？", bundle.Query)
	assert.NotContains(t, bundle.Query, "\x00")
}

func TestHandleQueryRejectsWhitespaceOnlyQuery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"query":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
