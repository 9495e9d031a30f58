package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiberDoer sends client requests straight into a fiber app.
type fiberDoer struct {
	app *fiber.App
}

func (d fiberDoer) Do(r *http.Request) (*http.Response, error) {
	return d.app.Test(r, -1)
}

const validToken = "tok-valid"

// fakeService mimics the data service endpoints the CLI talks to.
func fakeService() *fiber.App {
	app := fiber.New()
	api := app.Group("/api")

	api.Post("/login", func(c *fiber.Ctx) error {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil || body.Password != "secret1" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "detail": "Incorrect username or password"})
		}
		return c.JSON(fiber.Map{"access_token": validToken, "token_type": "bearer"})
	})

	authed := api.Group("", func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "Bearer "+validToken {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Could not validate credentials"})
		}
		return c.Next()
	})

	authed.Get("/statistics", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "statistics": fiber.Map{
			"total_vehicles":        3,
			"successful_processing": 2,
			"success_rate":          "66.7%",
			"time_saved_formatted":  "33 MINUTES",
			"start_date":            c.Query("start_date"),
			"end_date":              c.Query("end_date"),
			"store_id":              c.Query("store_id"),
		}})
	})
	authed.Get("/vehicles", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"vehicles": []fiber.Map{
				{"id": 1, "stock_number": "P100", "name": "Camry", "processing_status": "processing"},
				{"id": 2, "stock_number": "C200", "name": "Accord", "processing_status": "completed", "processing_successful": true},
				{"id": 3, "stock_number": "Q300", "name": "F-150", "processing_status": "pending"},
			},
			"pagination": fiber.Map{"page": 1, "per_page": 20, "total": 3, "pages": 1},
		})
	})
	authed.Get("/stores", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "store access denied"})
	})
	return app
}

type harness struct {
	app     *app
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DASHBOARD_PASSWORD", "")
	h := &harness{
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		session: filepath.Join(t.TempDir(), "session.json"),
	}
	return h
}

func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.errOut.Reset()
	h.app = &app{
		out:         h.out,
		errOut:      h.errOut,
		in:          strings.NewReader(""),
		doer:        fiberDoer{app: fakeService()},
		sessionPath: h.session,
	}
	args = append(args, "--api-url", "http://dashboard.test/api")
	return run(context.Background(), h.app, args)
}

func TestLoginThenStats(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("login", "-u", "sam", "-p", "secret1"), h.errOut.String())
	assert.Contains(t, h.out.String(), "Signed in as sam")
	_, err := os.Stat(h.session)
	require.NoError(t, err)

	require.Equal(t, 0, h.run("stats", "--store", "S1", "--range", "custom", "--start", "2024-03-01", "--end", "2024-03-10"), h.errOut.String())
	out := h.out.String()
	assert.Contains(t, out, "2024-03-01 to 2024-03-10")
	assert.Contains(t, out, "S1")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "33 MINUTES")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("login", "-u", "sam", "-p", "nope"))
	assert.Contains(t, h.errOut.String(), "Error signing in: Incorrect username or password")
	assert.NotContains(t, h.errOut.String(), "dashboard login")
}

func TestCommandsWithoutSessionRedirect(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("refresh"))
	assert.Equal(t, 1, strings.Count(h.errOut.String(), "Run 'dashboard login'"))
	assert.NotContains(t, h.errOut.String(), "Error loading")
}

func TestExpiredSessionIsCleared(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.session, []byte(`{"token":"stale","username":"sam"}`), 0o600))

	assert.Equal(t, 1, h.run("stats"))
	assert.Contains(t, h.errOut.String(), "Run 'dashboard login'")
	_, err := os.Stat(h.session)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVehiclesStatusFilterAppliesToPage(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("login", "-u", "sam", "-p", "secret1"))

	require.Equal(t, 0, h.run("vehicles", "--status", "pending"), h.errOut.String())
	out := h.out.String()
	assert.Contains(t, out, "P100")
	assert.Contains(t, out, "Q300")
	assert.NotContains(t, out, "C200")
	assert.Contains(t, out, "Showing 2 of 3 vehicles on this page")

	assert.Equal(t, 1, h.run("vehicles", "--status", "bogus"))
	assert.Contains(t, h.errOut.String(), `unknown status filter "bogus"`)
}

func TestServerRejectionIsReported(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("login", "-u", "sam", "-p", "secret1"))

	assert.Equal(t, 1, h.run("stores"))
	assert.Contains(t, h.errOut.String(), "Error loading stores: store access denied")
	_, err := os.Stat(h.session)
	assert.NoError(t, err, "a non-credential 403 keeps the session")
}

func TestIncompleteCustomRangeFallsBack(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("login", "-u", "sam", "-p", "secret1"))

	require.Equal(t, 0, h.run("stats", "--range", "custom", "--start", "2024-03-01"))
	assert.Contains(t, h.errOut.String(), "showing Month to Date")
	assert.Contains(t, h.out.String(), "Month to Date")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("login", "-u", "sam", "-p", "secret1"))
	require.Equal(t, 0, h.run("logout"))

	_, err := os.Stat(h.session)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
