package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"minigame-arcade/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newAuthApp(validator services.TokenValidator) *fiber.App {
	app := fiber.New()
	app.Use(BearerAuth(validator))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": UserID(c), "roles": c.Locals(LocalUserRoles)})
	})
	app.Get("/admin", RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestBearerAuthWithJWT(t *testing.T) {
	v := services.NewJWTValidator("s3cret")
	app := newAuthApp(v)

	code, body := call(t, app, "/me", "")
	require.Equal(t, http.StatusUnauthorized, code)
	require.JSONEq(t, `{"error":"Unauthenticated"}`, body)

	code, _ = call(t, app, "/me", "Basic dXNlcjpwYXNz")
	require.Equal(t, http.StatusUnauthorized, code)

	other, err := services.NewJWTValidator("other").IssueToken("user-1", nil, time.Hour)
	require.NoError(t, err)
	code, _ = call(t, app, "/me", "Bearer "+other)
	require.Equal(t, http.StatusUnauthorized, code)

	tok, err := v.IssueToken("user-1", []string{"player"}, time.Hour)
	require.NoError(t, err)
	code, body = call(t, app, "/me", "Bearer "+tok)
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"user_id":"user-1","roles":["player"]}`, body)

	code, _ = call(t, app, "/admin", "Bearer "+tok)
	require.Equal(t, http.StatusForbidden, code)

	adminTok, err := v.IssueToken("admin-1", []string{"player", "admin"}, time.Hour)
	require.NoError(t, err)
	code, body = call(t, app, "/admin", "Bearer "+adminTok)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body)
}

func TestBearerAuthWithAuthService(t *testing.T) {
	authService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/validate" || r.Header.Get("Authorization") != "Bearer service-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req struct {
			AccessToken string `json:"access_token"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		switch req.AccessToken {
		case "good":
			w.Write([]byte(`{"user_id":"user-9","roles":["admin"]}`))
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer authService.Close()

	app := newAuthApp(services.NewAuthServiceClient(authService.URL, "service-token"))

	code, body := call(t, app, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"user_id":"user-9","roles":["admin"]}`, body)

	code, _ = call(t, app, "/me", "Bearer stale")
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, app, "/me", "Bearer broken")
	require.Equal(t, http.StatusServiceUnavailable, code)
}
