package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-test-secret"

func TestMutationRateLimiter(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(SetupMutationRateLimiter(zap.NewNop()))
	app.All("/likes", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 30; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/likes", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "write %d should pass", i+1)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/likes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), constant.ERR_RATE_LIMITED_CODE))

	// Reads are never limited
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/likes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()

	config := koanf.New(".")
	require.NoError(t, config.Set("JWT_SECRET_KEY", testSecret))
	auth := NewAuthMiddleware(zap.NewNop(), config)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(auth.OptionalAuth())
	app.Get("/viewer", func(ctx *fiber.Ctx) error {
		return ctx.JSON(ViewerOf(ctx))
	})
	app.Post("/protected", auth.ProtectedRoute(), func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	return app
}

func TestOptionalAuth(t *testing.T) {
	app := newAuthApp(t)
	userId := uuid.New()
	token, err := util.GenerateAccessToken(userId, "alice", testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		userId uuid.UUID
	}{
		{name: "no header", header: "", userId: uuid.Nil},
		{name: "garbage token", header: "Bearer nope", userId: uuid.Nil},
		{name: "valid token", header: "Bearer " + token, userId: userId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/viewer", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var viewer model.Viewer
			require.NoError(t, sonic.Unmarshal(data, &viewer))
			assert.Equal(t, tt.userId, viewer.UserId)
		})
	}
}

func TestProtectedRouteRejectsAnonymous(t *testing.T) {
	app := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := util.GenerateAccessToken(uuid.New(), "alice", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
