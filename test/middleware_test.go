package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"

	"app/config"
	"app/middleware"
	"app/models"
)

func signToken(t *testing.T, secret string) string {
	t.Helper()
	claims := &models.JwtClaims{
		UserID: "merchant-1",
		Role:   "merchant",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func authApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.Authenticate, func(c *fiber.Ctx) error {
		claims, err := middleware.ExtractClaims(c)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"userId": claims.UserID})
	})
	return app
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	app := authApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret"))
	resp, _ := app.Test(req)

	assert.Equal(t, 200, resp.StatusCode)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	app := authApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret"))
	resp, _ := app.Test(req)

	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	app := authApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "not-a-bearer-token")
	resp, _ := app.Test(req)

	assert.Equal(t, 401, resp.StatusCode)
}
