package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"wallet_address": c.Locals("wallet_address")})
	})
	return app
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	svc := NewService("secret", nil)
	resp, err := svc.IssueSession(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	app := protectedApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	res, err := app.Test(req)
	if err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("status: %v %d", err, res.StatusCode)
	}
}

func TestJWTMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	app := protectedApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res, _ := app.Test(req)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", res.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	res, _ = app.Test(req)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", res.StatusCode)
	}

	// token signed with another secret
	svc := NewService("different", nil)
	resp, _ := svc.IssueSession(context.Background(), testWallet)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	res, _ = app.Test(req)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong secret: %d", res.StatusCode)
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("expected token extracted")
	}
	if bearerFromHeader("bearer abc") != "abc" {
		t.Fatalf("scheme match is case-insensitive")
	}
	if bearerFromHeader("Basic abc") != "" || bearerFromHeader("") != "" {
		t.Fatalf("non-bearer headers rejected")
	}
}
