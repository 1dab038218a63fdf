package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SubjectKey is the request local holding the verified token subject.
const SubjectKey = "email"

// TokenVerifier verifies an access token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthRequired is a Fiber middleware that admits only requests carrying a
// valid bearer token. A missing header is 401; anything else that fails
// verification is 403.
func AuthRequired(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "UnAuthorized access",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return forbidden(c)
		}

		subject, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			slog.Debug("JWT validation failed", "path", c.Path(), "error", err)
			return forbidden(c)
		}

		c.Locals(SubjectKey, subject)
		return c.Next()
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Forbidden access",
	})
}

// Subject returns the verified subject stored by AuthRequired.
func Subject(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(SubjectKey).(string)
	return subject, ok
}
