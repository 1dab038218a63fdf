package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"toolsnest/internal/gateway"
	"toolsnest/internal/repositories"
	"toolsnest/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Error kinds reported in the "error" field of failure responses.
const (
	KindBadRequest        = "bad_request"
	KindInvalidID         = "invalid_id"
	KindNotFound          = "not_found"
	KindStoreError        = "store_error"
	KindGatewayError      = "gateway_error"
	KindInvalidAmount     = "invalid_amount"
	KindOrderUpdateFailed = "order_update_failed"
	KindPaymentOrphaned   = "payment_orphaned"
	KindInternal          = "internal_error"
)

// ErrorResponse is the body of every failed request outside the access guard.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// classify maps known domain errors to a status and kind.
func classify(err error) (int, string, bool) {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return fiber.StatusBadRequest, KindInvalidID, true
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound, KindNotFound, true
	case errors.Is(err, gateway.ErrInvalidAmount):
		return fiber.StatusBadRequest, KindInvalidAmount, true
	case errors.As(err, &gwErr):
		return fiber.StatusBadGateway, KindGatewayError, true
	case errors.Is(err, services.ErrPaymentOrphaned):
		return fiber.StatusInternalServerError, KindPaymentOrphaned, true
	case errors.Is(err, services.ErrOrderUpdateFailed):
		return fiber.StatusBadGateway, KindOrderUpdateFailed, true
	}
	return 0, "", false
}

func respond(c *fiber.Ctx, status int, kind string, err error) error {
	return c.Status(status).JSON(ErrorResponse{Error: kind, Message: err.Error()})
}

// storeFailure answers a failed store-backed operation. Errors that are not
// otherwise classified are upstream store failures.
func storeFailure(c *fiber.Ctx, op string, err error) error {
	return fail(c, op, err, KindStoreError)
}

// gatewayFailure answers a failed payment gateway call.
func gatewayFailure(c *fiber.Ctx, op string, err error) error {
	return fail(c, op, err, KindGatewayError)
}

func fail(c *fiber.Ctx, op string, err error, fallbackKind string) error {
	status, kind, ok := classify(err)
	if !ok {
		status, kind = fiber.StatusBadGateway, fallbackKind
	}
	if status >= fiber.StatusInternalServerError {
		slog.Error(op+" failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return respond(c, status, kind, err)
}

// parseBody decodes a JSON body into out. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathParam returns the named route parameter percent-decoded, the way form
// clients encode an email address.
func pathParam(c *fiber.Ctx, name string) (string, error) {
	value, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", fmt.Errorf("invalid %s in path: %w", name, err)
	}
	return value, nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return respond(c, fiber.StatusBadRequest, KindBadRequest, err)
}

// validationFailure reports the fields that failed presence validation.
func validationFailure(c *fiber.Ctx, err error) error {
	fields := map[string]string{}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   KindBadRequest,
		Message: "Validation failed",
		Fields:  fields,
	})
}

// ErrorHandler is the application-wide Fiber error handler, covering errors
// returned by middleware, unmatched routes and recovered panics.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, kind, ok := classify(err)
	if !ok {
		status, kind = fiber.StatusInternalServerError, KindInternal
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			switch {
			case status == fiber.StatusNotFound:
				kind = KindNotFound
			case status < fiber.StatusInternalServerError:
				kind = KindBadRequest
			}
		}
	}
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return respond(c, status, kind, err)
}
