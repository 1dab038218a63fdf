package handlers

import (
	"toolsnest/internal/models"
	"toolsnest/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment intent creation.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *PaymentHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	router.Post("/payment-intent", guard, h.HandleCreatePaymentIntent)
}

// HandleCreatePaymentIntent creates a gateway payment intent for the given
// price and returns its client secret.
func (h *PaymentHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	var req models.PaymentIntentRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailure(c, err)
	}
	secret, err := h.service.CreatePaymentIntent(c.UserContext(), *req.Price)
	if err != nil {
		return gatewayFailure(c, "create payment intent", err)
	}
	return c.JSON(models.PaymentIntentResponse{ClientSecret: secret})
}
