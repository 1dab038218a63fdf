package handlers

import (
	"toolsnest/internal/middleware"
	"toolsnest/internal/models"
	"toolsnest/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. Every order route is guarded.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	orderRoutes := router.Group("/orders", guard)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/email/:email", h.HandleGetOrdersByEmail)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
	orderRoutes.Put("/:id/pay", h.HandlePayOrder)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return storeFailure(c, "list orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrdersByEmail retrieves the orders placed by one customer.
func (h *OrderHandler) HandleGetOrdersByEmail(c *fiber.Ctx) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	orders, err := h.service.GetOrdersByEmail(c.UserContext(), email)
	if err != nil {
		return storeFailure(c, "list orders by email", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its id.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	order, err := h.service.GetOrderByID(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "get order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order for the body's email, or for the
// token subject when the body has none.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var order models.Order
	if err := parseBody(c, &order); err != nil {
		return badRequest(c, err)
	}
	// Orders default to the authenticated customer.
	if order.Email == nil {
		if subject, ok := middleware.Subject(c); ok {
			order.Email = &subject
		}
	}
	if err := h.validate.Struct(order); err != nil {
		return validationFailure(c, err)
	}
	res, err := h.service.CreateOrder(c.UserContext(), order)
	if err != nil {
		return storeFailure(c, "create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleUpdateOrder upserts the given fields into an order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var patch models.OrderPatch
	if err := parseBody(c, &patch); err != nil {
		return badRequest(c, err)
	}
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.UpdateOrder(c.UserContext(), id, patch)
	if err != nil {
		return storeFailure(c, "update order", err)
	}
	return c.JSON(res)
}

// HandleDeleteOrder deletes an order by its id.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.DeleteOrder(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "delete order", err)
	}
	return c.JSON(res)
}

// HandlePayOrder records the payment for an order and marks it paid.
func (h *OrderHandler) HandlePayOrder(c *fiber.Ctx) error {
	var req models.PayRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailure(c, err)
	}
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.PayOrder(c.UserContext(), id, req)
	if err != nil {
		return storeFailure(c, "pay order", err)
	}
	return c.JSON(res)
}
