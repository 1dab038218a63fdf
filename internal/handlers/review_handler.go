package handlers

import (
	"toolsnest/internal/models"
	"toolsnest/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	router.Get("/reviews", h.HandleGetReviews)
	router.Post("/reviews", guard, h.HandleCreateReview)
}

func (h *ReviewHandler) HandleGetReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetAllReviews(c.UserContext())
	if err != nil {
		return storeFailure(c, "list reviews", err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var review models.Review
	if err := parseBody(c, &review); err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.CreateReview(c.UserContext(), review)
	if err != nil {
		return storeFailure(c, "create review", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
