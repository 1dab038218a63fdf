package handlers

import (
	"toolsnest/internal/models"
	"toolsnest/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Listing and lookup are public.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", guard, h.HandleCreateProduct)
	productRoutes.Put("/:id", guard, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", guard, h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return storeFailure(c, "list products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its id.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "get product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := parseBody(c, &product); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(product); err != nil {
		return validationFailure(c, err)
	}
	res, err := h.service.CreateProduct(c.UserContext(), product)
	if err != nil {
		return storeFailure(c, "create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleUpdateProduct upserts the given fields into a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if err := parseBody(c, &patch); err != nil {
		return badRequest(c, err)
	}
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return storeFailure(c, "update product", err)
	}
	return c.JSON(res)
}

// HandleDeleteProduct deletes a product. Deleting a missing product reports
// zero deletions.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "delete product", err)
	}
	return c.JSON(res)
}
