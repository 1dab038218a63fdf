package server

import (
	"time"

	"toolsnest/internal/handlers"
	"toolsnest/internal/middleware"
	"toolsnest/internal/repositories"
	"toolsnest/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LivenessMessage is the body served by the health route.
const LivenessMessage = "toolsnest is running!"

// Deps are the collaborators the HTTP application is built from. Cache and
// Publisher are optional.
type Deps struct {
	Store     repositories.DocumentStore
	Tokens    *services.TokenService
	Gateway   services.PaymentGateway
	Currency  string
	Cache     services.Cache
	CacheTTL  time.Duration
	Publisher services.EventPublisher
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// NewApp builds the Fiber application with every route and its guard.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		// Path params and body values outlive the handler once stored.
		Immutable:             true,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(middleware.Metrics())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(LivenessMessage)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	guard := middleware.AuthRequired(deps.Tokens)

	userService := services.NewUserService(deps.Store, deps.Tokens)
	productService := services.NewProductService(deps.Store, deps.Cache, deps.CacheTTL)
	reviewService := services.NewReviewService(deps.Store)
	orderService := services.NewOrderService(deps.Store, deps.Publisher)
	paymentService := services.NewPaymentService(deps.Gateway, deps.Currency)

	handlers.NewUserHandler(userService).RegisterRoutes(app, guard)
	handlers.NewProductHandler(productService).RegisterRoutes(app, guard)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(app, guard)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app, guard)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(app, guard)

	return app
}
