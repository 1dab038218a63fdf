package handlers

import (
	"toolsnest/internal/models"
	"toolsnest/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes. Only the sign-in upsert is public.
func (h *UserHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	router.Put("/user/:email", h.HandleLogin)
	router.Get("/user/:email", guard, h.HandleGetUser)
	router.Put("/user/:email/profile", guard, h.HandleUpdateProfile)
	router.Put("/user/:email/admin", guard, h.HandleMakeAdmin)
	router.Put("/user/:email/revoke-admin", guard, h.HandleRevokeAdmin)
	router.Put("/user/:email/admin/revoke", guard, h.HandleRevokeAdmin)
	router.Delete("/user/:email", guard, h.HandleDeleteUser)
	router.Get("/users", guard, h.HandleGetUsers)
}

// HandleLogin upserts the caller's profile and returns a fresh access token.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var profile models.UserProfile
	if err := parseBody(c, &profile); err != nil {
		return badRequest(c, err)
	}
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.Login(c.UserContext(), email, profile)
	if err != nil {
		return storeFailure(c, "user login", err)
	}
	return c.JSON(res)
}

// HandleGetUser retrieves a single user by email.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	user, err := h.service.GetUser(c.UserContext(), email)
	if err != nil {
		return storeFailure(c, "get user", err)
	}
	return c.JSON(user)
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers(c.UserContext())
	if err != nil {
		return storeFailure(c, "list users", err)
	}
	return c.JSON(users)
}

// HandleUpdateProfile writes allowlisted profile fields. The admin flag is
// never taken from the body.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var profile models.UserProfile
	if err := parseBody(c, &profile); err != nil {
		return badRequest(c, err)
	}
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.UpdateProfile(c.UserContext(), email, profile)
	if err != nil {
		return storeFailure(c, "update user", err)
	}
	return c.JSON(res)
}

func (h *UserHandler) HandleMakeAdmin(c *fiber.Ctx) error {
	return h.setAdmin(c, true)
}

func (h *UserHandler) HandleRevokeAdmin(c *fiber.Ctx) error {
	return h.setAdmin(c, false)
}

func (h *UserHandler) setAdmin(c *fiber.Ctx, admin bool) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.SetAdmin(c.UserContext(), email, admin)
	if err != nil {
		return storeFailure(c, "set admin", err)
	}
	return c.JSON(res)
}

// HandleDeleteUser removes a user by email.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.service.DeleteUser(c.UserContext(), email)
	if err != nil {
		return storeFailure(c, "delete user", err)
	}
	return c.JSON(res)
}
