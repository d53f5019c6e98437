package handlers

import (
	"context"

	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/query"
	"task-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UserService is what the user endpoints need from the service layer.
type UserService interface {
	List(ctx context.Context, req query.Request) (query.Result, error)
	Get(ctx context.Context, id string, proj *query.Projection) (any, error)
	Create(ctx context.Context, in service.UserInput) (*models.User, error)
	Update(ctx context.Context, id string, in service.UserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	res, err := h.svc.List(c.UserContext(), middleware.Query(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", res.Data())
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var in service.UserInput
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	user, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Created", user)
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.svc.Get(c.UserContext(), c.Params("id"), middleware.Query(c).Projection)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", user)
}

// UpdateUser replaces the user; its pendingTasks list drives task
// assignment.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var in service.UserInput
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	user, err := h.svc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", user)
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", fiber.Map{})
}
