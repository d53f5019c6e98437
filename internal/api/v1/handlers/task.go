package handlers

import (
	"context"

	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/query"
	"task-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TaskService is what the task endpoints need from the service layer.
type TaskService interface {
	List(ctx context.Context, req query.Request) (query.Result, error)
	Get(ctx context.Context, id string, proj *query.Projection) (any, error)
	Create(ctx context.Context, in service.TaskInput) (*models.Task, error)
	Update(ctx context.Context, id string, in service.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type TaskHandler struct {
	svc TaskService
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ListTasks answers GET /api/tasks with the matching tasks or their count.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	res, err := h.svc.List(c.UserContext(), middleware.Query(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", res.Data())
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var in service.TaskInput
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	task, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Created", task)
}

// GetTask honors ?select= on the single-task endpoint.
func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	task, err := h.svc.Get(c.UserContext(), c.Params("id"), middleware.Query(c).Projection)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	var in service.TaskInput
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	task, err := h.svc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "OK", fiber.Map{})
}
