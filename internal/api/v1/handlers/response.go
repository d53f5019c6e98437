package handlers

import (
	"errors"

	"task-manager/internal/consistency"
	"task-manager/internal/query"
	"task-manager/internal/repository"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respond writes the {message, data} envelope shared by every endpoint.
func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// writeError maps service, query and store errors onto client responses.
// Anything unrecognized is logged and reported as a 500 without detail.
func writeError(c *fiber.Ctx, err error) error {
	var (
		partial  *consistency.PartialWriteError
		qerr     *query.Error
		verr     *service.ValidationError
		notFound *service.NotFoundError
		dup      *repository.DuplicateError
		body     *bodyError
	)
	switch {
	case errors.As(err, &partial):
		logger.ErrorLogger.Error("Write chain stopped part way",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Strings("completed_steps", partial.Completed),
			zap.String("failed_step", partial.Failed),
			zap.Error(partial.Err),
		)
		return respond(c, fiber.StatusInternalServerError, "Internal server error", fiber.Map{})
	case errors.As(err, &qerr):
		if qerr.Syntax() {
			return respond(c, fiber.StatusBadRequest, "Invalid JSON in query parameters", fiber.Map{"error": qerr.Error()})
		}
		return respond(c, fiber.StatusBadRequest, "Invalid query parameters", fiber.Map{
			"error": qerr.Error(),
			"field": qerr.Field,
		})
	case errors.As(err, &verr):
		data := fiber.Map{"error": verr.Detail}
		if len(verr.Fields) > 0 {
			data["fields"] = verr.Fields
		}
		return respond(c, fiber.StatusBadRequest, verr.Message, data)
	case errors.As(err, &notFound):
		return respond(c, fiber.StatusNotFound, notFound.Message(), fiber.Map{"error": notFound.Detail()})
	case errors.As(err, &dup):
		return respond(c, fiber.StatusBadRequest, "Duplicate entry: "+dup.Field+" already exists", fiber.Map{"field": dup.Field})
	case errors.As(err, &body):
		return respond(c, fiber.StatusBadRequest, "Invalid request body", fiber.Map{"error": body.err.Error()})
	}

	logger.ErrorLogger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Error(err),
	)
	return respond(c, fiber.StatusInternalServerError, "Internal server error", fiber.Map{})
}

// bodyError wraps a request body that could not be decoded.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string {
	return "invalid request body: " + e.err.Error()
}

func (e *bodyError) Unwrap() error {
	return e.err
}

// parseBody fills out from a JSON or form body. An empty body leaves out
// untouched so required-field validation reports it.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return &bodyError{err: err}
	}
	return nil
}
