package middleware

import (
	"task-manager/internal/query"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const queryLocalsKey = "parsedQuery"

// ParseQuery decodes where/sort/select/skip/limit/count for every request on
// the group and rejects malformed JSON before the handler runs.
func ParseQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := make(map[string]string)
		c.Context().QueryArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		req, err := query.Parse(params)
		if err != nil {
			logger.RequestLogger.Info("Rejected query parameters",
				zap.String("url", c.OriginalURL()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid JSON in query parameters",
				"data":    fiber.Map{"error": err.Error()},
			})
		}
		c.Locals(queryLocalsKey, req)
		return c.Next()
	}
}

// Query returns the request parsed by ParseQuery, or an empty request.
func Query(c *fiber.Ctx) query.Request {
	if req, ok := c.Locals(queryLocalsKey).(query.Request); ok {
		return req
	}
	return query.Request{}
}
