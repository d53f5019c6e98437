package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler recovers panics and logs every request with its outcome.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorLogger.Error(fmt.Sprintf("Recovered from panic: %v", r),
					zap.String("method", c.Method()),
					zap.String("url", c.OriginalURL()),
					zap.String("stack", string(debug.Stack())),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Internal server error",
					"data":    fiber.Map{},
				})
			}
			logger.RequestLogger.Info("Request handled",
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("latency", time.Since(start)),
			)
		}()
		return c.Next()
	}
}

// AppErrorHandler renders errors that escape the handlers, such as unknown
// routes or oversized bodies, in the response envelope.
func AppErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code == fiber.StatusNotFound {
		message = "Not found"
	}
	if code >= fiber.StatusInternalServerError {
		logger.ErrorLogger.Error("Unhandled error",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Error(err),
		)
		message = "Internal server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
		"data":    fiber.Map{},
	})
}
