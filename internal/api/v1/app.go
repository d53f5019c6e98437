package v1

import (
	"time"

	"task-manager/internal/api/v1/handlers"
	"task-manager/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Options tunes the middleware stack of the HTTP app.
type Options struct {
	RateLimitMax    int
	RateLimitWindow time.Duration
	// LimiterStorage holds rate limit counters; nil keeps them in memory.
	LimiterStorage fiber.Storage
}

// NewApp builds the Fiber app with recovery, CORS, rate limiting and the
// task and user routes.
func NewApp(opts Options, tasks handlers.TaskService, users handlers.UserService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.AppErrorHandler,
	})

	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST, GET, PUT, DELETE, OPTIONS",
		AllowHeaders: "X-Requested-With, X-HTTP-Method-Override, Content-Type, Accept",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimitMax,
		Expiration: opts.RateLimitWindow,
		Storage:    opts.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests",
				"data":    fiber.Map{},
			})
		},
	}))

	RegisterRoutes(app, tasks, users)
	return app
}
