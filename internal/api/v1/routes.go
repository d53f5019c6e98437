package v1

import (
	"task-manager/internal/api/v1/handlers"
	"task-manager/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, tasks handlers.TaskService, users handlers.UserService) {
	api := app.Group("/api", middleware.ParseQuery())

	// User
	userHandler := handlers.NewUserHandler(users)
	userRoutes := api.Group("/users")
	userRoutes.Get("/", userHandler.ListUsers)
	userRoutes.Post("/", userHandler.CreateUser)
	userRoutes.Get("/:id", userHandler.GetUser)
	userRoutes.Put("/:id", userHandler.UpdateUser)
	userRoutes.Delete("/:id", userHandler.DeleteUser)

	// Task
	taskHandler := handlers.NewTaskHandler(tasks)
	taskRoutes := api.Group("/tasks")
	taskRoutes.Get("/", taskHandler.ListTasks)
	taskRoutes.Post("/", taskHandler.CreateTask)
	taskRoutes.Get("/:id", taskHandler.GetTask)
	taskRoutes.Put("/:id", taskHandler.UpdateTask)
	taskRoutes.Delete("/:id", taskHandler.DeleteTask)
}
