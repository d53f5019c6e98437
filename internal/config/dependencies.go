package config

import (
	"task-manager/configs"
	"task-manager/internal/repository"
	"task-manager/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Dependencies holds the shared handles built once at startup and injected
// into the HTTP layer.
type Dependencies struct {
	DB          *sqlx.DB
	RedisClient *redis.Client

	Tasks *service.TaskService
	Users *service.UserService
}

// NewDependencies wires stores and services on top of db. rdb may be nil
// when Redis is not configured.
func NewDependencies(cfg configs.Config, db *sqlx.DB, rdb *redis.Client) *Dependencies {
	validate := service.NewValidator()
	tasks := repository.NewTaskRepository(db)
	users := repository.NewUserRepository(db)

	return &Dependencies{
		DB:          db,
		RedisClient: rdb,
		Tasks:       service.NewTaskService(tasks, users, validate, cfg.TaskDefaultLimit),
		Users:       service.NewUserService(tasks, users, validate, cfg.UserDefaultLimit),
	}
}

// Close releases the database pool and the Redis client.
func (d *Dependencies) Close() {
	if d.RedisClient != nil {
		d.RedisClient.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
