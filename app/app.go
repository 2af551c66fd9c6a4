package app

import (
	"log/slog"

	"todolist/notify"
	"todolist/services"
	"todolist/validator"
)

// App holds all application dependencies
// This struct is the central point for dependency injection
type App struct {
	Provider  *services.TaskProvider
	Notifier  *notify.Notifier
	Validator *validator.Validator
	Logger    *slog.Logger
}

// New creates a new App instance with all dependencies
func New(provider *services.TaskProvider, notifier *notify.Notifier, logger *slog.Logger) *App {
	return &App{
		Provider:  provider,
		Notifier:  notifier,
		Validator: validator.New(),
		Logger:    logger,
	}
}
