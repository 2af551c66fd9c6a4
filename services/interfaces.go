package services

import (
	"context"

	"todolist/database"
	"todolist/models"
	"todolist/notify"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	InsertTask(ctx context.Context, values models.Values) (int64, error)
	QueryTasks(ctx context.Context, q models.Query) (*database.Cursor, error)
}

// ChangeNotifier defines the interface for change broadcast
type ChangeNotifier interface {
	Register(uri string, observer notify.Observer, notifyForDescendants bool) func()
	NotifyChange(ctx context.Context, uri string)
}
