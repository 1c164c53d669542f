package tasks

import (
	"context"

	"github.com/lysyi3m/newsdesk/app/database"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(SchedulerConfig{...}, ingester, sessions, roles)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewWarmArticlesTask("climate", ingester))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type ArticleIngester interface {
	Ingest(ctx context.Context, query string, page int) ([]database.Article, error)
}

type SessionCollector interface {
	RunGC() error
}

type RoleLoader interface {
	Load() error
}
