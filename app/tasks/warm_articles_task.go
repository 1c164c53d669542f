package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// WarmArticlesTask ingests the first result page of a query so articles and
// their ids exist before a browser asks for them.
type WarmArticlesTask struct {
	Task
	ingester ArticleIngester
}

func NewWarmArticlesTask(query string, ingester ArticleIngester) *WarmArticlesTask {
	return &WarmArticlesTask{
		Task:     NewTask(TaskTypeWarmArticles, query),
		ingester: ingester,
	}
}

func (t *WarmArticlesTask) Execute(ctx context.Context) error {
	articles, err := t.ingester.Ingest(ctx, t.Subject, 0)
	if err != nil {
		return fmt.Errorf("failed to warm articles for %q: %w", t.Subject, err)
	}

	slog.Debug("Articles warmed", "query", t.Subject, "count", len(articles), "duration", t.GetDuration())
	return nil
}
