package database

import "context"

type ArticleRepository interface {
	FindByURL(ctx context.Context, url string) (*Article, error)
	UpsertArticle(ctx context.Context, article Article) (string, error)
	GetArticleCount(ctx context.Context) (int, error)
}

type CommentRepository interface {
	InsertComment(ctx context.Context, comment Comment) (string, error)
	UpdateComment(ctx context.Context, commentID string, patch CommentPatch) (int64, error)
	// DeleteCascade removes the comment and its direct replies. Replies of
	// replies are left in place.
	DeleteCascade(ctx context.Context, commentID string) (int64, error)
	FindByArticle(ctx context.Context, articleID string) ([]Comment, error)
	CountByArticle(ctx context.Context, articleID string) (int, error)
}

type HealthChecker interface {
	Health(ctx context.Context) error
}
