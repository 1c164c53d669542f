package api

import (
	"context"
	"time"

	"github.com/lysyi3m/newsdesk/app/auth"
	"github.com/lysyi3m/newsdesk/app/comments"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/news"
)

type ArticleIngester interface {
	Ingest(ctx context.Context, query string, page int) ([]database.Article, error)
}

type CommentService interface {
	Create(ctx context.Context, input comments.CreateInput, author *auth.Identity) (string, error)
	Update(ctx context.Context, commentID string, patch database.CommentPatch) (int64, error)
	Delete(ctx context.Context, commentID string, actor *auth.Identity) (int64, error)
	Thread(ctx context.Context, articleID string) ([]*comments.Node, error)
}

var (
	_ ArticleIngester        = (*news.Ingester)(nil)
	_ CommentService         = (*comments.Service)(nil)
	_ auth.Authenticator     = (*auth.LazyAuthenticator)(nil)
	_ database.HealthChecker = (*database.DB)(nil)
)

// Settings are the request-independent values handlers need.
type Settings struct {
	NYTAPIKey     string
	FrontendURL   string // where the browser lands after login and logout
	ProviderName  string
	SessionTTL    time.Duration
	SecureCookies bool
	Version       string
}

type Handler struct {
	ingester      ArticleIngester
	comments      CommentService
	articleRepo   database.ArticleRepository
	store         database.HealthChecker
	sessions      *auth.SessionStore
	authenticator auth.Authenticator
	settings      Settings
}

type createCommentRequest struct {
	ArticleID string `json:"article_id" binding:"required,objectid"`
	ParentID  string `json:"parent_id" binding:"omitempty,objectid"`
	Text      string `json:"text" binding:"required"`
}

type updateCommentRequest struct {
	Text *string `json:"text"`
}
