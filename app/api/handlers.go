package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/auth"
	"github.com/lysyi3m/newsdesk/app/comments"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/news"
)

const healthTimeout = 3 * time.Second

func NewHandler(ingester ArticleIngester, commentService CommentService,
	articleRepo database.ArticleRepository, store database.HealthChecker,
	sessions *auth.SessionStore, authenticator auth.Authenticator, settings Settings) *Handler {
	return &Handler{
		ingester:      ingester,
		comments:      commentService,
		articleRepo:   articleRepo,
		store:         store,
		sessions:      sessions,
		authenticator: authenticator,
		settings:      settings,
	}
}

func (h *Handler) GetAPIKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apiKey": h.settings.NYTAPIKey})
}

func (h *Handler) GetArticles(c *gin.Context) {
	page, err := news.ParsePage(c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}

	articles, err := h.ingester.Ingest(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	input := comments.CreateInput{
		ArticleID: req.ArticleID,
		Text:      req.Text,
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	id, err := h.comments.Create(c.Request.Context(), input, auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"inserted_id": id})
}

func (h *Handler) GetComments(c *gin.Context) {
	thread, err := h.comments.Thread(c.Request.Context(), c.Param("article_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, thread)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	modified, err := h.comments.Update(c.Request.Context(), c.Param("comment_id"), database.CommentPatch{Text: req.Text})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"modified_count": modified})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	deleted, err := h.comments.Delete(c.Request.Context(), c.Param("comment_id"), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.settings.Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}
	status := http.StatusOK

	if err := h.store.Health(ctx); err != nil {
		health["status"] = "degraded"
		health["store_error"] = err.Error()
		status = http.StatusServiceUnavailable
	} else if articleCount, err := h.articleRepo.GetArticleCount(ctx); err == nil {
		health["articles"] = articleCount
	}

	if sessionCount, err := h.sessions.Count(); err == nil {
		health["sessions"] = sessionCount
	}

	c.JSON(status, health)
}
