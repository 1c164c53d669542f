package comments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/newsdesk/app/apperr"
	"github.com/lysyi3m/newsdesk/app/auth"
	"github.com/lysyi3m/newsdesk/app/database"
)

// Roles allowed to delete comments.
var deleteRoles = []string{auth.RoleAdmin, auth.RoleModerator}

type CreateInput struct {
	ArticleID string
	ParentID  *string
	Text      string
}

type Service struct {
	commentRepo database.CommentRepository
	tree        TreeOptions
	now         func() time.Time
}

func NewService(commentRepo database.CommentRepository, tree TreeOptions) *Service {
	return &Service{
		commentRepo: commentRepo,
		tree:        tree,
		now:         time.Now,
	}
}

// Create stores a comment and returns its id. A nil author stores an
// anonymous comment.
func (s *Service) Create(ctx context.Context, input CreateInput, author *auth.Identity) (string, error) {
	if !database.ValidID(input.ArticleID) {
		return "", apperr.Validation("article_id", input.ArticleID, "not a valid object id")
	}

	parentID := input.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil && !database.ValidID(*parentID) {
		return "", apperr.Validation("parent_id", *parentID, "not a valid object id")
	}

	if strings.TrimSpace(input.Text) == "" {
		return "", apperr.Validation("text", "", "must not be empty")
	}

	comment := database.Comment{
		ArticleID: input.ArticleID,
		ParentID:  parentID,
		Text:      input.Text,
		Author:    author.Snapshot(),
		CreatedAt: s.now().UTC(),
	}

	id, err := s.commentRepo.InsertComment(ctx, comment)
	if err != nil {
		slog.Error("Database error", "operation", "insert_comment", "article_id", input.ArticleID, "error", err)
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}

	slog.Debug("Comment created", "comment_id", id, "article_id", input.ArticleID, "reply", parentID != nil, "author", author.DisplayName())
	return id, nil
}

// Update applies patch and returns the number of comments modified: 0 when
// the comment does not exist or already has the requested values.
func (s *Service) Update(ctx context.Context, commentID string, patch database.CommentPatch) (int64, error) {
	if !database.ValidID(commentID) {
		return 0, apperr.Validation("comment_id", commentID, "not a valid object id")
	}

	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return 0, apperr.Validation("text", "", "must not be empty")
	}

	if patch.IsEmpty() {
		return 0, nil
	}

	modified, err := s.commentRepo.UpdateComment(ctx, commentID, patch)
	if err != nil {
		slog.Error("Database error", "operation", "update_comment", "comment_id", commentID, "error", err)
		return 0, fmt.Errorf("failed to update comment: %w", err)
	}

	return modified, nil
}

// Delete removes a comment together with its direct replies. Only admins and
// moderators may delete; anyone else gets an AuthorizationError before the
// store is touched.
func (s *Service) Delete(ctx context.Context, commentID string, actor *auth.Identity) (int64, error) {
	if !actor.HasAnyRole(deleteRoles...) {
		slog.Warn("Comment delete refused", "comment_id", commentID, "actor", actor.DisplayName())
		return 0, apperr.Authorization(actor.DisplayName(), deleteRoles...)
	}

	if !database.ValidID(commentID) {
		return 0, apperr.Validation("comment_id", commentID, "not a valid object id")
	}

	deleted, err := s.commentRepo.DeleteCascade(ctx, commentID)
	if err != nil {
		slog.Error("Database error", "operation", "delete_comment", "comment_id", commentID, "error", err)
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}

	slog.Info("Comment deleted", "comment_id", commentID, "deleted_count", deleted, "actor", actor.DisplayName())
	return deleted, nil
}

func (s *Service) ListForArticle(ctx context.Context, articleID string) ([]database.Comment, error) {
	if !database.ValidID(articleID) {
		return nil, apperr.Validation("article_id", articleID, "not a valid object id")
	}

	comments, err := s.commentRepo.FindByArticle(ctx, articleID)
	if err != nil {
		slog.Error("Database error", "operation", "find_comments", "article_id", articleID, "error", err)
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	return comments, nil
}

// Thread returns the comments of an article as a tree.
func (s *Service) Thread(ctx context.Context, articleID string) ([]*Node, error) {
	comments, err := s.ListForArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return BuildTree(comments, s.tree), nil
}
