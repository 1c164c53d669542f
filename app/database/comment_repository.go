package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ CommentRepository = (*SQLCommentRepository)(nil)

type SQLCommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *SQLCommentRepository {
	return &SQLCommentRepository{db: db}
}

type dbComment struct {
	ID        string         `db:"id"`
	ArticleID string         `db:"article_id"`
	ParentID  sql.NullString `db:"parent_id"`
	Text      string         `db:"text"`
	Author    sql.NullString `db:"author"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt sql.NullString `db:"updated_at"`
}

func (c dbComment) toComment() (Comment, error) {
	comment := Comment{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		Text:      c.Text,
	}

	if c.ParentID.Valid {
		parentID := c.ParentID.String
		comment.ParentID = &parentID
	}

	if c.Author.Valid {
		var author Author
		if err := json.Unmarshal([]byte(c.Author.String), &author); err != nil {
			return Comment{}, fmt.Errorf("failed to decode author of comment %s: %w", c.ID, err)
		}
		comment.Author = &author
	}

	createdAt, err := parseTimestamp(c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	comment.CreatedAt = createdAt

	if c.UpdatedAt.Valid {
		updatedAt, err := parseTimestamp(c.UpdatedAt.String)
		if err != nil {
			return Comment{}, err
		}
		comment.UpdatedAt = &updatedAt
	}

	return comment, nil
}

func (r *SQLCommentRepository) InsertComment(ctx context.Context, comment Comment) (string, error) {
	var parentID sql.NullString
	if comment.ParentID != nil {
		parentID = sql.NullString{String: *comment.ParentID, Valid: true}
	}

	var author sql.NullString
	if comment.Author != nil {
		data, err := json.Marshal(comment.Author)
		if err != nil {
			return "", fmt.Errorf("failed to encode author: %w", err)
		}
		author = sql.NullString{String: string(data), Valid: true}
	}

	id := NewID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, article_id, parent_id, text, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, comment.ArticleID, parentID, comment.Text, author, formatTimestamp(comment.CreatedAt))

	if err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}

	return id, nil
}

// UpdateComment applies the patch and reports how many records changed.
// Writing a value equal to the stored one does not count as a change.
func (r *SQLCommentRepository) UpdateComment(ctx context.Context, commentID string, patch CommentPatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE comments
		SET text = ?, updated_at = ?
		WHERE id = ? AND text <> ?
	`, *patch.Text, formatTimestamp(time.Now()), commentID, *patch.Text)

	if err != nil {
		return 0, fmt.Errorf("failed to update comment: %w", err)
	}

	modified, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update result: %w", err)
	}

	return modified, nil
}

func (r *SQLCommentRepository) DeleteCascade(ctx context.Context, commentID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM comments
		WHERE id = ? OR parent_id = ?
	`, commentID, commentID)

	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return deleted, nil
}

func (r *SQLCommentRepository) FindByArticle(ctx context.Context, articleID string) ([]Comment, error) {
	var rows []dbComment
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, article_id, parent_id, text, author, created_at, updated_at
		FROM comments
		WHERE article_id = ?
		ORDER BY created_at, id
	`, articleID)

	if err != nil {
		return nil, fmt.Errorf("failed to get comments for article: %w", err)
	}

	comments := make([]Comment, 0, len(rows))
	for _, row := range rows {
		comment, err := row.toComment()
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func (r *SQLCommentRepository) CountByArticle(ctx context.Context, articleID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM comments WHERE article_id = ?", articleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
