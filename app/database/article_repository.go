package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

type dbArticle struct {
	ID            string         `db:"id"`
	Headline      string         `db:"headline"`
	URL           string         `db:"url"`
	Snippet       string         `db:"snippet"`
	PublishedDate string         `db:"published_date"`
	Image         sql.NullString `db:"image"`
}

func (a dbArticle) toArticle() Article {
	article := Article{
		ID:            a.ID,
		Headline:      a.Headline,
		URL:           a.URL,
		Snippet:       a.Snippet,
		PublishedDate: a.PublishedDate,
	}
	if a.Image.Valid {
		image := a.Image.String
		article.Image = &image
	}
	return article
}

func (r *SQLArticleRepository) FindByURL(ctx context.Context, url string) (*Article, error) {
	var row dbArticle
	err := r.db.GetContext(ctx, &row, `
		SELECT id, headline, url, snippet, published_date, image
		FROM articles
		WHERE url = ?
	`, url)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by URL: %w", err)
	}

	article := row.toArticle()
	return &article, nil
}

// UpsertArticle inserts the article or overwrites the record with the same
// URL, returning the id of the stored record.
func (r *SQLArticleRepository) UpsertArticle(ctx context.Context, article Article) (string, error) {
	if article.URL == "" {
		return "", fmt.Errorf("article URL is required")
	}

	var image sql.NullString
	if article.Image != nil {
		image = sql.NullString{String: *article.Image, Valid: true}
	}

	now := formatTimestamp(time.Now())

	var id string
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO articles (id, headline, url, snippet, published_date, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			headline = excluded.headline,
			snippet = excluded.snippet,
			published_date = excluded.published_date,
			image = excluded.image,
			updated_at = excluded.updated_at
		RETURNING id
	`, NewID(), article.Headline, article.URL, article.Snippet, article.PublishedDate, image, now, now).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert article: %w", err)
	}

	return id, nil
}

func (r *SQLArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM articles")
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
