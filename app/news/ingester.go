package news

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lysyi3m/newsdesk/app/apperr"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/samber/lo"
)

const DefaultQuery = "davis/sacramento"

type Searcher interface {
	Search(ctx context.Context, query string, page int) ([]Document, error)
}

type Ingester struct {
	searcher     Searcher
	articleRepo  database.ArticleRepository
	commentRepo  database.CommentRepository
	defaultQuery string
}

func NewIngester(searcher Searcher, articleRepo database.ArticleRepository, commentRepo database.CommentRepository, defaultQuery string) *Ingester {
	return &Ingester{
		searcher:     searcher,
		articleRepo:  articleRepo,
		commentRepo:  commentRepo,
		defaultQuery: cmp.Or(strings.TrimSpace(defaultQuery), DefaultQuery),
	}
}

// Ingest fetches one page of search results, upserts every article by URL and
// returns the stored articles with their comment counts. A store failure
// aborts the call; articles written before it stay written.
func (i *Ingester) Ingest(ctx context.Context, query string, page int) ([]database.Article, error) {
	if page < 0 {
		return nil, apperr.Validation("page", strconv.Itoa(page), "must be a non-negative integer")
	}

	query = cmp.Or(strings.TrimSpace(query), i.defaultQuery)

	docs, err := i.searcher.Search(ctx, query, page)
	if err != nil {
		slog.Error("Article search failed", "query", query, "page", page, "error", err)
		return nil, err
	}

	articles := make([]database.Article, 0, len(docs))
	for _, doc := range docs {
		article, ok := normalizeDocument(doc)
		if !ok {
			slog.Debug("Skipping search document without URL", "query", query, "headline", doc.Headline.Main)
			documentsSkippedTotal.Inc()
			continue
		}

		id, err := i.store(ctx, article)
		if err != nil {
			return nil, err
		}
		article.ID = id

		count, err := i.commentRepo.CountByArticle(ctx, id)
		if err != nil {
			slog.Error("Database error", "operation", "count_comments", "article_id", id, "error", err)
			return nil, fmt.Errorf("failed to count comments for article %s: %w", id, err)
		}
		article.CommentCount = count

		articles = append(articles, article)
	}

	slog.Debug("Articles ingested", "query", query, "page", page, "documents", len(docs), "stored", len(articles))
	return articles, nil
}

// store writes the article unless the stored record under its URL already
// holds the same content, and returns the record's id.
func (i *Ingester) store(ctx context.Context, article database.Article) (string, error) {
	existing, err := i.articleRepo.FindByURL(ctx, article.URL)
	if err != nil {
		slog.Error("Database error", "operation", "find_article", "url", article.URL, "error", err)
		return "", fmt.Errorf("failed to look up article %s: %w", article.URL, err)
	}

	if existing != nil && sameContent(*existing, article) {
		articlesUpsertedTotal.WithLabelValues("unchanged").Inc()
		return existing.ID, nil
	}

	id, err := i.articleRepo.UpsertArticle(ctx, article)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_article", "url", article.URL, "error", err)
		return "", fmt.Errorf("failed to store article %s: %w", article.URL, err)
	}

	if existing == nil {
		articlesUpsertedTotal.WithLabelValues("created").Inc()
	} else {
		articlesUpsertedTotal.WithLabelValues("updated").Inc()
	}
	return id, nil
}

func sameContent(a, b database.Article) bool {
	return a.Headline == b.Headline &&
		a.Snippet == b.Snippet &&
		a.PublishedDate == b.PublishedDate &&
		lo.FromPtr(a.Image) == lo.FromPtr(b.Image) &&
		(a.Image == nil) == (b.Image == nil)
}

// ParsePage converts the raw page query parameter. An empty value is page 0.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, apperr.Validation("page", raw, "must be a non-negative integer")
	}
	return page, nil
}
