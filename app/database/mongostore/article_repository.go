package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/newsdesk/app/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ database.ArticleRepository = (*ArticleRepository)(nil)

type ArticleRepository struct {
	coll *mongo.Collection
}

func NewArticleRepository(coll *mongo.Collection) *ArticleRepository {
	return &ArticleRepository{coll: coll}
}

type articleDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Headline      string             `bson:"headline"`
	URL           string             `bson:"url"`
	Snippet       string             `bson:"snippet"`
	PublishedDate string             `bson:"published_date"`
	Image         *string            `bson:"image"`
}

func (d articleDocument) toArticle() database.Article {
	return database.Article{
		ID:            d.ID.Hex(),
		Headline:      d.Headline,
		URL:           d.URL,
		Snippet:       d.Snippet,
		PublishedDate: d.PublishedDate,
		Image:         d.Image,
	}
}

func (r *ArticleRepository) FindByURL(ctx context.Context, url string) (*database.Article, error) {
	var doc articleDocument
	err := r.coll.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by URL: %w", err)
	}

	article := doc.toArticle()
	return &article, nil
}

// UpsertArticle overwrites the document with the same url, or inserts a new
// one, and returns the stored document's id.
func (r *ArticleRepository) UpsertArticle(ctx context.Context, article database.Article) (string, error) {
	if article.URL == "" {
		return "", fmt.Errorf("article URL is required")
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"headline":       article.Headline,
			"snippet":        article.Snippet,
			"published_date": article.PublishedDate,
			"image":          article.Image,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var stored struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"url": article.URL}, update, opts).Decode(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to upsert article: %w", err)
	}

	return stored.ID.Hex(), nil
}

func (r *ArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return int(count), nil
}
