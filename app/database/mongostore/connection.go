// Package mongostore implements the article and comment repositories on
// MongoDB, the document store the service originally ran on.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	articlesCollection = "articles"
	commentsCollection = "comments"
)

type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Client, error) {
	if database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Client{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique url index upserts rely on, plus the
// lookup indexes for comment threads.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(articlesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create articles index: %w", err)
	}

	_, err = c.db.Collection(commentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "article_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create comments indexes: %w", err)
	}

	return nil
}

func (c *Client) Articles() *ArticleRepository {
	return NewArticleRepository(c.db.Collection(articlesCollection))
}

func (c *Client) Comments() *CommentRepository {
	return NewCommentRepository(c.db.Collection(commentsCollection))
}

func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
