package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestArticleRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("upsert returns stored id", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)
		storedID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: storedID}}},
		))

		id, err := repo.UpsertArticle(ctx, database.Article{Headline: "Test Headline", URL: "https://example.com"})
		require.NoError(mt, err)
		assert.Equal(mt, storedID.Hex(), id)
	})

	mt.Run("upsert requires url", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)

		_, err := repo.UpsertArticle(ctx, database.Article{Headline: "No URL"})
		assert.Error(mt, err)
	})

	mt.Run("upsert surfaces store errors", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := repo.UpsertArticle(ctx, database.Article{URL: "https://example.com"})
		assert.ErrorContains(mt, err, "failed to upsert article")
	})

	mt.Run("find by url", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)
		storedID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: storedID},
			{Key: "headline", Value: "Test Headline"},
			{Key: "url", Value: "https://example.com"},
			{Key: "snippet", Value: "Test Snippet"},
			{Key: "published_date", Value: "2024-01-01T00:00:00Z"},
			{Key: "image", Value: nil},
		}))

		article, err := repo.FindByURL(ctx, "https://example.com")
		require.NoError(mt, err)
		require.NotNil(mt, article)
		assert.Equal(mt, storedID.Hex(), article.ID)
		assert.Equal(mt, "Test Headline", article.Headline)
		assert.Nil(mt, article.Image)
	})

	mt.Run("find by url missing", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		article, err := repo.FindByURL(ctx, "https://example.com/missing")
		require.NoError(mt, err)
		assert.Nil(mt, article)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewArticleRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(4)},
		}))

		count, err := repo.GetArticleCount(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, 4, count)
	})
}

func TestCommentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)
		parentID := database.NewID()

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := repo.InsertComment(ctx, database.Comment{
			ArticleID: database.NewID(),
			ParentID:  &parentID,
			Text:      "Reply",
			CreatedAt: time.Now(),
		})
		require.NoError(mt, err)
		assert.True(mt, database.ValidID(id))
	})

	mt.Run("insert rejects malformed ids", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)
		badParent := "not-an-id"

		_, err := repo.InsertComment(ctx, database.Comment{ArticleID: "xyz", Text: "x"})
		assert.ErrorContains(mt, err, "invalid article id")

		_, err = repo.InsertComment(ctx, database.Comment{ArticleID: database.NewID(), ParentID: &badParent, Text: "x"})
		assert.ErrorContains(mt, err, "invalid parent id")
	})

	mt.Run("update reports modified count", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)
		text := "Edited"

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		modified, err := repo.UpdateComment(ctx, database.NewID(), database.CommentPatch{Text: &text})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), modified)
	})

	mt.Run("empty update does not reach the store", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)

		modified, err := repo.UpdateComment(ctx, database.NewID(), database.CommentPatch{})
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), modified)
	})

	mt.Run("delete cascade", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		deleted, err := repo.DeleteCascade(ctx, database.NewID())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), deleted)
	})

	mt.Run("find by article", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)
		articleID := primitive.NewObjectID()
		parentID := primitive.NewObjectID()
		replyID := primitive.NewObjectID()
		createdAt := time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: parentID},
				{Key: "article_id", Value: articleID},
				{Key: "parent_id", Value: nil},
				{Key: "text", Value: "Parent comment"},
				{Key: "author", Value: bson.D{{Key: "email", Value: "test@example.com"}}},
				{Key: "created_at", Value: createdAt},
			},
			bson.D{
				{Key: "_id", Value: replyID},
				{Key: "article_id", Value: articleID},
				{Key: "parent_id", Value: parentID},
				{Key: "text", Value: "Reply"},
				{Key: "author", Value: nil},
				{Key: "created_at", Value: createdAt.Add(time.Minute)},
			},
		))

		comments, err := repo.FindByArticle(ctx, articleID.Hex())
		require.NoError(mt, err)
		require.Len(mt, comments, 2)

		assert.Equal(mt, parentID.Hex(), comments[0].ID)
		assert.Nil(mt, comments[0].ParentID)
		require.NotNil(mt, comments[0].Author)
		assert.Equal(mt, "test@example.com", comments[0].Author.Email)
		assert.True(mt, createdAt.Equal(comments[0].CreatedAt))

		require.NotNil(mt, comments[1].ParentID)
		assert.Equal(mt, parentID.Hex(), *comments[1].ParentID)
		assert.Nil(mt, comments[1].Author)
	})

	mt.Run("count by article", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(2)},
		}))

		count, err := repo.CountByArticle(ctx, database.NewID())
		require.NoError(mt, err)
		assert.Equal(mt, 2, count)
	})
}
