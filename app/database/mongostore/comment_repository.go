package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ database.CommentRepository = (*CommentRepository)(nil)

type CommentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(coll *mongo.Collection) *CommentRepository {
	return &CommentRepository{coll: coll}
}

type commentDocument struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	ArticleID primitive.ObjectID  `bson:"article_id"`
	ParentID  *primitive.ObjectID `bson:"parent_id"`
	Text      string              `bson:"text"`
	Author    *database.Author    `bson:"author"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt *time.Time          `bson:"updated_at,omitempty"`
}

func toComment(d commentDocument, _ int) database.Comment {
	comment := database.Comment{
		ID:        d.ID.Hex(),
		ArticleID: d.ArticleID.Hex(),
		Text:      d.Text,
		Author:    d.Author,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.ParentID != nil {
		parentID := d.ParentID.Hex()
		comment.ParentID = &parentID
	}
	return comment
}

func parseID(field, id string) (primitive.ObjectID, error) {
	oid, err := database.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s %q: %w", field, id, err)
	}
	return oid, nil
}

func (r *CommentRepository) InsertComment(ctx context.Context, comment database.Comment) (string, error) {
	articleID, err := parseID("article id", comment.ArticleID)
	if err != nil {
		return "", err
	}

	doc := commentDocument{
		ID:        primitive.NewObjectID(),
		ArticleID: articleID,
		Text:      comment.Text,
		Author:    comment.Author,
		CreatedAt: comment.CreatedAt.UTC(),
	}

	if comment.ParentID != nil {
		parentID, err := parseID("parent id", *comment.ParentID)
		if err != nil {
			return "", err
		}
		doc.ParentID = &parentID
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}

	return doc.ID.Hex(), nil
}

// UpdateComment applies the patch and reports how many documents changed.
// Writing a value equal to the stored one does not count as a change.
func (r *CommentRepository) UpdateComment(ctx context.Context, commentID string, patch database.CommentPatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}

	oid, err := parseID("comment id", commentID)
	if err != nil {
		return 0, err
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "text": bson.M{"$ne": *patch.Text}},
		bson.M{"$set": bson.M{"text": *patch.Text, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update comment: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *CommentRepository) DeleteCascade(ctx context.Context, commentID string) (int64, error) {
	oid, err := parseID("comment id", commentID)
	if err != nil {
		return 0, err
	}

	result, err := r.coll.DeleteMany(ctx, bson.M{
		"$or": bson.A{
			bson.M{"_id": oid},
			bson.M{"parent_id": oid},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *CommentRepository) FindByArticle(ctx context.Context, articleID string) ([]database.Comment, error) {
	oid, err := parseID("article id", articleID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"article_id": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for article: %w", err)
	}

	docs := []commentDocument{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}

	return lo.Map(docs, toComment), nil
}

func (r *CommentRepository) CountByArticle(ctx context.Context, articleID string) (int, error) {
	oid, err := parseID("article id", articleID)
	if err != nil {
		return 0, err
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"article_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return int(count), nil
}
