package database

import (
	"time"
)

// Article is a normalized search result, unique by URL.
type Article struct {
	ID            string  `json:"_id"`
	Headline      string  `json:"headline"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	PublishedDate string  `json:"published_date"` // as reported by the search API
	Image         *string `json:"image"`
	CommentCount  int     `json:"comment_count"`
}

// Author is the identity snapshot stored with a comment.
type Author struct {
	Subject string `json:"sub,omitempty" bson:"sub,omitempty"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Name    string `json:"name,omitempty" bson:"name,omitempty"`
}

type Comment struct {
	ID        string     `json:"_id"`
	ArticleID string     `json:"article_id"`
	ParentID  *string    `json:"parent_id"` // nil for top-level comments
	Text      string     `json:"text"`
	Author    *Author    `json:"author"` // nil for anonymous comments
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentPatch holds the fields of a partial comment update. Nil fields are
// left untouched.
type CommentPatch struct {
	Text *string `json:"text"`
}

func (p CommentPatch) IsEmpty() bool {
	return p.Text == nil
}
