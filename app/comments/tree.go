package comments

import (
	"fmt"

	"github.com/lysyi3m/newsdesk/app/database"
)

// OrphanPolicy decides what happens to a reply whose parent is not among the
// comments being assembled.
type OrphanPolicy int

const (
	OrphanDrop OrphanPolicy = iota
	OrphanPromote
)

func (p OrphanPolicy) String() string {
	switch p {
	case OrphanPromote:
		return "promote"
	default:
		return "drop"
	}
}

func ParseOrphanPolicy(value string) (OrphanPolicy, error) {
	switch value {
	case "", "drop":
		return OrphanDrop, nil
	case "promote":
		return OrphanPromote, nil
	default:
		return OrphanDrop, fmt.Errorf("unknown orphan policy %q", value)
	}
}

// ReplyNesting decides how replies to replies are rendered.
type ReplyNesting int

const (
	// NestOneLevel lists every reply of a thread, however deep, in the
	// replies of its top-level comment. Replies never carry replies.
	NestOneLevel ReplyNesting = iota
	// NestFull nests each reply under its direct parent.
	NestFull
)

func (n ReplyNesting) String() string {
	switch n {
	case NestFull:
		return "nested"
	default:
		return "flat"
	}
}

func ParseReplyNesting(value string) (ReplyNesting, error) {
	switch value {
	case "", "flat":
		return NestOneLevel, nil
	case "nested":
		return NestFull, nil
	default:
		return NestOneLevel, fmt.Errorf("unknown reply nesting %q", value)
	}
}

// TreeOptions controls BuildTree. The zero value drops orphans and renders
// one level of replies.
type TreeOptions struct {
	Orphans OrphanPolicy
	Nesting ReplyNesting
}

// Node is a comment with its replies attached.
type Node struct {
	database.Comment
	Replies []*Node `json:"replies"`
}

// BuildTree attaches replies to the comments they answer. Top-level nodes and
// replies keep the order of the input slice. A comment naming itself as
// parent is an orphan; comments in a longer parent cycle are never rendered.
func BuildTree(comments []database.Comment, opts TreeOptions) []*Node {
	index := make(map[string]*Node, len(comments))
	nodes := make([]*Node, len(comments))
	for i, comment := range comments {
		node := &Node{Comment: comment, Replies: []*Node{}}
		nodes[i] = node
		index[comment.ID] = node
	}

	roots := []*Node{}
	for _, node := range nodes {
		if node.IsTopLevel() {
			roots = append(roots, node)
			continue
		}

		parent, ok := index[*node.ParentID]
		if !ok || parent == node {
			if opts.Orphans == OrphanPromote {
				roots = append(roots, node)
			}
			continue
		}

		if opts.Nesting == NestOneLevel {
			parent, ok = threadRoot(parent, index, opts.Orphans, len(nodes))
			if !ok {
				continue
			}
		}
		parent.Replies = append(parent.Replies, node)
	}

	return roots
}

// threadRoot follows parent links from node up to the comment rendered at the
// top of its thread. It reports false when that comment is not rendered: a
// dropped orphan or a parent cycle.
func threadRoot(node *Node, index map[string]*Node, orphans OrphanPolicy, limit int) (*Node, bool) {
	for step := 0; step < limit; step++ {
		if node.IsTopLevel() {
			return node, true
		}

		parent, ok := index[*node.ParentID]
		if !ok || parent == node {
			return node, orphans == OrphanPromote
		}
		node = parent
	}
	return nil, false
}
