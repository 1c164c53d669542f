package news

import (
	"cmp"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/lysyi3m/newsdesk/app/database"
)

const imageHost = "https://static01.nyt.com/"

// normalizeDocument maps a search document to an Article. The second result
// is false when the document has no URL and cannot be stored.
func normalizeDocument(doc Document) (database.Article, bool) {
	if strings.TrimSpace(doc.WebURL) == "" {
		return database.Article{}, false
	}

	return database.Article{
		Headline:      doc.Headline.Main,
		URL:           doc.WebURL,
		Snippet:       cmp.Or(doc.Snippet, doc.Abstract),
		PublishedDate: doc.PubDate,
		Image:         extractImage(doc.Multimedia),
	}, true
}

// extractImage returns the default rendition of a multimedia field, or nil.
// Two shapes are in the wild: an object keyed by rendition name and a list of
// entries tagged with a subtype.
func extractImage(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var renditions struct {
		Default *struct {
			URL string `json:"url"`
		} `json:"default"`
	}
	if err := json.Unmarshal(raw, &renditions); err == nil {
		if renditions.Default != nil && renditions.Default.URL != "" {
			return resolveImage(renditions.Default.URL)
		}
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	for _, entry := range entries {
		var media struct {
			Subtype string `json:"subtype"`
			URL     string `json:"url"`
		}
		if err := json.Unmarshal(entry, &media); err != nil {
			continue
		}
		if media.Subtype == "default" && media.URL != "" {
			return resolveImage(media.URL)
		}
	}

	return nil
}

func resolveImage(ref string) *string {
	if parsed, err := url.Parse(ref); err == nil && parsed.IsAbs() {
		return &ref
	}
	resolved := imageHost + strings.TrimPrefix(ref, "/")
	return &resolved
}
