package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/apperr"
)

const searchFixture = `{
  "status": "OK",
  "response": {
    "docs": [
      {
        "headline": {"main": "Test Headline"},
        "web_url": "https://www.nytimes.com/2024/01/01/us/test.html",
        "snippet": "Test snippet",
        "pub_date": "2024-01-01T00:00:00Z",
        "multimedia": {"default": {"url": "https://static01.nyt.com/images/test.jpg"}}
      },
      {
        "headline": {"main": "Second Headline"},
        "web_url": "https://www.nytimes.com/2024/01/02/us/second.html",
        "abstract": "Only an abstract",
        "pub_date": "2024-01-02T00:00:00Z",
        "multimedia": [
          {"subtype": "thumbnail", "url": "images/thumb.jpg"},
          {"subtype": "default", "url": "images/second.jpg"}
        ]
      },
      {"headline": "no url"},
      42
    ]
  }
}`

func TestSearchClientSearch(t *testing.T) {
	var gotQuery, gotPage, gotKey, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotPage = r.URL.Query().Get("page")
		gotKey = r.URL.Query().Get("api-key")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	client := NewSearchClient(server.Client(), server.URL, "secret", "newsdesk/test", 0)

	docs, err := client.Search(context.Background(), "test", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "test" || gotPage != "1" || gotKey != "secret" {
		t.Errorf("Unexpected query parameters q=%q page=%q api-key=%q", gotQuery, gotPage, gotKey)
	}
	if gotUserAgent != "newsdesk/test" {
		t.Errorf("Expected User-Agent newsdesk/test, got %q", gotUserAgent)
	}

	if len(docs) != 3 {
		t.Fatalf("Expected 3 decodable documents, got %d", len(docs))
	}
	if docs[0].Headline.Main != "Test Headline" {
		t.Errorf("Expected first headline 'Test Headline', got %q", docs[0].Headline.Main)
	}
}

func TestSearchClientMalformedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"docs": [
			{"headline": "plain string", "web_url": "https://example.com/a", "pub_date": 20240101},
			{"headline": {"main": "ok"}, "web_url": "https://example.com/b", "snippet": 7, "abstract": ["x"]},
			{"headline": {"main": 5}, "web_url": 9, "snippet": "kept"}
		]}}`))
	}))
	defer server.Close()

	client := NewSearchClient(server.Client(), server.URL, "key", "", 0)
	docs, err := client.Search(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(docs))
	}

	tests := []struct {
		headline string
		url      string
		snippet  string
		pubDate  string
	}{
		{headline: "plain string", url: "https://example.com/a"},
		{headline: "ok", url: "https://example.com/b"},
		{snippet: "kept"},
	}

	for i, tt := range tests {
		doc := docs[i]
		if doc.Headline.Main != tt.headline {
			t.Errorf("Doc %d: expected headline %q, got %q", i, tt.headline, doc.Headline.Main)
		}
		if doc.WebURL != tt.url {
			t.Errorf("Doc %d: expected url %q, got %q", i, tt.url, doc.WebURL)
		}
		if doc.Snippet != tt.snippet {
			t.Errorf("Doc %d: expected snippet %q, got %q", i, tt.snippet, doc.Snippet)
		}
		if doc.PubDate != tt.pubDate || doc.Abstract != "" {
			t.Errorf("Doc %d: expected empty pub_date and abstract, got %q and %q", i, doc.PubDate, doc.Abstract)
		}
	}
}

func TestSearchClientUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: 500},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"fault":"invalid key"}`, wantStatus: 401},
		{name: "invalid json", status: http.StatusOK, body: "<html>", wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewSearchClient(server.Client(), server.URL, "key", "", 0)
			_, err := client.Search(context.Background(), "q", 0)

			var upstreamErr *apperr.UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("Expected UpstreamError, got %v", err)
			}
			if upstreamErr.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, upstreamErr.StatusCode)
			}
		})
	}
}

func TestSearchClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewSearchClient(&http.Client{Timeout: time.Second}, url, "key", "", 0)
	_, err := client.Search(context.Background(), "q", 0)

	var upstreamErr *apperr.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != 0 {
		t.Errorf("Expected status 0 for transport error, got %d", upstreamErr.StatusCode)
	}
}

func TestSearchClientRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"docs":[]}}`))
	}))
	defer server.Close()

	client := NewSearchClient(server.Client(), server.URL, "key", "", 0.001)

	if _, err := client.Search(context.Background(), "q", 0); err != nil {
		t.Fatalf("First search should pass the limiter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "q", 0)
	var upstreamErr *apperr.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError from limiter wait, got %v", err)
	}
}
