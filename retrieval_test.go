package memoir

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, but got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/indexes/kb/docs/search") {
			t.Errorf("Expected the index search path, but got %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("Expected api-key header 'secret', but got '%s'", r.Header.Get("api-key"))
		}

		var req struct {
			Search string `json:"search"`
			Top    int    `json:"top"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode search request: %v", err)
		}
		if req.Search != "return policy" {
			t.Errorf("Expected search 'return policy', but got '%s'", req.Search)
		}
		if req.Top != 2 {
			t.Errorf("Expected top 2, but got %d", req.Top)
		}

		response := map[string]interface{}{
			"value": []map[string]interface{}{
				{"@search.score": 7.5, "id": "1", "title": "Returns policy", "content": "30 days."},
				{"@search.score": 2.25, "id": "2", "title": "Shipping", "content": "2 business days."},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("Failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewSearchClient(server.URL, "kb", "secret")
	docs, err := client.Search(context.Background(), "return policy", 2)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, but got %d", len(docs))
	}
	if docs[0].Title != "Returns policy" || docs[0].Score != 7.5 {
		t.Fatalf("Expected the first document with its score, but got %+v", docs[0])
	}
}

func TestSearchClientNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"index not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewSearchClient(server.URL, "missing", "secret")
	if _, err := client.Search(context.Background(), "anything", 3); err == nil {
		t.Fatalf("Expected an error for a 404 response, but got none")
	}
}

func TestStaticRetriever(t *testing.T) {
	retriever := &StaticRetriever{
		Documents: []Document{
			{ID: "1", Title: "Returns policy", Content: "Items can be returned within 30 days."},
			{ID: "2", Title: "Shipping", Content: "Orders ship within 2 business days."},
			{ID: "3", Title: "Gift cards", Content: "Gift cards never expire."},
		},
	}

	t.Run("RanksByOverlap", func(t *testing.T) {
		docs, err := retriever.Search(context.Background(), "when can items be returned", 2)
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		if len(docs) == 0 {
			t.Fatalf("Expected at least one document")
		}
		if docs[0].Title != "Returns policy" {
			t.Fatalf("Expected 'Returns policy' first, but got '%s'", docs[0].Title)
		}
	})

	t.Run("RespectsTop", func(t *testing.T) {
		docs, err := retriever.Search(context.Background(), "items orders gift", 1)
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		if len(docs) > 1 {
			t.Fatalf("Expected at most 1 document, but got %d", len(docs))
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		docs, err := retriever.Search(context.Background(), "zzzz", 3)
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		if len(docs) != 0 {
			t.Fatalf("Expected no documents, but got %d", len(docs))
		}
	})
}
