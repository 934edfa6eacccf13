package memoir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Document is one retrieved source handed to the model as grounding context.
type Document struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Retriever fetches documents relevant to a query. Retrieval feeds the
// prompt the same way history does: the model only knows what gets injected.
type Retriever interface {
	Search(ctx context.Context, query string, top int) ([]Document, error)
}

const (
	searchAPIVersion  = "2024-07-01"
	defaultSearchTop  = 3
	searchHTTPTimeout = 30 * time.Second
)

var _ Retriever = &SearchClient{}

// SearchClient queries a hosted search index over its REST surface. The
// index itself is managed elsewhere; this client only reads from it.
type SearchClient struct {
	endpoint   string
	index      string
	apiKey     string
	httpClient *http.Client
}

func NewSearchClient(endpoint string, index string, apiKey string) *SearchClient {
	return &SearchClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		index:    index,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: searchHTTPTimeout,
		},
	}
}

type searchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
}

type searchResponse struct {
	Value []struct {
		Score   float64 `json:"@search.score"`
		ID      string  `json:"id"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
	} `json:"value"`
}

// Search queries the index and returns up to top documents, best first.
func (c *SearchClient) Search(ctx context.Context, query string, top int) ([]Document, error) {
	if top <= 0 {
		top = defaultSearchTop
	}

	payload, err := json.Marshal(searchRequest{Search: query, Top: top})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, searchAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, truncate(string(body), 400))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	docs := make([]Document, 0, len(parsed.Value))
	for _, v := range parsed.Value {
		docs = append(docs, Document{
			ID:      v.ID,
			Title:   v.Title,
			Content: v.Content,
			Score:   v.Score,
		})
	}
	return docs, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ Retriever = &StaticRetriever{}

// StaticRetriever serves a fixed document set, scored by term overlap with
// the query. It lets demos and tests run without a search backend.
type StaticRetriever struct {
	Documents []Document
}

func (r *StaticRetriever) Search(ctx context.Context, query string, top int) ([]Document, error) {
	if top <= 0 {
		top = defaultSearchTop
	}

	terms := strings.Fields(strings.ToLower(query))
	scored := make([]Document, 0, len(r.Documents))
	for _, doc := range r.Documents {
		haystack := strings.ToLower(doc.Title + " " + doc.Content)
		score := 0.0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if score > 0 {
			doc.Score = score
			scored = append(scored, doc)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > top {
		scored = scored[:top]
	}
	return scored, nil
}
