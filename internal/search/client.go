package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Result is a single hit from either search provider.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// WebClient queries a Serper-style web search API.
type WebClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewWebClient(baseURL, apiKey string) *WebClient {
	return &WebClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type webSearchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type webSearchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search runs a web query, retrying network-class failures.
func (c *WebClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	payload, err := json.Marshal(webSearchRequest{Query: query, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	var results []Result
	err = withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return permanent(fmt.Errorf("create search request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Connection-level failure: retryable.
			return fmt.Errorf("web search request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return permanent(fmt.Errorf("web search: status %d: %s", resp.StatusCode, string(body)))
		}

		var parsed webSearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return permanent(fmt.Errorf("decode web search response: %w", err))
		}

		results = results[:0]
		for _, hit := range parsed.Organic {
			results = append(results, Result{Title: hit.Title, URL: hit.Link, Description: hit.Snippet})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// VideoClient queries a YouTube-style video search API.
type VideoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewVideoClient(baseURL, apiKey string) *VideoClient {
	return &VideoClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type videoSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search runs a video query, retrying network-class failures.
func (c *VideoClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", query)
	q.Set("maxResults", fmt.Sprintf("%d", limit))
	q.Set("key", c.apiKey)

	var results []Result
	err := withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/youtube/v3/search?"+q.Encode(), nil)
		if err != nil {
			return permanent(fmt.Errorf("create video search request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("video search request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return permanent(fmt.Errorf("video search: status %d: %s", resp.StatusCode, string(body)))
		}

		var parsed videoSearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return permanent(fmt.Errorf("decode video search response: %w", err))
		}

		results = results[:0]
		for _, item := range parsed.Items {
			results = append(results, Result{
				Title:       item.Snippet.Title,
				URL:         "https://www.youtube.com/watch?v=" + item.ID.VideoID,
				Description: item.Snippet.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
