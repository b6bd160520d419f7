// Package source fetches the latest telegraph items from the CLS nodeapi.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

const (
	// DefaultAPIURL is the public telegraph roll endpoint.
	DefaultAPIURL = "https://www.cls.cn/nodeapi/telegraphList"

	defaultBatchSize = 50
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer          = "https://www.cls.cn/telegraph"
)

// Client polls the CLS telegraph endpoint. Batches come back
// newest-first; the ingestion pipeline reverses them.
type Client struct {
	apiURL    string
	batchSize int
	client    *http.Client
	clock     func() time.Time
}

// NewClient creates a fetcher. A nil httpClient gets a 15s timeout
// default; a nil clock uses time.Now.
func NewClient(apiURL string, batchSize int, httpClient *http.Client, clock func() time.Time) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Client{apiURL: apiURL, batchSize: batchSize, client: httpClient, clock: clock}
}

type rollResponse struct {
	Data struct {
		RollData []rollItem `json:"roll_data"`
	} `json:"data"`
}

type rollItem struct {
	CTime   int64   `json:"ctime"`
	Level   *string `json:"level"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

// Fetch returns the latest batch of raw items, newest-first.
func (c *Client) Fetch(ctx context.Context) ([]telegraph.RawItem, error) {
	params := url.Values{}
	params.Set("rn", strconv.Itoa(c.batchSize))
	// Cache-busting millisecond tick, same as the web client sends.
	params.Set("_", strconv.FormatInt(c.clock().UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var roll rollResponse
	if err := json.NewDecoder(resp.Body).Decode(&roll); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]telegraph.RawItem, 0, len(roll.Data.RollData))
	for _, item := range roll.Data.RollData {
		level := ""
		if item.Level != nil {
			level = *item.Level
		}
		items = append(items, telegraph.RawItem{
			Timestamp: item.CTime,
			Level:     level,
			Title:     item.Title,
			Content:   item.Content,
		})
	}
	return items, nil
}
