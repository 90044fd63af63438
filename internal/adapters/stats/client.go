package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"communityevents/internal/domain"
)

// AppName identifies this service in recorded hits.
const AppName = "community-events"

const timeLayout = "2006-01-02 15:04:05"

// statsEpoch is the lower bound of every views query; views are counted over the event's whole life.
var statsEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type hitRequest struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

type viewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Client talks to the stats service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewClient returns a stats client for the service at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), client: client, now: time.Now}
}

var (
	_ domain.ViewCounter = (*Client)(nil)
	_ domain.HitRecorder = (*Client)(nil)
)

// Views returns unique view counts keyed by event id. Events without hits are absent from the map.
func (c *Client) Views(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	views := make(map[string]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return views, nil
	}
	q := url.Values{}
	q.Set("start", statsEpoch.Format(timeLayout))
	q.Set("end", c.now().UTC().Format(timeLayout))
	q.Set("unique", "true")
	for _, id := range eventIDs {
		q.Add("uris", domain.EventURI(id))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats api returned status: %d", resp.StatusCode)
	}

	var data []viewStats
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	prefix := domain.EventURI("")
	for _, s := range data {
		id, ok := strings.CutPrefix(s.URI, prefix)
		if !ok || id == "" {
			continue
		}
		views[id] += s.Hits
	}
	return views, nil
}

// RecordHit posts one view of uri from ip.
func (c *Client) RecordHit(ctx context.Context, uri, ip string) error {
	body, err := json.Marshal(hitRequest{
		App:       AppName,
		URI:       uri,
		IP:        ip,
		Timestamp: c.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats api returned status: %d", resp.StatusCode)
	}
	return nil
}
