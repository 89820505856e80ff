package statedept

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
)

const (
	defaultBaseURL = "https://cadataapi.state.gov/api"
	defaultTimeout = 10 * time.Second
	bulletinsPath  = "/TravelAdvisories"
)

// Client fetches the travel advisory bulletin feed published by the US
// Department of State.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client. A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchBulletins retrieves the full bulletin list in upstream order.
func (c *Client) FetchBulletins(ctx context.Context) ([]advisory.Bulletin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+bulletinsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(advisory.CodeUpstream, "advisory request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.Wrap(advisory.CodeUpstream, fmt.Sprintf("advisory request error: status=%d body=%s", resp.StatusCode, string(payload)), nil)
	}

	var raw []bulletin
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.Wrap(advisory.CodeUpstream, "decode advisory response", err)
	}
	// A JSON null carries no bulletin data; treat it like a failed fetch.
	if raw == nil {
		return nil, apperrors.Wrap(advisory.CodeUpstream, "advisory response is null", nil)
	}
	return normalizeBulletins(raw), nil
}

type bulletin struct {
	Title   string `json:"Title"`
	Summary string `json:"Summary"`
	Link    string `json:"Link"`
}

func normalizeBulletins(raw []bulletin) []advisory.Bulletin {
	out := make([]advisory.Bulletin, 0, len(raw))
	for _, b := range raw {
		out = append(out, advisory.Bulletin{
			Title:   b.Title,
			Summary: b.Summary,
			Link:    strings.TrimSpace(b.Link),
		})
	}
	return out
}

var _ advisory.BulletinSource = (*Client)(nil)
