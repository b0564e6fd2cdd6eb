package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Notice is an announcement shown on the dashboard.
type Notice struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"createDate"`
}

func (c *Client) Notices(ctx context.Context) ([]Notice, error) {
	return unwrap[[]Notice](ctx, c, http.MethodGet, "/api/v1/notices", nil)
}

func (c *Client) Notice(ctx context.Context, noticeID string) (Notice, error) {
	return unwrap[Notice](ctx, c, http.MethodGet, "/api/v1/notices/"+noticeID, nil)
}

// Snapshot is a stored point-in-time net-worth figure.
type Snapshot struct {
	ID         json.Number `json:"id"`
	TotalAsset int64       `json:"totalAsset"`
	YearMonth  string      `json:"yearMonth"`
}

// SaveSnapshot records the member's current net worth for trend charts.
func (c *Client) SaveSnapshot(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/v1/snapshot/save", nil)
	return err
}

func (c *Client) Snapshots(ctx context.Context) ([]Snapshot, error) {
	return unwrap[[]Snapshot](ctx, c, http.MethodGet, "/api/v1/snapshot", nil)
}
