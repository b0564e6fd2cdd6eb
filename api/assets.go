package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Asset is a non-account holding (deposits, stocks, real estate, ...).
type Asset struct {
	ID        json.Number `json:"id"`
	MemberID  json.Number `json:"memberId"`
	Name      string      `json:"name"`
	AssetType string      `json:"assetType"`
	Value     int64       `json:"assetValue"`
}

// AssetRequest carries the writable asset fields.
type AssetRequest struct {
	Name      string `json:"name"`
	AssetType string `json:"assetType"`
	Value     int64  `json:"assetValue"`
}

func (c *Client) CreateAsset(ctx context.Context, req AssetRequest) (Asset, error) {
	return unwrap[Asset](ctx, c, http.MethodPost, "/api/v1/assets", req)
}

// Assets lists every asset visible to the caller.
func (c *Client) Assets(ctx context.Context) ([]Asset, error) {
	return unwrap[[]Asset](ctx, c, http.MethodGet, "/api/v1/assets", nil)
}

// MemberAssets lists only the current member's assets.
func (c *Client) MemberAssets(ctx context.Context) ([]Asset, error) {
	return unwrap[[]Asset](ctx, c, http.MethodGet, "/api/v1/assets/member", nil)
}

func (c *Client) Asset(ctx context.Context, assetID string) (Asset, error) {
	return unwrap[Asset](ctx, c, http.MethodGet, "/api/v1/assets/"+assetID, nil)
}

func (c *Client) UpdateAsset(ctx context.Context, assetID string, req AssetRequest) (Asset, error) {
	return unwrap[Asset](ctx, c, http.MethodPut, "/api/v1/assets/"+assetID, req)
}

func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	_, err := unwrap[json.RawMessage](ctx, c, http.MethodDelete, "/api/v1/assets/"+assetID, nil)
	return err
}
