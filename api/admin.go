package api

import (
	"context"
	"net/http"
	"net/url"
)

// AdminMembers lists every member. Requires the ADMIN role; a non-admin
// token gets the usual authorization-failure handling.
func (c *Client) AdminMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := c.JSON(ctx, http.MethodGet, "/api/v1/admin/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) AdminMember(ctx context.Context, memberID string) (Member, error) {
	var m Member
	if err := c.JSON(ctx, http.MethodGet, "/api/v1/admin/members/"+memberID, nil, &m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (c *Client) AdminActiveMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := c.JSON(ctx, http.MethodGet, "/api/v1/admin/members/active", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AdminSearchMembers searches members by name or email fragment.
func (c *Client) AdminSearchMembers(ctx context.Context, query string) ([]Member, error) {
	var members []Member
	path := "/api/v1/admin/members/search?keyword=" + url.QueryEscape(query)
	if err := c.JSON(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) AdminActivateMember(ctx context.Context, memberID string) error {
	return c.JSON(ctx, http.MethodPatch, "/api/v1/admin/members/"+memberID+"/activate", nil, nil)
}

func (c *Client) AdminDeactivateMember(ctx context.Context, memberID string) error {
	return c.JSON(ctx, http.MethodPatch, "/api/v1/admin/members/"+memberID+"/deactivate", nil, nil)
}
