package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Goal is a savings goal with a target amount and deadline.
type Goal struct {
	ID            json.Number `json:"id"`
	MemberID      json.Number `json:"memberId"`
	Description   string      `json:"description"`
	CurrentAmount int64       `json:"currentAmount"`
	TargetAmount  int64       `json:"targetAmount"`
	Deadline      string      `json:"deadline"`
}

// Progress returns completion in percent, capped at 100.
func (g Goal) Progress() int {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := int(g.CurrentAmount * 100 / g.TargetAmount)
	if p > 100 {
		p = 100
	}
	return p
}

// GoalRequest carries the writable goal fields.
type GoalRequest struct {
	Description   string    `json:"description"`
	CurrentAmount int64     `json:"currentAmount"`
	TargetAmount  int64     `json:"targetAmount"`
	Deadline      time.Time `json:"deadline"`
}

func (c *Client) Goals(ctx context.Context) ([]Goal, error) {
	return unwrap[[]Goal](ctx, c, http.MethodGet, "/api/v1/goals", nil)
}

func (c *Client) Goal(ctx context.Context, goalID string) (Goal, error) {
	return unwrap[Goal](ctx, c, http.MethodGet, "/api/v1/goals/"+goalID, nil)
}

func (c *Client) CreateGoal(ctx context.Context, req GoalRequest) (Goal, error) {
	return unwrap[Goal](ctx, c, http.MethodPost, "/api/v1/goals", req)
}

func (c *Client) UpdateGoal(ctx context.Context, goalID string, req GoalRequest) (Goal, error) {
	return unwrap[Goal](ctx, c, http.MethodPut, "/api/v1/goals/"+goalID, req)
}

func (c *Client) DeleteGoal(ctx context.Context, goalID string) error {
	_, err := unwrap[json.RawMessage](ctx, c, http.MethodDelete, "/api/v1/goals/"+goalID, nil)
	return err
}
