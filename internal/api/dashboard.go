package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/railops/railops/internal/models"
)

// KPIs fetches the aggregated fleet figures shown on the dashboard landing
// page.
func (c *Client) KPIs(ctx context.Context) (*models.KPISnapshot, error) {
	var snapshot models.KPISnapshot
	if err := c.do(ctx, http.MethodGet, "/dashboard/kpis", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

type activityResponse struct {
	Entries []models.ActivityEntry `json:"entries"`
}

// Activity returns the most recent audit entries, newest first. limit <= 0
// leaves the page size to the server.
func (c *Client) Activity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	path := "/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp activityResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}
