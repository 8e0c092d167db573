package api

import (
	"context"
	"net/http"

	"github.com/balkashynov/ems/internal/models"
)

// TasksPerUser calls GET /reports/tasks-per-user
func (c *Client) TasksPerUser(ctx context.Context) ([]models.UserTaskCount, error) {
	var out []models.UserTaskCount
	err := c.do(ctx, http.MethodGet, "/reports/tasks-per-user", nil, &out)
	return out, err
}

// WorkloadDistribution calls GET /reports/workload-distribution
func (c *Client) WorkloadDistribution(ctx context.Context) (*models.Workload, error) {
	var out models.Workload
	if err := c.do(ctx, http.MethodGet, "/reports/workload-distribution", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
