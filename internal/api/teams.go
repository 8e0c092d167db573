package api

import (
	"context"
	"net/http"

	"github.com/balkashynov/ems/internal/models"
)

// CreateTeamRequest is the team-creation payload
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListTeams calls GET /teams/
func (c *Client) ListTeams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	err := c.do(ctx, http.MethodGet, "/teams/", nil, &out)
	return out, err
}

// GetTeam calls GET /teams/{id}
func (c *Client) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	var out models.Team
	if err := c.do(ctx, http.MethodGet, "/teams/"+escape(teamID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyTeam calls GET /teams/my-team
func (c *Client) MyTeam(ctx context.Context) (*models.Team, error) {
	var out models.Team
	if err := c.do(ctx, http.MethodGet, "/teams/my-team", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTeam calls POST /teams/
func (c *Client) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	var out models.Team
	if err := c.do(ctx, http.MethodPost, "/teams/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTeam calls DELETE /teams/{id}
func (c *Client) DeleteTeam(ctx context.Context, teamID int) error {
	return c.do(ctx, http.MethodDelete, "/teams/"+escape(teamID), nil, nil)
}

// AddMembers calls PUT /teams/{id}/members. The body is the array of user
// ids to add; existing members are kept.
func (c *Client) AddMembers(ctx context.Context, teamID int, userIDs ...int) error {
	if userIDs == nil {
		userIDs = []int{}
	}
	return c.do(ctx, http.MethodPut, "/teams/"+escape(teamID)+"/members", userIDs, nil)
}

// RemoveMember calls DELETE /teams/{id}/members/{userId}
func (c *Client) RemoveMember(ctx context.Context, teamID, userID int) error {
	return c.do(ctx, http.MethodDelete, "/teams/"+escape(teamID)+"/members/"+escape(userID), nil, nil)
}

// AssignManager calls PUT /teams/{id}/manager?manager_id=
func (c *Client) AssignManager(ctx context.Context, teamID, managerID int) error {
	return c.do(ctx, http.MethodPut, "/teams/"+escape(teamID)+"/manager?manager_id="+escape(managerID), nil, nil)
}
