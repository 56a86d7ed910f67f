package client

import (
	"context"
	"fmt"
	"net/url"
)

type WorkspaceService struct {
	client *Client
}

type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ListItem is the shape of workspace sub-resource listings (documents and
// chat rooms).
type ListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Insight struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *WorkspaceService) Create(ctx context.Context, name, description string) (Workspace, error) {
	var workspace Workspace
	err := s.client.do(ctx, "POST", "/api/v1/workspaces", map[string]string{
		"name":        name,
		"description": description,
	}, &workspace, false)
	return workspace, err
}

func (s *WorkspaceService) List(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	err := s.client.do(ctx, "GET", "/api/v1/workspaces/list", nil, &workspaces, false)
	return workspaces, err
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID string) (Workspace, error) {
	var workspace Workspace
	err := s.client.do(ctx, "GET", workspacePath(workspaceID, ""), nil, &workspace, false)
	return workspace, err
}

func (s *WorkspaceService) Delete(ctx context.Context, workspaceID string) error {
	return s.client.do(ctx, "POST", workspacePath(workspaceID, "delete"), nil, nil, false)
}

func (s *WorkspaceService) Documents(ctx context.Context, workspaceID string) ([]ListItem, error) {
	var items []ListItem
	err := s.client.do(ctx, "GET", workspacePath(workspaceID, "documents"), nil, &items, false)
	return items, err
}

func (s *WorkspaceService) ChatRooms(ctx context.Context, workspaceID string) ([]ListItem, error) {
	var items []ListItem
	err := s.client.do(ctx, "GET", workspacePath(workspaceID, "chatrooms"), nil, &items, false)
	return items, err
}

func (s *WorkspaceService) Insights(ctx context.Context, workspaceID string) ([]Insight, error) {
	var items []Insight
	err := s.client.do(ctx, "GET", workspacePath(workspaceID, "insights"), nil, &items, false)
	return items, err
}

func workspacePath(workspaceID, suffix string) string {
	path := fmt.Sprintf("/api/v1/workspaces/%s", url.PathEscape(workspaceID))
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}
