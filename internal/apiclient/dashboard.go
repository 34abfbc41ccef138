package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// Collections the dashboard counts. They belong to other services of the
// platform; only their list endpoints are used here.
const (
	membersPath = "/members"
	eventsPath  = "/events"
	storiesPath = "/stories"
)

func (c *APIClient) CountMembers(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return c.count(ctx, "count members", membersPath, "members", cookies...)
}

func (c *APIClient) CountEvents(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return c.count(ctx, "count events", eventsPath, "events", cookies...)
}

func (c *APIClient) CountStories(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return c.count(ctx, "count stories", storiesPath, "stories", cookies...)
}

// count uses the same list normalization as questions and prefers the
// paginated total over the page length.
func (c *APIClient) count(ctx context.Context, op, path, key string, cookies ...*http.Cookie) (int, error) {
	payload, err := c.call(ctx, op, http.MethodGet, path, nil, cookies...)
	if err != nil {
		return 0, err
	}
	_, total := decodeList[json.RawMessage](payload, key)
	return total, nil
}
