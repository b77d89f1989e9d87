package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const perPage = 100

// Client handles GitHub API interactions
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new GitHub client. An empty baseURL means the public
// API; pass a different base for GitHub Enterprise or tests.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// APIError is a non-success response from the GitHub API. It never carries
// request headers, so credentials cannot leak through error text.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %s - %s", e.Status, e.Body)
}

// ListJobs fetches all jobs for a workflow run in listing order. Pages of
// perPage are requested until a short page signals the end; runs with more
// jobs than one page can hold would otherwise be truncated.
func (c *Client) ListJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error) {
	var all []Job
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/jobs?per_page=%d&page=%d",
			c.baseURL, owner, repo, runID, perPage, page)

		var result struct {
			Jobs []Job `json:"jobs"`
		}
		if err := c.doRequest(ctx, url, &result); err != nil {
			return nil, err
		}

		all = append(all, result.Jobs...)
		if len(result.Jobs) < perPage {
			break
		}
	}
	return all, nil
}

// FetchJobLog downloads the raw log text for a single job.
func (c *Client) FetchJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/jobs/%d/logs", c.baseURL, owner, repo, jobID)

	req, err := c.newAPIRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	return string(body), nil
}

// UpsertComment creates or replaces the single pull request comment
// identified by the marker string: create if absent, replace if present.
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, prNumber int, marker, body string) error {
	existingID, err := c.findCommentByMarker(ctx, owner, repo, prNumber, marker)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return err
	}

	if existingID != 0 {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.baseURL, owner, repo, existingID)
		return c.sendJSON(ctx, http.MethodPatch, url, payload)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, prNumber)
	return c.sendJSON(ctx, http.MethodPost, url, payload)
}

// findCommentByMarker pages through the PR's comments and returns the ID of
// the first one containing marker, or 0 when none exists.
func (c *Client) findCommentByMarker(ctx context.Context, owner, repo string, prNumber int, marker string) (int64, error) {
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			c.baseURL, owner, repo, prNumber, perPage, page)

		var comments []Comment
		if err := c.doRequest(ctx, url, &comments); err != nil {
			return 0, err
		}

		for _, comment := range comments {
			if strings.Contains(comment.Body, marker) {
				return comment.ID, nil
			}
		}

		if len(comments) < perPage {
			return 0, nil
		}
	}
}

func (c *Client) sendJSON(ctx context.Context, method, url string, payload []byte) error {
	req, err := c.newAPIRequest(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	req, err := c.newAPIRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) newAPIRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	return req, nil
}
